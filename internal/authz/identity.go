package authz

import "context"

type subjectContextKey struct{}

// ContextWithSubject stores the authenticated subject in context.
func ContextWithSubject(ctx context.Context, subject Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext extracts the authenticated subject from context, nil
// when the request carries no identity.
func SubjectFromContext(ctx context.Context) Subject {
	subject, _ := ctx.Value(subjectContextKey{}).(Subject)
	return subject
}
