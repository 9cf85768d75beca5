package httpx

import (
	"errors"
	"net/http"

	"github.com/accesshub/accesshub/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Internal details never reach the caller; wiring defects and unknown
// errors collapse to an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	var unresolved *shared.UnresolvedError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateKey):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &unresolved):
		// Unresolved identifiers are returned verbatim so the caller can
		// correct the request.
		Problem(w, http.StatusBadRequest, "Validation Failed", unresolved.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid username or password")
	case errors.Is(err, shared.ErrDependencyMissing):
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
