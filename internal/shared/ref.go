package shared

import "encoding/json"

// EntityRef is one element of an association payload. Clients may send a
// bare identifier string or an object carrying an "id" field; both decode
// into this canonical shape so nothing downstream branches on payload form.
type EntityRef struct {
	ID string `json:"id"`
}

// UnmarshalJSON accepts either `"uuid"` or `{"id": "uuid", ...}`. An object
// without an id decodes to a zero ref, which NormalizeRefs drops.
func (r *EntityRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.ID = s
		return nil
	}
	var obj struct {
		ID *string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.ID != nil {
		r.ID = *obj.ID
	}
	return nil
}

// NormalizeRefs extracts identifiers from refs, silently dropping elements
// without one and deduplicating while preserving first-seen order.
func NormalizeRefs(refs []EntityRef) []string {
	seen := make(map[string]struct{}, len(refs))
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}
	return ids
}
