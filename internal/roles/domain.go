package roles

import (
	"time"

	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/permissions"
)

// Role groups permissions for assignment to users. Its permission set is
// deduplicated by permission ID and ordered by permission name.
type Role struct {
	ID          uuid.UUID                `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	IsActive    bool                     `json:"is_active"`
	Permissions []permissions.Permission `json:"permissions"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}
