package types

import (
	"time"

	"github.com/google/uuid"
)

// User maps an identity-provider subject onto the local users table.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      *string   `json:"email,omitempty"` // Nullable
	CreatedAt  time.Time `json:"created_at"`
}

// Bookmark links a local user to a tourism content id.
type Bookmark struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ContentID string    `json:"content_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookmarkStatus is returned by the bookmark check endpoint.
type BookmarkStatus struct {
	ContentID  string `json:"content_id"`
	Bookmarked bool   `json:"bookmarked"`
}

// SyncUserRequest is the optional body of the user sync endpoint.
type SyncUserRequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}
