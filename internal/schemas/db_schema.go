// Package schemas defines the data structures
package schemas

import (
	"time"
)

// User represents the data model for a user in the system.
// The three digest columns only ever hold bcrypt digests, never the
// secrets themselves.
type User struct {
	ID               int64      `json:"id"`            // Unique identifier for the user.
	Name             string     `json:"name"`          // Display name of the user.
	Email            string     `json:"email"`         // Email address, stored lower-cased.
	PasswordDigest   string     `json:"-"`             // Digest of the user's password.
	Activated        bool       `json:"activated"`     // Whether the account has been activated.
	ActivatedAt      *time.Time `json:"activated_at"`  // Timestamp when the account was activated.
	ActivationDigest *string    `json:"-"`             // Digest of the activation token.
	RememberDigest   *string    `json:"-"`             // Digest of the remember token, nil when forgotten.
	ResetDigest      *string    `json:"-"`             // Digest of the password reset token.
	ResetSentAt      *time.Time `json:"reset_sent_at"` // Timestamp when the reset token was issued.
	CreatedAt        time.Time  `json:"created_at"`    // Timestamp when the user was created.
}

// Micropost represents a short post owned by exactly one user.
// Rows are removed together with their owner (ON DELETE CASCADE).
type Micropost struct {
	ID        int64     `json:"id"`         // Unique identifier for the micropost.
	UserID    int64     `json:"user_id"`    // Identifier of the owning user.
	Content   string    `json:"content"`    // Post content.
	CreatedAt time.Time `json:"created_at"` // Timestamp when the post was created.
}

// Relationship represents a directed follow edge between two users.
// (FollowerID, FollowedID) is the primary key, so duplicate edges are
// impossible at the storage boundary.
type Relationship struct {
	FollowerID int64     `json:"follower_id"` // The user doing the following.
	FollowedID int64     `json:"followed_id"` // The user being followed.
	CreatedAt  time.Time `json:"created_at"`  // Timestamp when the edge was created.
}
