// Package entity defines the domain entities for the users feature.
package entity

import "time"

// User represents a registered user in the system.
// Profile data only; credentials live in UserAuth.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"column:user_id;primaryKey"`

	// Email is the user's email address used for authentication.
	// It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Username is an optional display name.
	Username *string `gorm:"size:255"`

	// CreatedAt is set once at creation and never updated.
	CreatedAt time.Time `gorm:"index;<-:create"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time

	// Auth is the one-to-one credential record. It is deleted together with the user.
	Auth *UserAuth `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

// UserAuth holds the credential half of a user record.
type UserAuth struct {
	// UserID is both the primary key and the foreign key to User.
	UserID uint `gorm:"primaryKey;autoIncrement:false"`

	// HashedPassword is the bcrypt hash. Plaintext passwords are never stored.
	HashedPassword string `gorm:"size:255;not null"`

	// LastLoginAt is set only by a successful login.
	LastLoginAt *time.Time

	// User is the owning profile; the foreign key cascades on delete.
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// DisplayName returns the username, or "-" when it is not set.
func (u User) DisplayName() string {
	if u.Username == nil || *u.Username == "" {
		return "-"
	}
	return *u.Username
}
