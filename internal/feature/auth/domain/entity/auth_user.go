// Package entity defines the domain entities for the auth feature.
package entity

// AuthUser is the identity resolved for the current request.
// It carries no credential data.
type AuthUser struct {
	UserID   uint
	Email    string
	Username *string
}

// DisplayName returns the username, falling back to the email address.
func (u *AuthUser) DisplayName() string {
	if u.Username == nil || *u.Username == "" {
		return u.Email
	}
	return *u.Username
}
