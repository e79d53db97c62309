package auth

import "github.com/google/uuid"

// NewVerificationToken returns a random single-use token for email verification.
func NewVerificationToken() string {
	return uuid.NewString()
}
