package model

import "time"

// Role grants access to administrative endpoints.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AdminUsername is the account name that is granted the admin role on registration.
const AdminUsername = "admin"

// User represents a registered customer of the shop.
type User struct {
	ID                int64
	Username          string
	PasswordHash      string
	Name              string
	Email             string
	Phone             string
	Address           string
	Role              Role
	Enabled           bool
	VerificationToken string
	CreatedAt         time.Time
}

// Registration carries sign-up data submitted by a customer.
type Registration struct {
	Username string
	Password string
	Name     string
	Email    string
	Phone    string
	Address  string
}

// ProfileUpdate holds optional profile changes; nil fields are left untouched.
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}
