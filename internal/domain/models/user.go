package models

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a registered customer or administrator.
type User struct {
	ID       string
	Name     string
	Email    string
	PassHash []byte
	Role     string

	IsVerified               bool
	VerificationToken        string
	VerificationTokenExpires *time.Time

	ResetPasswordToken   string
	ResetPasswordExpires *time.Time

	Phone   string
	Address Address

	LastLogin     *time.Time
	LoginAttempts int
	LockUntil     *time.Time

	CreatedAt time.Time
}

// Address is the shipping/billing address attached to a user.
type Address struct {
	Street     string
	City       string
	PostalCode string
	Country    string
}

// Locked reports whether the account is currently locked out.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}
