// Package domain contains entity without logic, just meta-data
package domain

// UserID is the transport-assigned connection identifier.
// It is valid from connect until disconnect and is never reused.
type UserID string

// User is the identity attached to a live connection.
// Username is client-supplied at join time and is not validated.
type User struct {
	ID       UserID `json:"socketId"`
	Username string `json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID) *User {
	return &User{ID: id}
}
