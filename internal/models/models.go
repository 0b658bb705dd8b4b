// Package models holds the data shapes exchanged with the remote user service
// and rendered by the admin front end.
package models

// User is a single account as returned by the remote user service.
// ID is assigned remotely and never changes.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// FullName returns the user's first and last name joined by a space.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	if u.FirstName == "" {
		return u.LastName
	}

	return u.FirstName + " " + u.LastName
}

// UserUpdateData is the mutable projection of a User submitted by the edit form.
type UserUpdateData struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// UpdatedUser is the representation the remote service answers a PUT with.
type UpdatedUser struct {
	UserUpdateData
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the body the remote service sends along with a non-success status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UsersPage mirrors the remote `GET /users?page=N` response.
type UsersPage struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Data       []User `json:"data"`
}

// SessionRecord is the persisted part of an operator session.
type SessionRecord struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
