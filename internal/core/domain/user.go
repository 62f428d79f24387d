package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// ErrMissingUser reports a user payload that is absent, null or has no id.
var ErrMissingUser = errors.New("user missing from payload")

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is the account record returned by the backend's auth endpoints.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UnmarshalJSON accepts both "id" and the Mongo-style "_id" the backend emits.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// ParseUser decodes a user payload. Absent, null and id-less users are
// ErrMissingUser, so a token is never paired with a blank account.
func ParseUser(raw []byte) (User, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return User{}, ErrMissingUser
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, err
	}
	if u.ID == "" {
		return User{}, ErrMissingUser
	}
	return u, nil
}
