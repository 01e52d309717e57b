package domain

import (
	"errors"
	"strings"
	"time"
)

// UserRecord is the persisted account document. Records are immutable after
// registration; there is no update endpoint.
type UserRecord struct {
	ID           UserID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

func (u UserRecord) Validate() error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("email is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}

func (u UserRecord) AsOwner() Owner {
	return Owner{ID: u.ID, Name: u.Name, Email: u.Email}
}
