package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user email already registered")
	// ErrAdminTaken is returned by Create when another admin already exists.
	ErrAdminTaken = errors.New("admin account already exists")
)

const RoleAdmin = "admin"

// User is an operator account used to establish a dashboard session.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewAdmin(email, passwordHash string) User {
	return User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Role:         RoleAdmin,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// Session is what a verified token says about its bearer.
type Session struct {
	UserID uuid.UUID
	Email  string
}
