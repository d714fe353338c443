// Package auth handles operator accounts and the session tokens issued to them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyang/agentflow/internal/domain/apperr"
	domainuser "github.com/alanyang/agentflow/internal/domain/user"
	portsec "github.com/alanyang/agentflow/internal/port/security"
	portuser "github.com/alanyang/agentflow/internal/port/user"
)

var (
	ErrMissingCredentials = apperr.Validation("Email and password are required")
	ErrAdminExists        = apperr.Conflict("Admin already exists")
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")
	ErrNotAuthenticated   = apperr.Unauthorized("Not authenticated")
)

type Service struct {
	users  portuser.Repository
	hasher portsec.PasswordHasher
	tokens portsec.TokenManager
}

func NewService(users portuser.Repository, hasher portsec.PasswordHasher, tokens portsec.TokenManager) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Setup creates the initial admin account. It succeeds once; after that every
// call, whatever the email, is rejected with ErrAdminExists. The single-admin
// index on users closes the window between the check and the insert.
func (s *Service) Setup(ctx context.Context, email, password string) (domainuser.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return domainuser.User{}, ErrMissingCredentials
	}

	exists, err := s.users.AdminExists(ctx)
	if err != nil {
		return domainuser.User{}, fmt.Errorf("setup admin: %w", err)
	}
	if exists {
		return domainuser.User{}, ErrAdminExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domainuser.User{}, fmt.Errorf("setup admin: %w", err)
	}

	created, err := s.users.Create(ctx, domainuser.NewAdmin(email, hash))
	if err != nil {
		if errors.Is(err, domainuser.ErrAdminTaken) || errors.Is(err, domainuser.ErrDuplicateEmail) {
			return domainuser.User{}, ErrAdminExists
		}
		return domainuser.User{}, fmt.Errorf("setup admin: %w", err)
	}

	slog.InfoContext(ctx, "admin account created", "user_id", created.ID)
	return created, nil
}

// Login checks the password and returns a signed session token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (domainuser.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return domainuser.User{}, "", ErrMissingCredentials
	}

	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domainuser.ErrNotFound) {
		return domainuser.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return domainuser.User{}, "", fmt.Errorf("login: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		slog.WarnContext(ctx, "login rejected", "user_id", u.ID)
		return domainuser.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(u)
	if err != nil {
		return domainuser.User{}, "", fmt.Errorf("login: %w", err)
	}
	return u, token, nil
}

// Authenticate resolves a session token to the account it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (domainuser.User, error) {
	if token == "" {
		return domainuser.User{}, ErrNotAuthenticated
	}

	session, err := s.tokens.Validate(token)
	if err != nil {
		return domainuser.User{}, ErrNotAuthenticated
	}

	u, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, domainuser.ErrNotFound) {
		return domainuser.User{}, ErrNotAuthenticated
	}
	if err != nil {
		return domainuser.User{}, fmt.Errorf("authenticate: %w", err)
	}
	return u, nil
}
