package security

import domainuser "github.com/alanyang/agentflow/internal/domain/user"

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenManager issues and verifies session tokens.
type TokenManager interface {
	Generate(u domainuser.User) (string, error)
	Validate(token string) (domainuser.Session, error)
}
