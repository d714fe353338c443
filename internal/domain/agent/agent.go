package agent

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/agentflow/internal/domain/apperr"
)

// Returned by repositories; the messages are shown to operators as-is.
var (
	ErrNotFound       = apperr.NotFound("Agent not found")
	ErrDuplicateEmail = apperr.Conflict("Agent with this email already exists")
)

// Agent is a member of the roster that receives uploaded records.
// PasswordHash never leaves the process.
type Agent struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	CountryCode  string    `json:"countryCode"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

func New(name, email, countryCode, mobile, passwordHash string) Agent {
	return Agent{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		CountryCode:  strings.TrimSpace(countryCode),
		Mobile:       strings.TrimSpace(mobile),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// Phone joins the country code and the number the way the dashboard shows it.
func (a Agent) Phone() string {
	if a.CountryCode == "" {
		return a.Mobile
	}
	return a.CountryCode + " " + a.Mobile
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
