package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	"github.com/alanyang/agentflow/internal/domain/apperr"
	"github.com/alanyang/agentflow/internal/domain/event"
	portagent "github.com/alanyang/agentflow/internal/port/agent"
	portbus "github.com/alanyang/agentflow/internal/port/eventbus"
	portsec "github.com/alanyang/agentflow/internal/port/security"
)

const MinPasswordLen = 6

var (
	ErrMissingFields    = apperr.Validation("All fields are required")
	ErrInvalidEmail     = apperr.Validation("Please enter a valid email")
	ErrPasswordTooShort = apperr.Validation(fmt.Sprintf("Password must be at least %d characters", MinPasswordLen))
	ErrEmailExists      = domainagent.ErrDuplicateEmail
	ErrNotFound         = domainagent.ErrNotFound
)

type CreateInput struct {
	Name        string
	Email       string
	CountryCode string
	Mobile      string
	Password    string
}

// Service manages the roster. Deleting an agent also deletes its
// distribution entries; the repository does both in one transaction.
type Service struct {
	repo     portagent.Repository
	hasher   portsec.PasswordHasher
	bus      portbus.EventBus
	validate *validator.Validate
}

func NewService(repo portagent.Repository, hasher portsec.PasswordHasher, bus portbus.EventBus) *Service {
	return &Service{repo: repo, hasher: hasher, bus: bus, validate: validator.New()}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domainagent.Agent, error) {
	if err := s.check(in); err != nil {
		return domainagent.Agent{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("create agent: %w", err)
	}

	created, err := s.repo.Create(ctx, domainagent.New(in.Name, in.Email, in.CountryCode, in.Mobile, hash))
	if err != nil {
		if errors.Is(err, domainagent.ErrDuplicateEmail) {
			return domainagent.Agent{}, ErrEmailExists
		}
		return domainagent.Agent{}, fmt.Errorf("create agent: %w", err)
	}

	if err := s.bus.Publish(ctx, event.New(event.TypeAgentCreated, created.ID)); err != nil {
		slog.ErrorContext(ctx, "failed to publish AgentCreated event", "agent_id", created.ID, "error", err)
	}
	slog.InfoContext(ctx, "agent created", "agent_id", created.ID)
	return created, nil
}

func (s *Service) check(in CreateInput) error {
	for _, v := range []string{in.Name, in.Email, in.CountryCode, in.Mobile, in.Password} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingFields
		}
	}
	if err := s.validate.Var(domainagent.NormalizeEmail(in.Email), "email"); err != nil {
		return ErrInvalidEmail
	}
	if len(in.Password) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domainagent.Agent, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// List returns the roster newest-first.
func (s *Service) List(ctx context.Context) ([]domainagent.Agent, error) {
	agents, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}

	if err := s.bus.Publish(ctx, event.New(event.TypeAgentDeleted, id)); err != nil {
		slog.ErrorContext(ctx, "failed to publish AgentDeleted event", "agent_id", id, "error", err)
	}
	slog.InfoContext(ctx, "agent deleted", "agent_id", id, "entries_removed", removed)
	return nil
}
