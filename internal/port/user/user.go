package user

import (
	"context"

	"github.com/google/uuid"

	domainuser "github.com/alanyang/agentflow/internal/domain/user"
)

type Repository interface {
	Create(ctx context.Context, u domainuser.User) (domainuser.User, error)
	GetByEmail(ctx context.Context, email string) (domainuser.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domainuser.User, error)
	// AdminExists reports whether any admin account has been created.
	AdminExists(ctx context.Context) (bool, error)
}
