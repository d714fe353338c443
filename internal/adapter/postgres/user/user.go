package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/agentflow/internal/adapter/postgres"
	domainuser "github.com/alanyang/agentflow/internal/domain/user"
	portuser "github.com/alanyang/agentflow/internal/port/user"
)

const (
	userColumns = `id, email, role, password_hash, created_at`
	// singleAdminIndex allows at most one row with role 'admin'.
	singleAdminIndex = "users_single_admin"
)

var _ portuser.Repository = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, u domainuser.User) (domainuser.User, error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING ` + userColumns

	created, err := scanUser(r.pool.QueryRow(ctx, query, u.ID, u.Email, u.Role, u.PasswordHash, u.CreatedAt))
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok {
			if constraint == singleAdminIndex {
				return domainuser.User{}, domainuser.ErrAdminTaken
			}
			return domainuser.User{}, domainuser.ErrDuplicateEmail
		}
		return domainuser.User{}, fmt.Errorf("inserting user: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (domainuser.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domainuser.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *Repository) AdminExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, domainuser.RoleAdmin,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking for admin: %w", err)
	}
	return exists, nil
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (domainuser.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainuser.User{}, domainuser.ErrNotFound
		}
		return domainuser.User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (domainuser.User, error) {
	var u domainuser.User
	err := row.Scan(&u.ID, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
