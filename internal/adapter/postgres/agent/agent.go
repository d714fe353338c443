package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/agentflow/internal/adapter/postgres"
	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	portagent "github.com/alanyang/agentflow/internal/port/agent"
)

const agentColumns = `id, name, email, country_code, mobile, password_hash, created_at`

var (
	_ portagent.Repository   = (*Repository)(nil)
	_ portagent.RosterReader = (*Repository)(nil)
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, a domainagent.Agent) (domainagent.Agent, error) {
	query := `
		INSERT INTO agents (` + agentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING ` + agentColumns

	created, err := scanAgent(r.pool.QueryRow(ctx, query,
		a.ID, a.Name, a.Email, a.CountryCode, a.Mobile, a.PasswordHash, a.CreatedAt,
	))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return domainagent.Agent{}, domainagent.ErrDuplicateEmail
		}
		return domainagent.Agent{}, fmt.Errorf("inserting agent: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domainagent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`

	a, err := scanAgent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainagent.Agent{}, domainagent.ErrNotFound
		}
		return domainagent.Agent{}, fmt.Errorf("querying agent: %w", err)
	}
	return a, nil
}

func (r *Repository) List(ctx context.Context) ([]domainagent.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at DESC, id DESC`)
}

// ListForDistribution returns the roster in round-robin order. Ties on
// created_at are broken by id so the order is total.
func (r *Repository) ListForDistribution(ctx context.Context) ([]domainagent.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at ASC, id ASC`)
}

func (r *Repository) list(ctx context.Context, query string) ([]domainagent.Agent, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	agents := []domainagent.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning agent row: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Delete removes the agent's distribution entries and the agent itself in one
// transaction. The foreign key cascades too; deleting the entries explicitly
// lets the caller see how many went.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	var removed int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM distributions WHERE agent_id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting distributions: %w", err)
		}
		removed = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting agent: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domainagent.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func scanAgent(row pgx.Row) (domainagent.Agent, error) {
	var a domainagent.Agent
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.CountryCode, &a.Mobile, &a.PasswordHash, &a.CreatedAt)
	return a, err
}
