package distribution

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domaindist "github.com/alanyang/agentflow/internal/domain/distribution"
	"github.com/alanyang/agentflow/internal/domain/record"
	portdist "github.com/alanyang/agentflow/internal/port/distribution"
)

var _ portdist.Repository = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateBatch sends every insert in one pipelined batch inside one
// transaction. A failed insert (for example an agent deleted after the roster
// snapshot) rolls back the whole upload.
func (r *Repository) CreateBatch(ctx context.Context, entries []domaindist.Entry) ([]domaindist.Entry, error) {
	if len(entries) == 0 {
		return entries, nil
	}

	query := `
		INSERT INTO distributions (id, batch_id, agent_id, records, file_name, upload_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`

	batch := &pgx.Batch{}
	for _, e := range entries {
		recordsJSON, err := json.Marshal(recordsOrEmpty(e.Records))
		if err != nil {
			return nil, fmt.Errorf("marshaling records: %w", err)
		}
		batch.Queue(query, e.ID, e.BatchID, e.AgentID, recordsJSON, e.FileName, e.UploadDate, e.CreatedAt)
	}

	stored := make([]domaindist.Entry, len(entries))
	copy(stored, entries)

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := range stored {
			if err := br.QueryRow().Scan(&stored[i].CreatedAt); err != nil {
				br.Close()
				return fmt.Errorf("inserting distribution for agent %s: %w", stored[i].AgentID, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// List returns entries joined with their agent, newest upload first and in
// round-robin order within one upload.
func (r *Repository) List(ctx context.Context, filters domaindist.ListFilters) ([]domaindist.Entry, error) {
	query := `
		SELECT d.id, d.batch_id, d.agent_id, d.records, d.file_name, d.upload_date, d.created_at,
			a.name, a.email
		FROM distributions d
		JOIN agents a ON a.id = d.agent_id
		WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if filters.AgentID != nil {
		query += fmt.Sprintf(" AND d.agent_id = $%d", argIdx)
		args = append(args, *filters.AgentID)
		argIdx++
	}

	query += " ORDER BY d.upload_date DESC, a.created_at ASC, a.id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing distributions: %w", err)
	}
	defer rows.Close()

	entries := []domaindist.Entry{}
	for rows.Next() {
		var (
			e           domaindist.Entry
			ref         domaindist.AgentRef
			recordsJSON []byte
		)
		if err := rows.Scan(
			&e.ID, &e.BatchID, &e.AgentID, &recordsJSON, &e.FileName, &e.UploadDate, &e.CreatedAt,
			&ref.Name, &ref.Email,
		); err != nil {
			return nil, fmt.Errorf("scanning distribution row: %w", err)
		}
		if err := json.Unmarshal(recordsJSON, &e.Records); err != nil {
			return nil, fmt.Errorf("unmarshaling records: %w", err)
		}
		ref.ID = e.AgentID
		e.Agent = &ref
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func recordsOrEmpty(recs []record.Record) []record.Record {
	if recs == nil {
		return []record.Record{}
	}
	return recs
}
