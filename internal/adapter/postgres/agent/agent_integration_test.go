//go:build integration

package agent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgagent "github.com/alanyang/agentflow/internal/adapter/postgres/agent"
	pgdist "github.com/alanyang/agentflow/internal/adapter/postgres/distribution"
	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	domaindist "github.com/alanyang/agentflow/internal/domain/distribution"
	"github.com/alanyang/agentflow/internal/domain/record"
	"github.com/alanyang/agentflow/internal/testutil"
)

// helpers

func setupAgent(t *testing.T, ctx context.Context, repo *pgagent.Repository, name string, createdAt time.Time) domainagent.Agent {
	t.Helper()
	a := domainagent.New(name, name+"-"+uuid.NewString()[:8]+"@example.com", "+1", "5550100", "hash")
	a.CreatedAt = createdAt
	created, err := repo.Create(ctx, a)
	require.NoError(t, err)
	return created
}

func ids(agents []domainagent.Agent) []uuid.UUID {
	out := make([]uuid.UUID, len(agents))
	for i, a := range agents {
		out[i] = a.ID
	}
	return out
}

// ── Create / Get ──────────────────────────────────────────────────────────────

func TestCreateAndGet(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgagent.New(pool)

	created := setupAgent(t, ctx, repo, "asha", time.Now().UTC())

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)
	assert.Equal(t, "+1", got.CountryCode)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgagent.New(pool)

	first := setupAgent(t, ctx, repo, "asha", time.Now().UTC())
	dup := domainagent.New("other", first.Email, "+1", "1", "hash")

	_, err := repo.Create(ctx, dup)
	assert.True(t, errors.Is(err, domainagent.ErrDuplicateEmail))
}

func TestGetByID_NotFound(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	_, err := pgagent.New(pool).GetByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, domainagent.ErrNotFound))
}

// ── Ordering ──────────────────────────────────────────────────────────────────

func TestListOrders(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgagent.New(pool)

	base := time.Now().UTC().Truncate(time.Millisecond)
	a := setupAgent(t, ctx, repo, "a", base)
	b := setupAgent(t, ctx, repo, "b", base.Add(time.Second))
	c := setupAgent(t, ctx, repo, "c", base.Add(2*time.Second))

	roster, err := repo.ListForDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, ids(roster), "distribution order is oldest first")

	display, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID, b.ID, a.ID}, ids(display), "display order is newest first")
}

func TestListForDistribution_TieBrokenByID(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgagent.New(pool)

	same := time.Now().UTC().Truncate(time.Millisecond)
	x := setupAgent(t, ctx, repo, "x", same)
	y := setupAgent(t, ctx, repo, "y", same)

	roster, err := repo.ListForDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	want := []uuid.UUID{x.ID, y.ID}
	if y.ID.String() < x.ID.String() {
		want = []uuid.UUID{y.ID, x.ID}
	}
	assert.Equal(t, want, ids(roster))
}

func TestList_EmptyIsNotNil(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	agents, err := pgagent.New(pool).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, agents)
	assert.Empty(t, agents)
}

// ── Delete ────────────────────────────────────────────────────────────────────

func TestDelete_RemovesOnlyOwnEntries(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgagent.New(pool)
	distRepo := pgdist.New(pool)

	now := time.Now().UTC()
	a := setupAgent(t, ctx, repo, "a", now)
	b := setupAgent(t, ctx, repo, "b", now.Add(time.Second))

	batch := uuid.New()
	recs := []record.Record{{FirstName: "x", Phone: "1"}}
	_, err := distRepo.CreateBatch(ctx, []domaindist.Entry{
		domaindist.NewEntry(batch, a.ID, recs, "f.csv", now),
		domaindist.NewEntry(batch, b.ID, recs, "f.csv", now),
	})
	require.NoError(t, err)

	removed, err := repo.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.GetByID(ctx, a.ID)
	assert.True(t, errors.Is(err, domainagent.ErrNotFound))

	left, err := distRepo.List(ctx, domaindist.ListFilters{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, b.ID, left[0].AgentID)
}

func TestDelete_NotFound(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	_, err := pgagent.New(pool).Delete(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, domainagent.ErrNotFound))
}
