//go:build integration

package idempotency_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgidem "github.com/alanyang/agentflow/internal/adapter/postgres/idempotency"
	"github.com/alanyang/agentflow/internal/testutil"
)

func TestCheckAndStore(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgidem.New(pool)

	_, found, err := repo.Check(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Store(ctx, "k1", "upload", []byte(`{"totalRecords":1}`)))
	// Second store under the same key is ignored.
	require.NoError(t, repo.Store(ctx, "k1", "upload", []byte(`{"totalRecords":2}`)))

	raw, found, err := repo.Check(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"totalRecords":1}`, string(raw))
}
