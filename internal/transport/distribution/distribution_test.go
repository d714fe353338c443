package distribution_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domaindist "github.com/alanyang/agentflow/internal/domain/distribution"
	"github.com/alanyang/agentflow/internal/domain/record"
	"github.com/alanyang/agentflow/internal/mocks"
	distsvc "github.com/alanyang/agentflow/internal/service/distribution"
	"github.com/alanyang/agentflow/internal/service/distributor"
	transportdist "github.com/alanyang/agentflow/internal/transport/distribution"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(t *testing.T) (*gin.Engine, *mocks.MockDistributionRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockDistributionRepository(ctrl)
	svc := distsvc.NewService(
		distributor.NewService(mocks.NewMockRosterReader(ctrl)),
		repo, mocks.NewMockIdempotencyStore(ctrl), mocks.NewMockEventBus(ctrl), distsvc.Limits{},
	)
	r := gin.New()
	transportdist.Register(r.Group("/api/distributions"), svc)
	return r, repo
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListDistributions(t *testing.T) {
	r, repo := newRouter(t)
	agentID := uuid.New()
	entries := []domaindist.Entry{{
		ID:         uuid.New(),
		BatchID:    uuid.New(),
		AgentID:    agentID,
		Agent:      &domaindist.AgentRef{ID: agentID, Name: "Asha", Email: "asha@example.com"},
		Records:    []record.Record{{FirstName: "Bo", Phone: "1"}},
		FileName:   "leads.csv",
		UploadDate: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	repo.EXPECT().List(gomock.Any(), domaindist.ListFilters{}).Return(entries, nil)

	w := get(r, "/api/distributions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Distributions []map[string]any `json:"distributions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Distributions, 1)
	got := body.Distributions[0]
	assert.Equal(t, "leads.csv", got["fileName"])
	assert.Equal(t, "2025-01-02T03:04:05Z", got["uploadDate"])
	agent := got["agent"].(map[string]any)
	assert.Equal(t, "Asha", agent["name"])
}

func TestListDistributions_AgentFilter(t *testing.T) {
	r, repo := newRouter(t)
	agentID := uuid.New()
	repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f domaindist.ListFilters) ([]domaindist.Entry, error) {
			require.NotNil(t, f.AgentID)
			assert.Equal(t, agentID, *f.AgentID)
			return nil, nil
		})

	w := get(r, "/api/distributions?agentId="+agentID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"distributions":[]}`, w.Body.String())
}

func TestListDistributions_BadAgentID(t *testing.T) {
	r, _ := newRouter(t)

	w := get(r, "/api/distributions?agentId=nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDistributions_RepoError(t *testing.T) {
	r, repo := newRouter(t)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	w := get(r, "/api/distributions")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
