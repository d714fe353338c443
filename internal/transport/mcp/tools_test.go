package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	domaindist "github.com/alanyang/agentflow/internal/domain/distribution"
	"github.com/alanyang/agentflow/internal/domain/record"
	"github.com/alanyang/agentflow/internal/mocks"
	agentsvc "github.com/alanyang/agentflow/internal/service/agent"
	distsvc "github.com/alanyang/agentflow/internal/service/distribution"
	"github.com/alanyang/agentflow/internal/service/distributor"
)

type fixture struct {
	agentRepo *mocks.MockAgentRepository
	distRepo  *mocks.MockDistributionRepository
	agentSvc  *agentsvc.Service
	distSvc   *distsvc.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	agentRepo := mocks.NewMockAgentRepository(ctrl)
	distRepo := mocks.NewMockDistributionRepository(ctrl)
	bus := mocks.NewMockEventBus(ctrl)
	return fixture{
		agentRepo: agentRepo,
		distRepo:  distRepo,
		agentSvc:  agentsvc.NewService(agentRepo, mocks.NewMockPasswordHasher(ctrl), bus),
		distSvc: distsvc.NewService(
			distributor.NewService(mocks.NewMockRosterReader(ctrl)),
			distRepo, mocks.NewMockIdempotencyStore(ctrl), bus, distsvc.Limits{},
		),
	}
}

func makeReq(args map[string]any) mcpmcp.CallToolRequest {
	var req mcpmcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, r *mcpmcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.NotEmpty(t, r.Content)
	raw, err := json.Marshal(r.Content[0])
	require.NoError(t, err)
	var content map[string]any
	require.NoError(t, json.Unmarshal(raw, &content))
	text, _ := content["text"].(string)
	return text
}

func TestListAgentsTool(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.agentRepo.EXPECT().List(gomock.Any()).Return([]domainagent.Agent{
		{ID: id, Name: "Asha", Email: "asha@example.com", PasswordHash: "hash"},
	}, nil)

	res, err := listAgentsHandler(f.agentSvc)(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var body struct {
		Agents []map[string]any `json:"agents"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &body))
	require.Len(t, body.Agents, 1)
	assert.Equal(t, id.String(), body.Agents[0]["id"])
	assert.NotContains(t, body.Agents[0], "passwordHash")
}

func TestListAgentsTool_RepoErrorIsHidden(t *testing.T) {
	f := newFixture(t)
	f.agentRepo.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection refused"))

	res, err := listAgentsHandler(f.agentSvc)(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Internal server error", resultText(t, res))
}

func TestListDistributionsTool(t *testing.T) {
	f := newFixture(t)
	f.distRepo.EXPECT().List(gomock.Any(), domaindist.ListFilters{}).Return(nil, nil)

	res, err := listDistributionsHandler(f.distSvc)(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"distributions":[]}`, resultText(t, res))
}

func TestListDistributionsTool_AgentFilter(t *testing.T) {
	f := newFixture(t)
	agentID := uuid.New()
	f.distRepo.EXPECT().
		List(gomock.Any(), domaindist.ListFilters{AgentID: &agentID}).
		Return([]domaindist.Entry{{ID: uuid.New(), AgentID: agentID, FileName: "leads.csv"}}, nil)

	res, err := listDistributionsHandler(f.distSvc)(context.Background(), makeReq(map[string]any{"agent_id": agentID.String()}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "leads.csv")
}

func TestListDistributionsTool_InvalidAgentID(t *testing.T) {
	f := newFixture(t)

	res, err := listDistributionsHandler(f.distSvc)(context.Background(), makeReq(map[string]any{"agent_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "invalid agent_id", resultText(t, res))
}

func TestGetAgentRecordsTool(t *testing.T) {
	f := newFixture(t)
	agentID := uuid.New()
	newer := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	f.agentRepo.EXPECT().GetByID(gomock.Any(), agentID).Return(domainagent.Agent{ID: agentID, Name: "Asha"}, nil)
	f.distRepo.EXPECT().
		List(gomock.Any(), domaindist.ListFilters{AgentID: &agentID}).
		Return([]domaindist.Entry{
			{AgentID: agentID, FileName: "feb.csv", UploadDate: newer, Records: []record.Record{{FirstName: "Bo", Phone: "1"}, {FirstName: "Cy", Phone: "2"}}},
			{AgentID: agentID, FileName: "jan.csv", UploadDate: older, Records: []record.Record{{FirstName: "Di", Phone: "3"}}},
		}, nil)

	res, err := getAgentRecordsHandler(f.agentSvc, f.distSvc)(context.Background(), makeReq(map[string]any{"agent_id": agentID.String()}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var body struct {
		Agent   map[string]any `json:"agent"`
		Records []struct {
			FirstName string `json:"firstName"`
			FileName  string `json:"fileName"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &body))
	assert.Equal(t, "Asha", body.Agent["name"])
	require.Len(t, body.Records, 3)
	assert.Equal(t, "Bo", body.Records[0].FirstName)
	assert.Equal(t, "feb.csv", body.Records[0].FileName)
	assert.Equal(t, "Di", body.Records[2].FirstName)
	assert.Equal(t, "jan.csv", body.Records[2].FileName)
}

func TestGetAgentRecordsTool_NotFound(t *testing.T) {
	f := newFixture(t)
	agentID := uuid.New()
	f.agentRepo.EXPECT().GetByID(gomock.Any(), agentID).Return(domainagent.Agent{}, domainagent.ErrNotFound)

	res, err := getAgentRecordsHandler(f.agentSvc, f.distSvc)(context.Background(), makeReq(map[string]any{"agent_id": agentID.String()}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Agent not found", resultText(t, res))
}

func TestGetAgentRecordsTool_MissingAgentID(t *testing.T) {
	f := newFixture(t)

	res, err := getAgentRecordsHandler(f.agentSvc, f.distSvc)(context.Background(), makeReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "invalid agent_id", resultText(t, res))
}

func TestNewServerHandler(t *testing.T) {
	f := newFixture(t)
	assert.NotNil(t, New(f.agentSvc, f.distSvc).Handler())
}
