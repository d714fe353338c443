package agent

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	agentsvc "github.com/alanyang/agentflow/internal/service/agent"
	"github.com/alanyang/agentflow/internal/transport/respond"
)

func Register(rg *gin.RouterGroup, svc *agentsvc.Service) {
	rg.GET("", listAgents(svc))
	rg.POST("", createAgent(svc))
	rg.GET("/:id", getAgent(svc))
	rg.DELETE("/:id", deleteAgent(svc))
}

type createReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	CountryCode string `json:"countryCode"`
	Password    string `json:"password"`
}

func createAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createReq
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, agentsvc.ErrMissingFields)
			return
		}

		a, err := svc.Create(c.Request.Context(), agentsvc.CreateInput{
			Name:        req.Name,
			Email:       req.Email,
			CountryCode: req.CountryCode,
			Mobile:      req.Mobile,
			Password:    req.Password,
		})
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "Agent created successfully",
			"agent":   a,
		})
	}
}

func listAgents(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		agents, err := svc.List(c.Request.Context())
		if err != nil {
			respond.Error(c, err)
			return
		}
		if agents == nil {
			agents = []domainagent.Agent{}
		}
		c.JSON(http.StatusOK, gin.H{"agents": agents})
	}
}

func getAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		a, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agent": a})
	}
}

func deleteAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Agent deleted successfully"})
	}
}

// parseID treats a malformed id like an unknown one.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Error(c, agentsvc.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}
