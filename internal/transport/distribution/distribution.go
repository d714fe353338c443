package distribution

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alanyang/agentflow/internal/domain/apperr"
	domaindist "github.com/alanyang/agentflow/internal/domain/distribution"
	distsvc "github.com/alanyang/agentflow/internal/service/distribution"
	"github.com/alanyang/agentflow/internal/transport/respond"
)

var errBadAgentID = apperr.Validation("Invalid agentId")

func Register(rg *gin.RouterGroup, svc *distsvc.Service) {
	rg.GET("", listDistributions(svc))
}

func listDistributions(svc *distsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters domaindist.ListFilters
		if v := c.Query("agentId"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				respond.Error(c, errBadAgentID)
				return
			}
			filters.AgentID = &id
		}

		entries, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if entries == nil {
			entries = []domaindist.Entry{}
		}
		c.JSON(http.StatusOK, gin.H{"distributions": entries})
	}
}
