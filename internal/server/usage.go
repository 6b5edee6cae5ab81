package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
)

const defaultHistoryLimit = 50

func (s *Server) GetUsageSummary(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.resolver.Summary(c.Request.Context(), userID)})
}

func (s *Server) AdminGetUsage(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.resolver.Summary(c.Request.Context(), userID)})
}

// CheckAction reports whether the caller may perform the action once more.
// Unknown action names are answered with a denied decision.
func (s *Server) CheckAction(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	raw := strings.TrimSpace(c.Param("action"))
	c.Set("usage_action", raw)
	action, err := plandomain.ParseAction(raw)
	if err != nil {
		action = plandomain.ActionType(raw)
	}

	var scopeID *snowflake.ID
	if value := strings.TrimSpace(c.Query("event_id")); value != "" {
		id, err := snowflake.ParseString(value)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		scopeID = &id
	}

	decision := s.resolver.Check(c.Request.Context(), userID, action, scopeID)
	c.JSON(http.StatusOK, gin.H{"data": decision})
}

func (s *Server) ListUsageHistory(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if query.Limit <= 0 {
		query.Limit = defaultHistoryLimit
	}

	entries, err := s.usageSvc.History(c.Request.Context(), userID, query.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
