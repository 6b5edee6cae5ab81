package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	limitsdomain "github.com/smallbiznis/eventtria/internal/limits/domain"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	"go.uber.org/zap"
)

type subscriptionResponse struct {
	limitsdomain.Resolution
	TrialAvailable bool `json:"trial_available"`
}

func (s *Server) GetSubscription(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.subscriptionView(c, userID)})
}

func (s *Server) EnsureSubscription(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	if !s.subscriptionSvc.EnsureSubscription(c.Request.Context(), userID) {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"ensured": true}})
}

func (s *Server) ActivateTrial(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	sub, err := s.subscriptionSvc.ActivateTrial(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sub})
}

func (s *Server) AdminGetSubscription(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.subscriptionView(c, userID)})
}

func (s *Server) AdminActivatePlan(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req struct {
		Plan      string    `json:"plan"`
		PeriodEnd time.Time `json:"period_end"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	plan, known := plandomain.ParsePlan(strings.TrimSpace(req.Plan))
	if !known {
		AbortWithError(c, plandomain.ErrUnknownPlan)
		return
	}

	sub, err := s.subscriptionSvc.ActivatePlan(c.Request.Context(), subscriptiondomain.ActivatePlanRequest{
		UserID:    userID,
		Plan:      plan,
		PeriodEnd: req.PeriodEnd,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sub})
}

func (s *Server) AdminCancelSubscription(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	if err := s.subscriptionSvc.Cancel(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": true}})
}

func (s *Server) AdminExpireSubscriptions(c *gin.Context) {
	var (
		expired int64
		err     error
	)
	if s.scheduler != nil {
		expired, err = s.scheduler.RunExpirySweep(c.Request.Context())
	} else {
		expired, err = s.subscriptionSvc.ExpireLapsed(c.Request.Context())
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"expired": expired}})
}

func (s *Server) subscriptionView(c *gin.Context, userID string) subscriptionResponse {
	ctx := c.Request.Context()
	view := subscriptionResponse{Resolution: s.resolver.CurrentLimits(ctx, userID)}

	available, err := s.subscriptionSvc.TrialAvailable(ctx, userID)
	if err != nil {
		s.log.Warn("trial availability lookup failed", zap.String("user_id", userID), zap.Error(err))
	}
	view.TrialAvailable = available
	return view
}
