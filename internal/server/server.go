package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/eventtria/internal/auth"
	"github.com/smallbiznis/eventtria/internal/authorization"
	"github.com/smallbiznis/eventtria/internal/config"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	limitsdomain "github.com/smallbiznis/eventtria/internal/limits/domain"
	"github.com/smallbiznis/eventtria/internal/observability"
	obsmiddleware "github.com/smallbiznis/eventtria/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/eventtria/internal/observability/metrics"
	obstracing "github.com/smallbiznis/eventtria/internal/observability/tracing"
	"github.com/smallbiznis/eventtria/internal/scheduler"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())
	return r
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	db     *gorm.DB
	log    *zap.Logger

	authProvider    auth.Provider
	authzSvc        authorization.Service
	subscriptionSvc subscriptiondomain.Service
	usageSvc        usagedomain.Service
	resolver        limitsdomain.Resolver
	eventSvc        eventdomain.Service
	scheduler       *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	DB              *gorm.DB
	Log             *zap.Logger
	AuthProvider    auth.Provider
	AuthzSvc        authorization.Service
	SubscriptionSvc subscriptiondomain.Service
	UsageSvc        usagedomain.Service
	Resolver        limitsdomain.Resolver
	EventSvc        eventdomain.Service
	Scheduler       *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		authProvider:    p.AuthProvider,
		authzSvc:        p.AuthzSvc,
		subscriptionSvc: p.SubscriptionSvc,
		usageSvc:        p.UsageSvc,
		resolver:        p.Resolver,
		eventSvc:        p.EventSvc,
		scheduler:       p.Scheduler,
	}
	svc.registerPublicRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	s.engine.GET("/health", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/api/plans", s.ListPlans)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Subscription --------
	api.GET("/subscription", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionView), s.GetSubscription)
	api.POST("/subscription/ensure", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionView), s.EnsureSubscription)
	api.POST("/subscription/trial", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionTrial), s.ActivateTrial)

	// -------- Usage --------
	api.GET("/usage", s.authorize(authorization.ObjectUsage, authorization.ActionUsageView), s.GetUsageSummary)
	api.GET("/usage/history", s.authorize(authorization.ObjectUsage, authorization.ActionUsageView), s.ListUsageHistory)
	api.GET("/usage/:action", s.authorize(authorization.ObjectUsage, authorization.ActionUsageView), s.CheckAction)

	// -------- Events --------
	api.GET("/events", s.authorize(authorization.ObjectEvent, authorization.ActionEventView), s.ListEvents)
	api.POST("/events", s.authorize(authorization.ObjectEvent, authorization.ActionEventCreate), s.CreateEvent)
	api.GET("/events/:id", s.authorize(authorization.ObjectEvent, authorization.ActionEventView), s.GetEvent)
	api.POST("/events/:id/cancel", s.authorize(authorization.ObjectEvent, authorization.ActionEventCancel), s.CancelEvent)
	api.POST("/events/:id/invites", s.authorize(authorization.ObjectEvent, authorization.ActionEventInvite), s.InviteAttendees)

	// -------- Chat --------
	api.POST("/chat/messages", s.authorize(authorization.ObjectChat, authorization.ActionChatPost), s.PostChatMessage)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AuthRequired())

	admin.GET("/users/:userId/subscription", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionViewAny), s.AdminGetSubscription)
	admin.POST("/users/:userId/subscription/activate", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionActivate), s.AdminActivatePlan)
	admin.POST("/users/:userId/subscription/cancel", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionCancel), s.AdminCancelSubscription)
	admin.GET("/users/:userId/usage", s.authorize(authorization.ObjectUsage, authorization.ActionUsageViewAny), s.AdminGetUsage)
	admin.POST("/subscriptions/expire", s.authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionExpire), s.AdminExpireSubscriptions)
}

func (s *Server) Health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.log.Warn("health check database ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
