package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eventtria/internal/clock"
	"github.com/smallbiznis/eventtria/internal/observability/logger"
	"github.com/smallbiznis/eventtria/internal/observability/metrics"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	"github.com/smallbiznis/eventtria/internal/usercontext"
	"github.com/smallbiznis/eventtria/pkg/rls"
	"github.com/smallbiznis/eventtria/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	metrics  *metrics.Metrics
	repo     usagedomain.Repository
	registry *usagedomain.Registry
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
	Repo    usagedomain.Repository
}

func NewService(p ServiceParam) (usagedomain.Service, error) {
	registry, err := DefaultRegistry(p.Repo)
	if err != nil {
		return nil, err
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("usage.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		metrics:  p.Metrics,
		repo:     p.Repo,
		registry: registry,
	}, nil
}

// DefaultRegistry wires one counter per metered action onto repo.
func DefaultRegistry(repo usagedomain.Repository) (*usagedomain.Registry, error) {
	registry := usagedomain.NewRegistry()
	counters := map[plandomain.ActionType]usagedomain.Counter{
		plandomain.ActionEventsCreated:  repo.CountEvents,
		plandomain.ActionInvitePeople:   repo.CountInvites,
		plandomain.ActionAIChatMessages: repo.CountChatMessages,
	}
	for _, action := range plandomain.Actions() {
		if err := registry.Register(action, counters[action]); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// GetUsage implements domain.Service.
func (s *Service) GetUsage(ctx context.Context, userID string, action plandomain.ActionType, scopeID *snowflake.ID) (int64, error) {
	userID, ok := usercontext.Normalize(userID)
	if !ok {
		return 0, usagedomain.ErrInvalidUserID
	}
	if !action.Valid() {
		return 0, plandomain.ErrUnknownAction
	}

	counter, ok := s.registry.Counter(action)
	if !ok {
		return 0, fmt.Errorf("%w: %s", usagedomain.ErrNoCounter, action)
	}

	q := usagedomain.Query{UserID: userID, Action: action, ScopeID: scopeID}
	var count int64
	err := rls.Transaction(ctx, s.db, userID, func(tx *gorm.DB) error {
		var err error
		count, err = counter(ctx, tx, q)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", action, err)
	}
	return count, nil
}

// RecordUsage implements domain.Service.
func (s *Service) RecordUsage(ctx context.Context, req usagedomain.RecordUsageRequest) error {
	userID, ok := usercontext.Normalize(req.UserID)
	if !ok {
		return usagedomain.ErrInvalidUserID
	}
	if !req.Action.Valid() {
		return plandomain.ErrUnknownAction
	}
	if req.Delta == 0 {
		return usagedomain.ErrInvalidDelta
	}

	ctx, cid := correlation.EnsureCorrelationID(ctx)
	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	for k, v := range correlation.Metadata(ctx) {
		if k != "correlation_id" {
			metadata[k] = v
		}
	}

	entry := &usagedomain.LedgerEntry{
		ID:            s.genID.Generate(),
		UserID:        userID,
		Action:        req.Action,
		ScopeID:       req.ScopeID,
		Delta:         req.Delta,
		CorrelationID: cid,
		Metadata:      metadata,
		RecordedAt:    s.clock.Now(),
	}
	if err := s.repo.InsertLedgerEntry(ctx, s.db, entry); err != nil {
		logger.WithContext(ctx, s.log).Error("record usage",
			zap.String("user_id", userID),
			zap.String("action", string(req.Action)),
			zap.Error(err),
		)
		return err
	}

	s.metrics.RecordUsage(ctx, string(req.Action), req.Delta)
	return nil
}

// History implements domain.Service.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]usagedomain.LedgerEntry, error) {
	userID, ok := usercontext.Normalize(userID)
	if !ok {
		return nil, usagedomain.ErrInvalidUserID
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.repo.ListLedger(ctx, s.db, userID, limit)
}
