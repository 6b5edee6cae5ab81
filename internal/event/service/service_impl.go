package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/eventtria/internal/clock"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	limitsdomain "github.com/smallbiznis/eventtria/internal/limits/domain"
	"github.com/smallbiznis/eventtria/internal/observability/logger"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	"github.com/smallbiznis/eventtria/internal/ratelimit"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	"github.com/smallbiznis/eventtria/internal/usercontext"
	"github.com/smallbiznis/eventtria/pkg/db/pagination"
	"github.com/smallbiznis/eventtria/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTitleLength    = 200
	maxMessageLength  = 4000
	maxInvitesPerCall = 500
	inviteEmailRule   = "required,email,max=254"
	defaultPageSize   = 10
	maxPageSize       = 250
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	repo     eventdomain.Repository
	resolver limitsdomain.Resolver
	limiter  *ratelimit.ActionLimiter
	validate *validator.Validate
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     eventdomain.Repository
	Resolver limitsdomain.Resolver
	Limiter  *ratelimit.ActionLimiter `optional:"true"`
}

func NewService(p ServiceParam) eventdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("event.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		resolver: p.Resolver,
		limiter:  p.Limiter,
		validate: validator.New(),
	}
}

// CreateEvent implements domain.Service.
func (s *Service) CreateEvent(ctx context.Context, req eventdomain.CreateEventRequest) (*eventdomain.Event, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return nil, eventdomain.ErrInvalidTitle
	}

	status := eventdomain.EventStatusDraft
	if req.Publish {
		status = eventdomain.EventStatusPublished
	}

	id := s.genID.Generate()
	ev := &eventdomain.Event{
		ID:          id,
		OrganizerID: userID,
		Title:       title,
		Slug:        eventSlug(title, id),
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		StartsAt:    req.StartsAt,
	}

	err = s.gated(ctx, userID, plandomain.ActionEventsCreated, func(ctx context.Context) error {
		decision := s.resolver.Check(ctx, userID, plandomain.ActionEventsCreated, nil)
		if err := decision.Err(); err != nil {
			return err
		}
		return s.withUser(ctx, userID, func(tx *gorm.DB) error {
			return s.repo.InsertEvent(ctx, tx, ev)
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordUsage(ctx, usagedomain.RecordUsageRequest{
		UserID:   userID,
		Action:   plandomain.ActionEventsCreated,
		ScopeID:  &ev.ID,
		Delta:    1,
		Metadata: map[string]interface{}{"slug": ev.Slug},
	})
	return ev, nil
}

// CancelEvent implements domain.Service.
func (s *Service) CancelEvent(ctx context.Context, userID string, eventID snowflake.ID) (*eventdomain.Event, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	var (
		out     *eventdomain.Event
		changed bool
	)
	err = s.withUser(ctx, userID, func(tx *gorm.DB) error {
		ev, err := s.repo.FindEvent(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}
		if ev == nil {
			return eventdomain.ErrEventNotFound
		}
		changed, err = s.repo.UpdateEventStatus(ctx, tx, userID, eventID, eventdomain.EventStatusCancelled)
		if err != nil {
			return err
		}
		out, err = s.repo.FindEvent(ctx, tx, userID, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.recordUsage(ctx, usagedomain.RecordUsageRequest{
			UserID:   userID,
			Action:   plandomain.ActionEventsCreated,
			ScopeID:  &eventID,
			Delta:    -1,
			Metadata: map[string]interface{}{"reason": "event_cancelled"},
		})
	}
	return out, nil
}

// GetEvent implements domain.Service.
func (s *Service) GetEvent(ctx context.Context, userID string, eventID snowflake.ID) (*eventdomain.Event, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	var ev *eventdomain.Event
	err = s.withUser(ctx, userID, func(tx *gorm.DB) error {
		var err error
		ev, err = s.repo.FindEvent(ctx, tx, userID, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, eventdomain.ErrEventNotFound
	}
	return ev, nil
}

// ListEvents implements domain.Service.
func (s *Service) ListEvents(ctx context.Context, req eventdomain.ListEventsRequest) (eventdomain.ListEventsResponse, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return eventdomain.ListEventsResponse{}, err
	}

	size := req.PageSize
	switch {
	case size <= 0:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}

	filter := eventdomain.ListFilter{
		OrganizerID:      userID,
		IncludeCancelled: req.IncludeCancelled,
		Limit:            size,
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return eventdomain.ListEventsResponse{}, eventdomain.ErrInvalidPageToken
		}
		before, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return eventdomain.ListEventsResponse{}, eventdomain.ErrInvalidPageToken
		}
		filter.BeforeID = &before
	}

	var rows []*eventdomain.Event
	err = s.withUser(ctx, userID, func(tx *gorm.DB) error {
		var err error
		rows, err = s.repo.ListEvents(ctx, tx, filter)
		return err
	})
	if err != nil {
		return eventdomain.ListEventsResponse{}, err
	}

	pageInfo, err := pagination.BuildCursorPageInfo(rows, int32(size), func(ev *eventdomain.Event) (string, error) {
		return pagination.EncodeCursor(pagination.Cursor{ID: ev.ID.String()})
	})
	if err != nil {
		return eventdomain.ListEventsResponse{}, fmt.Errorf("encode page token: %w", err)
	}
	if len(rows) > size {
		rows = rows[:size]
	}

	events := make([]eventdomain.Event, 0, len(rows))
	for _, ev := range rows {
		events = append(events, *ev)
	}
	return eventdomain.ListEventsResponse{PageInfo: *pageInfo, Events: events}, nil
}

// InviteAttendees implements domain.Service.
func (s *Service) InviteAttendees(ctx context.Context, req eventdomain.InviteRequest) (eventdomain.InviteResult, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return eventdomain.InviteResult{}, err
	}
	emails, err := s.normalizeEmails(req.Emails)
	if err != nil {
		return eventdomain.InviteResult{}, err
	}

	ev, err := s.GetEvent(ctx, userID, req.EventID)
	if err != nil {
		return eventdomain.InviteResult{}, err
	}
	if ev.Status == eventdomain.EventStatusCancelled {
		return eventdomain.InviteResult{}, eventdomain.ErrEventCancelled
	}

	var result eventdomain.InviteResult
	scope := ev.ID
	err = s.gated(ctx, userID, plandomain.ActionInvitePeople, func(ctx context.Context) error {
		var existing []string
		err := s.withUser(ctx, userID, func(tx *gorm.DB) error {
			var err error
			existing, err = s.repo.ExistingInviteEmails(ctx, tx, ev.ID, emails)
			return err
		})
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(existing))
		for _, email := range existing {
			seen[email] = struct{}{}
		}

		invites := make([]eventdomain.EventInvite, 0, len(emails))
		result.Skipped = make([]string, 0)
		for _, email := range emails {
			if _, ok := seen[email]; ok {
				result.Skipped = append(result.Skipped, email)
				continue
			}
			invites = append(invites, eventdomain.EventInvite{
				ID:        s.genID.Generate(),
				EventID:   ev.ID,
				InviterID: userID,
				Email:     email,
				Status:    eventdomain.InviteStatusPending,
			})
		}
		if len(invites) == 0 {
			result.Invited = []eventdomain.EventInvite{}
			return nil
		}

		decision := s.resolver.Check(ctx, userID, plandomain.ActionInvitePeople, &scope)
		if err := decision.Err(); err != nil {
			return err
		}
		if !decision.Fits(int64(len(invites))) {
			return &limitsdomain.QuotaError{
				Action: plandomain.ActionInvitePeople,
				Plan:   decision.Plan,
				Limit:  decision.Limit,
				Used:   decision.Used,
			}
		}

		return s.withUser(ctx, userID, func(tx *gorm.DB) error {
			inserted, err := s.repo.InsertInvites(ctx, tx, invites)
			if err != nil {
				return err
			}
			if inserted == int64(len(invites)) {
				result.Invited = invites
				return nil
			}

			// some addresses were invited concurrently; report them as skipped
			stored, err := s.repo.InvitesByIDs(ctx, tx, inviteIDs(invites))
			if err != nil {
				return err
			}
			kept := make(map[snowflake.ID]struct{}, len(stored))
			for _, inv := range stored {
				kept[inv.ID] = struct{}{}
			}
			result.Invited = make([]eventdomain.EventInvite, 0, len(stored))
			for _, inv := range invites {
				if _, ok := kept[inv.ID]; ok {
					result.Invited = append(result.Invited, inv)
				} else {
					result.Skipped = append(result.Skipped, inv.Email)
				}
			}
			return nil
		})
	})
	if err != nil {
		return eventdomain.InviteResult{}, err
	}

	if n := int64(len(result.Invited)); n > 0 {
		s.recordUsage(ctx, usagedomain.RecordUsageRequest{
			UserID:   userID,
			Action:   plandomain.ActionInvitePeople,
			ScopeID:  &scope,
			Delta:    n,
			Metadata: map[string]interface{}{"skipped": len(result.Skipped)},
		})
	}
	return result, nil
}

// PostChatMessage implements domain.Service. Only the user's message is
// stored; generating the assistant reply happens elsewhere.
func (s *Service) PostChatMessage(ctx context.Context, req eventdomain.ChatMessageRequest) (*eventdomain.ChatMessage, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" || utf8.RuneCountInString(content) > maxMessageLength {
		return nil, eventdomain.ErrInvalidMessage
	}
	if req.EventID != nil {
		if _, err := s.GetEvent(ctx, userID, *req.EventID); err != nil {
			return nil, err
		}
	}

	msg := &eventdomain.ChatMessage{
		ID:      s.genID.Generate(),
		UserID:  userID,
		EventID: req.EventID,
		Role:    eventdomain.ChatRoleUser,
		Content: content,
	}
	err = s.gated(ctx, userID, plandomain.ActionAIChatMessages, func(ctx context.Context) error {
		decision := s.resolver.Check(ctx, userID, plandomain.ActionAIChatMessages, req.EventID)
		if err := decision.Err(); err != nil {
			return err
		}
		return s.withUser(ctx, userID, func(tx *gorm.DB) error {
			return s.repo.InsertChatMessage(ctx, tx, msg)
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordUsage(ctx, usagedomain.RecordUsageRequest{
		UserID:  userID,
		Action:  plandomain.ActionAIChatMessages,
		ScopeID: req.EventID,
		Delta:   1,
	})
	return msg, nil
}

// gated throttles and serializes fn for one (user, action) pair.
func (s *Service) gated(ctx context.Context, userID string, action plandomain.ActionType, fn func(context.Context) error) error {
	if _, err := s.limiter.Allow(ctx, userID, string(action)); err != nil {
		return err
	}
	return s.limiter.Serialize(ctx, userID, string(action), fn)
}

func (s *Service) withUser(ctx context.Context, userID string, fn func(tx *gorm.DB) error) error {
	return rls.Transaction(ctx, s.db, userID, fn)
}

// recordUsage appends to the ledger. The row already exists, so a ledger
// failure is logged and not returned.
func (s *Service) recordUsage(ctx context.Context, req usagedomain.RecordUsageRequest) {
	if err := s.resolver.RecordUsage(ctx, req); err != nil {
		logger.WithContext(ctx, s.log).Warn("record usage failed",
			zap.String("user_id", req.UserID),
			zap.String("action", string(req.Action)),
			zap.Int64("delta", req.Delta),
			zap.Error(err),
		)
	}
}

func eventSlug(title string, id snowflake.ID) string {
	base := slug.Make(title)
	if base == "" {
		base = "event"
	}
	if len(base) > 80 {
		base = strings.Trim(base[:80], "-")
	}
	return base + "-" + id.Base36()
}

func (s *Service) normalizeEmails(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, eventdomain.ErrEmptyInviteList
	}
	if len(raw) > maxInvitesPerCall {
		return nil, fmt.Errorf("%w: at most %d addresses per request", eventdomain.ErrInvalidEmail, maxInvitesPerCall)
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, candidate := range raw {
		email := strings.ToLower(strings.TrimSpace(candidate))
		if email == "" {
			continue
		}
		if err := s.validate.Var(email, inviteEmailRule); err != nil {
			return nil, fmt.Errorf("%w: %q", eventdomain.ErrInvalidEmail, candidate)
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	if len(out) == 0 {
		return nil, eventdomain.ErrEmptyInviteList
	}
	return out, nil
}

func inviteIDs(invites []eventdomain.EventInvite) []snowflake.ID {
	out := make([]snowflake.ID, 0, len(invites))
	for _, inv := range invites {
		out = append(out, inv.ID)
	}
	return out
}

func normalizeUserID(raw string) (string, error) {
	userID, ok := usercontext.Normalize(raw)
	if !ok {
		return "", eventdomain.ErrInvalidUserID
	}
	return userID, nil
}
