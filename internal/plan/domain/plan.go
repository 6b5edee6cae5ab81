package domain

import (
	"errors"
	"strings"
)

// Plan is the closed set of subscription tiers.
type Plan string

const (
	PlanFree          Plan = "Free"
	PlanSmallEventOrg Plan = "Small Event Org"
	PlanLargeEventOrg Plan = "Large Event Org"
)

// TrialPlan is the tier granted by a trial activation.
const TrialPlan = PlanSmallEventOrg

// Unlimited marks a limit with no cap.
const Unlimited int64 = -1

// ActionType is a category of metered user action.
type ActionType string

const (
	ActionEventsCreated  ActionType = "events_created"
	ActionInvitePeople   ActionType = "invite_people"
	ActionAIChatMessages ActionType = "ai_chat_messages"
)

var (
	ErrUnknownPlan   = errors.New("unknown_plan")
	ErrUnknownAction = errors.New("unknown_action")
)

// Actions lists every metered action in display order.
func Actions() []ActionType {
	return []ActionType{ActionEventsCreated, ActionInvitePeople, ActionAIChatMessages}
}

// Plans lists every tier from lowest to highest.
func Plans() []Plan {
	return []Plan{PlanFree, PlanSmallEventOrg, PlanLargeEventOrg}
}

func (p Plan) String() string { return string(p) }

// Code is the snake_case identifier used in URLs and config.
func (p Plan) Code() string {
	return strings.ReplaceAll(strings.ToLower(string(p)), " ", "_")
}

func (p Plan) Valid() bool {
	_, ok := catalogue[p]
	return ok
}

func (a ActionType) Valid() bool {
	switch a {
	case ActionEventsCreated, ActionInvitePeople, ActionAIChatMessages:
		return true
	default:
		return false
	}
}

// ParseAction validates a raw action name.
func ParseAction(raw string) (ActionType, error) {
	action := ActionType(strings.ToLower(strings.TrimSpace(raw)))
	if !action.Valid() {
		return "", ErrUnknownAction
	}
	return action, nil
}

// Flags are the boolean features bundled with a plan.
type Flags struct {
	FastAIAccess    bool `json:"fast_ai_access"`
	PrioritySupport bool `json:"priority_support"`
}

// LimitSet is the resolved limits and flags of one plan.
type LimitSet struct {
	Plan   Plan                 `json:"plan"`
	Limits map[ActionType]int64 `json:"limits"`
	Flags  Flags                `json:"flags"`
}

// Limit returns the cap for action and whether the action is metered at all.
func (l LimitSet) Limit(action ActionType) (int64, bool) {
	limit, ok := l.Limits[action]
	return limit, ok
}

// IsUnlimited reports whether action has no cap under this plan.
func (l LimitSet) IsUnlimited(action ActionType) bool {
	limit, ok := l.Limits[action]
	return ok && limit == Unlimited
}

var catalogue = map[Plan]LimitSet{
	PlanFree: {
		Plan: PlanFree,
		Limits: map[ActionType]int64{
			ActionEventsCreated:  10,
			ActionInvitePeople:   100,
			ActionAIChatMessages: 20,
		},
	},
	PlanSmallEventOrg: {
		Plan: PlanSmallEventOrg,
		Limits: map[ActionType]int64{
			ActionEventsCreated:  50,
			ActionInvitePeople:   1000,
			ActionAIChatMessages: 200,
		},
		Flags: Flags{FastAIAccess: true},
	},
	PlanLargeEventOrg: {
		Plan: PlanLargeEventOrg,
		Limits: map[ActionType]int64{
			ActionEventsCreated:  Unlimited,
			ActionInvitePeople:   Unlimited,
			ActionAIChatMessages: Unlimited,
		},
		Flags: Flags{FastAIAccess: true, PrioritySupport: true},
	},
}

// ParsePlan matches a stored plan name against the catalogue. Matching ignores
// case, surrounding whitespace and accepts the snake_case code.
func ParsePlan(name string) (Plan, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", false
	}
	for _, p := range Plans() {
		if normalized == strings.ToLower(string(p)) || normalized == p.Code() {
			return p, true
		}
	}
	return "", false
}

// ResolveLimits returns the limits of the named plan. Names outside the
// catalogue resolve to Free.
func ResolveLimits(name string) LimitSet {
	p, ok := ParsePlan(name)
	if !ok {
		p = PlanFree
	}
	return LimitsFor(p)
}

// LimitsFor returns a copy of the catalogue entry for p, Free when p is invalid.
func LimitsFor(p Plan) LimitSet {
	entry, ok := catalogue[p]
	if !ok {
		entry = catalogue[PlanFree]
	}
	limits := make(map[ActionType]int64, len(entry.Limits))
	for action, limit := range entry.Limits {
		limits[action] = limit
	}
	return LimitSet{Plan: entry.Plan, Limits: limits, Flags: entry.Flags}
}

// Catalogue returns every plan's limits ordered from lowest to highest tier.
func Catalogue() []LimitSet {
	out := make([]LimitSet, 0, len(catalogue))
	for _, p := range Plans() {
		out = append(out, LimitsFor(p))
	}
	return out
}
