package authorization

import (
	"context"
	"errors"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Actor is the caller being authorized.
type Actor struct {
	ID   string
	Role string
}

// SystemActor is used by background jobs.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

type Service interface {
	Authorize(ctx context.Context, actor Actor, object string, action string) error
}
