package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eventtria/internal/account"
	"github.com/smallbiznis/eventtria/internal/auth"
	"github.com/smallbiznis/eventtria/internal/authorization"
	"github.com/smallbiznis/eventtria/internal/clock"
	"github.com/smallbiznis/eventtria/internal/config"
	"github.com/smallbiznis/eventtria/internal/event"
	"github.com/smallbiznis/eventtria/internal/limits"
	"github.com/smallbiznis/eventtria/internal/migration"
	"github.com/smallbiznis/eventtria/internal/observability"
	"github.com/smallbiznis/eventtria/internal/plan"
	"github.com/smallbiznis/eventtria/internal/ratelimit"
	"github.com/smallbiznis/eventtria/internal/scheduler"
	"github.com/smallbiznis/eventtria/internal/server"
	"github.com/smallbiznis/eventtria/internal/subscription"
	"github.com/smallbiznis/eventtria/internal/usage"
	"github.com/smallbiznis/eventtria/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		account.Module,
		plan.Module,
		subscription.Module,
		usage.Module,
		limits.Module,
		ratelimit.Module,
		event.Module,
		auth.Module,
		authorization.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
