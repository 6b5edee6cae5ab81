package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	accountdomain "github.com/smallbiznis/eventtria/internal/account/domain"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded PostgreSQL migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table owned by the service, for dialects that are
// migrated with gorm instead of SQL files.
func Models() []interface{} {
	return []interface{}{
		&plandomain.SubscriptionPlan{},
		&subscriptiondomain.UserSubscription{},
		&accountdomain.AccountStatus{},
		&eventdomain.Event{},
		&eventdomain.EventInvite{},
		&eventdomain.ChatMessage{},
		&usagedomain.LedgerEntry{},
	}
}

// AutoMigrate creates the schema through gorm.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
