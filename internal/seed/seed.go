package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	planrepository "github.com/smallbiznis/eventtria/internal/plan/repository"
	"gorm.io/gorm"
)

// EnsurePlans upserts every catalogue plan so subscriptions can reference it.
// Running it repeatedly refreshes limits and flags in place.
func EnsurePlans(ctx context.Context, db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	repo := planrepository.Provide()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ls := range plandomain.Catalogue() {
			row := plandomain.NewSubscriptionPlan(node.Generate(), ls)
			if err := repo.Upsert(ctx, tx, &row); err != nil {
				return fmt.Errorf("seed plan %q: %w", ls.Plan, err)
			}
		}
		return nil
	})
}
