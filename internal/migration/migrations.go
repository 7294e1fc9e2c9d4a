package migration

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"

	"github.com/Additional-Code/ordenes/internal/entity"
)

// orderIndexes back the listing filters and the sort key.
var orderIndexes = []string{
	"order_code",
	"issue_date",
	"expedient_code",
	"order_type",
	"order_number",
	"supplier_name",
	"supplier_tax_id",
	"requester_name",
}

func migrations(db *bun.DB) []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			goFunc(db, createOrders),
			goFunc(db, dropOrders),
		),
	}
}

func createOrders(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*entity.Order)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	for _, col := range orderIndexes {
		_, err := db.NewCreateIndex().
			Model((*entity.Order)(nil)).
			Index("idx_orders_" + col).
			Column(col).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", col, err)
		}
	}
	return nil
}

func dropOrders(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*entity.Order)(nil)).IfExists().Exec(ctx)
	return err
}
