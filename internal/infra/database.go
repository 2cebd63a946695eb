package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/uid0/openmakersuite/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies any idempotent SQL patches that GORM
// cannot express (partial indexes in particular).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations brings the schema up to date. Also used by integration tests
// against a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Location{},
		&model.Supplier{},
		&model.Item{},
		&model.SupplierLink{},
		&model.PriceHistoryEntry{},
		&model.ReorderRequest{},
		&model.UsageLog{},
		&model.StockMovement{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that GORM AutoMigrate cannot express.
// Each statement is guarded by an existence check so re-running on an
// already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one active reorder request per item. The service checks
		// under a row lock before inserting; this index is the backstop for
		// writers that race past the check.
		{"partial unique index on active reorder requests", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_reorder_requests_one_active') THEN
    CREATE UNIQUE INDEX idx_reorder_requests_one_active
        ON reorder_requests (item_id)
        WHERE status IN ('pending', 'approved', 'ordered');
  END IF;
END $$`},
		// Ledger reads are always newest-first per link.
		{"price history ledger read index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_price_history_link_recorded') THEN
    CREATE INDEX idx_price_history_link_recorded
        ON price_history (supplier_link_id, recorded_at DESC);
  END IF;
END $$`},
		// At most one primary supplier link per item.
		{"partial unique index on primary supplier links", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_supplier_links_one_primary') THEN
    CREATE UNIQUE INDEX idx_supplier_links_one_primary
        ON supplier_links (item_id)
        WHERE is_primary;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
