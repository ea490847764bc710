package infra

import (
	"fmt"

	"partdepot/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies idempotent SQL patches that GORM cannot express.
// TranslateError is enabled so a part-number collision surfaces as
// gorm.ErrDuplicatedKey and the create path can retry.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
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

// RunMigrations creates/updates the schema. Also used by integration tests
// against a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Part{}); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is safe to re-run on an already-patched schema.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Case-insensitive name search used by the list and lookup flows.
		`CREATE INDEX IF NOT EXISTS idx_parts_name_lower ON parts (lower(name))`,
		// The location filter dropdown reads distinct locations frequently.
		`CREATE INDEX IF NOT EXISTS idx_parts_location ON parts (location)`,
		// Histories written before the Go rewrite may be NULL rather than [].
		`UPDATE parts SET quantity_history = '[]'::jsonb WHERE quantity_history IS NULL`,
		`UPDATE parts SET location_history = '[]'::jsonb WHERE location_history IS NULL`,
		`UPDATE parts SET events_history = '[]'::jsonb WHERE events_history IS NULL`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
