package db

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"etldash/internal/config"
)

// Connect opens a GORM database connection. A postgres:// or
// postgresql:// APP_DATABASE_URL selects the PostgreSQL driver; anything
// else (including the empty default) is treated as a SQLite file path,
// defaulting to <data dir>/business_data.db.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)

	var db *gorm.DB
	var err error
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
		// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	} else {
		path := dsn
		if path == "" {
			path = filepath.Join(cfg.DataDir, "business_data.db")
		}
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, mkErr
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	}
	if err != nil {
		return nil, err
	}

	// Auto-migrate the raw and bookkeeping tables. The derived tables
	// (daily_sales, category_sales, product_analytics) are deliberately
	// not created here: they come into existence on the first pipeline
	// run, and their absence is how the query layer detects that the
	// pipeline has never run.
	if err := db.AutoMigrate(&RawSale{}, &RawReview{}, &PipelineRun{}, &InsightReport{}); err != nil {
		return nil, err
	}

	return db, nil
}
