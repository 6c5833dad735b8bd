package database

import (
	"fmt"

	"video-coords/server/internal/config"
	logging "video-coords/server/internal/logging"
	"video-coords/server/internal/models"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Open connects GORM to postgres through the lib/pq driver so constraint
// violations surface as *pq.Error.
func Open(log *zap.Logger, dbConf config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logging.NewGormZapLogger(log)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        dbConf.DSN(),
	}), &gorm.Config{
		Logger: gormLogger,
		// Each click is a single INSERT; no wrapping transaction needed.
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Init opens the global DB and runs migrations.
func Init(log *zap.Logger, dbConf config.DatabaseConfig) error {
	db, err := Open(log, dbConf)
	if err != nil {
		return err
	}
	log.Info("Database connection established successfully.")

	if err := Migrate(log, db); err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate creates the ledger tables.
func Migrate(log *zap.Logger, db *gorm.DB) error {
	// AutoMigrate creates tables, columns and the indexes declared in tags.
	err := db.AutoMigrate(
		&models.ComponentMount{},
		&models.ClickRecord{},
	)
	if err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	createdIndex := `CREATE INDEX IF NOT EXISTS idx_click_records_created ON click_records (created_at DESC);`
	if err := db.Exec(createdIndex).Error; err != nil {
		return fmt.Errorf("create index on click_records: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
