// Package repositories holds the GORM persistence layer: connection setup,
// migrations, repositories and the transaction manager.
package repositories

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/lucas-ioliveira/ordering-system/internal/config"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// Open connects to the configured database and tunes the pool.
func Open(cfg config.Database, logger *slog.Logger, debug bool) (*gorm.DB, error) {
	dialector, err := BuildDialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newSlogGormLogger(logger, debug),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "database: open")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "database: get sql.DB")
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "database: ping")
	}
	return db, nil
}

// BuildDialector maps DB_DRIVER to a GORM dialector.
func BuildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, mysql, sqlserver)", driver)
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		return errors.Wrap(err, "database: migrate")
	}
	return nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "database: get sql.DB")
	}
	return sqlDB.Close()
}

// OpenInMemory opens a private, migrated in-memory SQLite database.
func OpenInMemory(logger *slog.Logger) (*gorm.DB, error) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := Open(config.Database{Driver: "sqlite", DSN: dsn}, logger, false)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
