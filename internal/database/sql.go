package database

import (
	"fmt"

	"github.com/colib/colib-backend/internal/repository/sqlstore"
	"github.com/colib/colib-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectSQL opens a GORM connection for the postgres or sqlite driver and
// migrates the schema.
func ConnectSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; a single connection keeps transactions serialized.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlstore.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Log.WithField("driver", driver).Info("Connected to SQL database")
	return db, nil
}
