// Package db opens the gorm connection that backs the record store.
package db

import (
	"fmt"

	"github.com/zulandar/ribbonlog/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the given storage settings.
func DSN(user, host string, port int, database string) string {
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4", user, host, port, database)
}

// Dialector picks the gorm dialector for the configured driver.
func Dialector(sc config.StorageConfig) (gorm.Dialector, error) {
	switch sc.Driver {
	case "sqlite":
		if sc.Path == "" {
			return nil, fmt.Errorf("db: sqlite path is required")
		}
		return sqlite.Open(sc.Path), nil
	case "mysql":
		return mysql.Open(DSN(sc.User, sc.Host, sc.Port, sc.Database)), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", sc.Driver)
	}
}

// LogLevel maps a config log level onto gorm's logger levels.
func LogLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// Connect opens a GORM connection for the configured storage and migrates it.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dial, err := Dialector(cfg.Storage)
	if err != nil {
		return nil, err
	}
	gormDB, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(LogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect %s: %w", describe(cfg.Storage), err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}

// describe names the storage target for error messages without leaking secrets.
func describe(sc config.StorageConfig) string {
	if sc.Driver == "sqlite" {
		return "sqlite " + sc.Path
	}
	return fmt.Sprintf("mysql %s:%d/%s", sc.Host, sc.Port, sc.Database)
}
