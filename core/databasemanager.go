package core

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type LogLevel int

const (
	LogLevelSilent LogLevel = iota + 1
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// DatabaseManager owns the process-wide connection pool. It is created
// once at startup and closed at shutdown; handlers and jobs borrow GORM
// sessions from it instead of opening per-operation connections.
type DatabaseManager struct {
	SqlDB    *sql.DB
	LogLevel LogLevel

	gormDB *gorm.DB
}

// New creates the global pool. dsn must include the schema and
// parseTime=true.
func New(dsn string, maxConnection int) (*DatabaseManager, error) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxConnection)
	sqlDB.SetMaxIdleConns(maxConnection)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping pool: %w", err)
	}

	return &DatabaseManager{SqlDB: sqlDB}, nil
}

// GetDB returns a GORM session backed by the shared pool.
func (dm *DatabaseManager) GetDB() (*gorm.DB, error) {
	if dm.gormDB != nil {
		return dm.gormDB.Session(&gorm.Session{Logger: dm.gormLogger()}), nil
	}

	dialector := mysql.New(mysql.Config{
		Conn: dm.SqlDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: dm.gormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	dm.gormDB = db
	return db, nil
}

func (dm *DatabaseManager) gormLogger() logger.Interface {
	gormLogLevel := logger.Silent
	switch dm.LogLevel {
	case LogLevelError:
		gormLogLevel = logger.Error
	case LogLevelWarn:
		gormLogLevel = logger.Warn
	case LogLevelInfo:
		gormLogLevel = logger.Info
	case LogLevelSilent:
		gormLogLevel = logger.Silent
	}
	return logger.Default.LogMode(gormLogLevel)
}

// Exec runs fn against a pooled GORM session.
func (dm *DatabaseManager) Exec(fn func(db *gorm.DB) error) error {
	db, err := dm.GetDB()
	if err != nil {
		return err
	}
	return fn(db)
}

// Close closes the global pool.
func (dm *DatabaseManager) Close() error {
	return dm.SqlDB.Close()
}
