// Package database owns the single shared SQLite connection used by
// every request handler. It is initialized once at process start and
// released at shutdown; handlers never open connections of their own.
package database

import (
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"beaconlight/internal/config"
	"beaconlight/internal/users"
	"beaconlight/internal/visits"
	"beaconlight/internal/websites"
)

// Manager wraps the shared gorm connection with lifecycle and
// migration methods.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	mu sync.RWMutex
	db *gorm.DB
}

// NewManager creates a database manager for the configured SQLite file.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// NewManagerWithConnection wraps an already-open connection. Intended
// for tests running against in-memory databases.
func NewManagerWithConnection(cfg *config.Config, logger *slog.Logger, db *gorm.DB) *Manager {
	return &Manager{cfg: cfg, logger: logger, db: db}
}

// Connect opens the database connection and applies pool settings.
func (m *Manager) Connect() (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", m.cfg.DatabaseName)

	gormLogLevel := gormlogger.Silent
	if m.cfg.IsDevelopment() {
		gormLogLevel = gormlogger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", m.cfg.DatabaseName, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(m.cfg.GetMaxIdleConns())

	m.db = db
	m.logger.Info("Database connection established",
		slog.String("path", m.cfg.DatabaseName),
		slog.Int("max_open_conns", m.cfg.GetMaxOpenConns()))
	return db, nil
}

// GetConnection returns the shared connection. Connect must have been
// called first.
func (m *Manager) GetConnection() *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	m.db = nil
	return sqlDB.Close()
}

// AllModels returns every persisted model, in migration order.
func AllModels() []any {
	return []any{
		&websites.Website{},
		&users.User{},
		&users.Log{},
		&visits.Visit{},
		&visits.PageView{},
	}
}

// MigrateDatabase runs schema migrations.
func (m *Manager) MigrateDatabase() error {
	db := m.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(AllModels()...)
	})
	if err != nil {
		m.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	m.logger.Info("Database migration completed successfully")
	return nil
}
