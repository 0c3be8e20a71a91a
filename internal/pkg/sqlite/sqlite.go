// Package sqlite holds helpers for writing to a shared SQLite database.
package sqlite

import (
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	writeMaxAttempts = 3
	writeRetryDelay  = 100 * time.Millisecond
)

// PerformWrite runs fn inside a transaction, retrying a bounded number
// of times when SQLite reports the database as busy or locked. Any
// error returned by fn rolls the whole transaction back.
func PerformWrite(logger *slog.Logger, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= writeMaxAttempts; attempt++ {
		err = db.Transaction(fn)
		if err == nil {
			return nil
		}
		if !isBusyError(err) {
			return err
		}
		logger.Warn("Write transaction hit busy database, retrying",
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		time.Sleep(writeRetryDelay * time.Duration(attempt))
	}
	return err
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
