package users

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions recorded against a principal.
const (
	ActionCreatedWebsite = "CREATED_NEW_WEBSITE"
	ActionLoggedIn       = "LOGGED_IN"
)

// Log is one audit trail entry for a privileged action.
type Log struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Action    string    `gorm:"not null" json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a uuid primary key when none is set.
func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// AppendLog records an audit entry for the given principal. It accepts
// a transaction so the entry commits atomically with the action it
// records.
func AppendLog(tx *gorm.DB, userID, action string) error {
	entry := Log{
		UserID:    userID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	return tx.Create(&entry).Error
}

// LogsForUser returns the audit entries recorded for a principal,
// newest first.
func LogsForUser(db *gorm.DB, userID string) ([]Log, error) {
	var logs []Log
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&logs).Error
	return logs, err
}
