// Package http contains the fiber request handlers for beacon
// ingestion, reporting, website administration, and authentication.
package http

import (
	"log/slog"

	"gorm.io/gorm"

	"beaconlight/internal/config"
	"beaconlight/internal/database"
)

// Handler carries the shared dependencies every request handler needs.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	dbManager *database.Manager
}

// NewHandler wires a handler set against the shared database manager.
func NewHandler(cfg *config.Config, logger *slog.Logger, dbManager *database.Manager) *Handler {
	return &Handler{cfg: cfg, logger: logger, dbManager: dbManager}
}

func (h *Handler) db() *gorm.DB {
	return h.dbManager.GetConnection()
}
