package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"beaconlight/internal/pkg/sqlite"
	"beaconlight/internal/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginAction verifies credentials, issues a session token, and records
// the login in the audit trail.
func (h *Handler) LoginAction(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return failureResponse(c, messageWentWrong)
	}

	user, err := users.Authenticate(h.db(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.logger.Warn("Rejected login", slog.String("email", req.Email))
			return unauthorizedResponse(c)
		}
		h.logger.Error("Failed to authenticate user", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}

	ttl := time.Duration(h.cfg.TokenTimeoutSecs) * time.Second
	token, err := users.IssueToken(user, h.cfg.PrivateKey, ttl)
	if err != nil {
		h.logger.Error("Failed to issue session token", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}

	err = sqlite.PerformWrite(h.logger, h.db(), func(tx *gorm.DB) error {
		return users.AppendLog(tx, user.ID, users.ActionLoggedIn)
	})
	if err != nil {
		h.logger.Error("Failed to record login", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}

	h.setSessionCookie(c, token, ttl)
	h.logger.Info("User logged in", slog.String("user_id", user.ID))
	return dataResponse(c, "Logged in", fiber.Map{
		"token": token,
		"user":  user,
	})
}

// LogoutAction clears the session cookie. Tokens are not revocable
// server-side, expiry bounds their remaining lifetime.
func (h *Handler) LogoutAction(c *fiber.Ctx) error {
	h.clearSessionCookie(c)
	return dataResponse(c, "Logged out", nil)
}
