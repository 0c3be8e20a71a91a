package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"beaconlight/internal/users"
)

// TokenCookieName is the cookie carrying the session token.
const TokenCookieName = "beaconlight_token"

const currentUserKey = "currentUser"

// Authenticate resolves the request's principal from the session cookie
// or a bearer token and stores it in the request locals. Requests
// without a valid token pass through unauthenticated; each handler
// decides whether a principal is required.
func (h *Handler) Authenticate(c *fiber.Ctx) error {
	tokenString := extractToken(c)
	if tokenString == "" {
		return c.Next()
	}

	claims, err := users.ValidateToken(tokenString, h.cfg.PrivateKey)
	if err != nil {
		h.logger.Debug("Rejected invalid session token", slog.Any("error", err))
		return c.Next()
	}

	user, err := users.FindByID(h.db(), claims.UserID)
	if err != nil {
		h.logger.Debug("Session token references unknown user",
			slog.String("user_id", claims.UserID))
		return c.Next()
	}

	c.Locals(currentUserKey, user)
	return c.Next()
}

// CurrentUser returns the authenticated principal, or nil when the
// request carries no valid session.
func CurrentUser(c *fiber.Ctx) *users.User {
	user, ok := c.Locals(currentUserKey).(*users.User)
	if !ok {
		return nil
	}
	return user
}

// extractToken prefers the session cookie and falls back to an
// Authorization bearer header for non-browser clients.
func extractToken(c *fiber.Ctx) string {
	if cookie := c.Cookies(TokenCookieName); cookie != "" {
		return cookie
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func (h *Handler) setSessionCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (h *Handler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
