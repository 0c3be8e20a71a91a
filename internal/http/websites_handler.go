package http

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"beaconlight/internal/pkg/sqlite"
	"beaconlight/internal/users"
	"beaconlight/internal/websites"
)

type addWebsiteRequest struct {
	URL string `json:"url"`
}

// AddWebsiteAction registers a new website. Requires an authenticated
// principal and the shared admin secret in the x-secret header. The
// website row and its audit log entry commit in one transaction.
func (h *Handler) AddWebsiteAction(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return unauthorizedResponse(c)
	}

	secret := c.Get("x-secret")
	if h.cfg.AdminSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.AdminSecret)) != 1 {
		h.logger.Warn("Rejected website registration with bad secret",
			slog.String("user_id", user.ID))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": messageUnauthorized,
			"data":    nil,
		})
	}

	var req addWebsiteRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return failureResponse(c, messageWentWrong)
	}

	website := &websites.Website{URL: req.URL}
	err := sqlite.PerformWrite(h.logger, h.db(), func(tx *gorm.DB) error {
		if err := websites.CreateWebsite(tx, website); err != nil {
			return err
		}
		return users.AppendLog(tx, user.ID, users.ActionCreatedWebsite)
	})
	if err != nil {
		h.logger.Error("Failed to create website",
			slog.String("url", req.URL),
			slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}

	h.logger.Info("Website created",
		slog.String("website_id", website.ID),
		slog.String("url", website.URL),
		slog.String("user_id", user.ID))
	return dataResponse(c, "Website created", website)
}

// GetWebsitesAction lists every registered website with its recorded
// visit count.
func (h *Handler) GetWebsitesAction(c *fiber.Ctx) error {
	if CurrentUser(c) == nil {
		return unauthorizedResponse(c)
	}

	sites, err := websites.GetWebsitesWithVisitCounts(h.db())
	if err != nil {
		h.logger.Error("Failed to list websites", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched websites", sites)
}

// GetWebsiteAction returns one registered website by id.
func (h *Handler) GetWebsiteAction(c *fiber.Ctx) error {
	if CurrentUser(c) == nil {
		return unauthorizedResponse(c)
	}

	website, err := websites.GetWebsiteOrNotFound(h.db(), c.Params("id"))
	if err != nil {
		var notFound *websites.WebsiteNotFoundError
		if errors.As(err, &notFound) {
			return failureResponse(c, "Website not found")
		}
		h.logger.Error("Failed to load website", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched website", website)
}
