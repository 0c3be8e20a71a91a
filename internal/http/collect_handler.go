package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"beaconlight/internal/visits"
	"beaconlight/internal/websites"
)

// beaconPayload is the wire format clients post. Field names are single
// letters to keep the tracking snippet small: d is the client clock
// reading, r the referrer, w the screen width, p the per-page
// [rank, timeSpent] map, a the target website id.
type beaconPayload struct {
	Timestamp   string            `json:"d"`
	Referrer    string            `json:"r"`
	ScreenWidth int               `json:"w"`
	Pages       map[string][2]int `json:"p"`
	WebsiteID   string            `json:"a"`
}

// CollectAction ingests one beacon. Responses are plain text: "success"
// on a committed write, "Unauthorized" when the website id is unknown,
// "Something went wrong" for malformed input or internal failures.
func (h *Handler) CollectAction(c *fiber.Ctx) error {
	var payload beaconPayload
	if err := c.BodyParser(&payload); err != nil {
		h.logger.Warn("Rejected malformed beacon", slog.Any("error", err))
		return c.Status(fiber.StatusBadRequest).SendString(messageWentWrong)
	}
	if payload.WebsiteID == "" || len(payload.Pages) == 0 {
		return c.Status(fiber.StatusBadRequest).SendString(messageWentWrong)
	}

	clientIP, err := requireClientIP(c)
	if err != nil {
		h.logger.Warn("Rejected beacon without client ip")
		return c.Status(fiber.StatusBadRequest).SendString(messageWentWrong)
	}

	referrer := payload.Referrer
	if referrer == "" {
		referrer = c.Get(fiber.HeaderReferer)
	}

	input := &visits.CollectVisitInput{
		WebsiteID:   payload.WebsiteID,
		IPAddress:   clientIP,
		UserAgent:   c.Get(fiber.HeaderUserAgent),
		Referrer:    referrer,
		ScreenWidth: payload.ScreenWidth,
		Timestamp:   parseClientTimestamp(payload.Timestamp),
		Pages:       pageEntries(payload.Pages),
	}

	if err := visits.CollectVisit(h.db(), h.logger, input); err != nil {
		var notFound *websites.WebsiteNotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusUnauthorized).SendString(messageUnauthorized)
		}
		h.logger.Error("Failed to ingest beacon",
			slog.String("website_id", payload.WebsiteID),
			slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).SendString(messageWentWrong)
	}

	return c.Status(fiber.StatusOK).SendString("success")
}

func pageEntries(pages map[string][2]int) map[string]visits.PageEntry {
	entries := make(map[string]visits.PageEntry, len(pages))
	for page, pair := range pages {
		entries[page] = visits.PageEntry{Rank: pair[0], TimeSpent: pair[1]}
	}
	return entries
}

// parseClientTimestamp accepts the formats tracking snippets send. The
// client clock is advisory only, so an unparseable value degrades to
// the zero time instead of failing the beacon.
func parseClientTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
