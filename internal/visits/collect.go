package visits

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"beaconlight/internal/geo"
	"beaconlight/internal/pkg/sqlite"
	ua "beaconlight/internal/pkg/user_agent"
	"beaconlight/internal/websites"
)

// PageEntry is one page interaction reported in a beacon.
type PageEntry struct {
	Rank      int
	TimeSpent int
}

// CollectVisitInput defines the input required to record a beacon.
type CollectVisitInput struct {
	WebsiteID   string
	IPAddress   string
	UserAgent   string
	Referrer    string
	ScreenWidth int
	Timestamp   time.Time // client-reported
	Pages       map[string]PageEntry
}

// CollectVisit enriches a beacon with geolocation and user-agent data
// and writes one visit plus one page view per reported page. The write
// is all-or-nothing: if any page view insert fails, the visit rolls
// back with it. Beacons from known bots are dropped before any write.
func CollectVisit(db *gorm.DB, logger *slog.Logger, input *CollectVisitInput) error {
	parsedUA := ua.ParseUserAgent(input.UserAgent)
	if parsedUA.Bot {
		logger.Debug("Skipping bot beacon",
			slog.String("bot", parsedUA.Browser),
			slog.String("user_agent", input.UserAgent))
		return nil
	}

	// Validate the target website before enrichment or write. An
	// unknown id must never produce an orphaned visit.
	website, err := websites.GetWebsiteOrNotFound(db, input.WebsiteID)
	if err != nil {
		return err
	}

	location := geo.LookupIP(input.IPAddress)

	referrer := input.Referrer
	if referrer == "" {
		referrer = "Unknown"
	}

	visit := &Visit{
		WebsiteID:      website.ID,
		CreatedAt:      time.Now().UTC(),
		Timestamp:      input.Timestamp,
		Country:        location.Country,
		CountryISOCode: location.CountryISOCode,
		Continent:      location.Continent,
		ContinentCode:  location.ContinentCode,
		OS:             parsedUA.OS,
		Browser:        parsedUA.Browser,
		UserAgent:      input.UserAgent,
		ScreenWidth:    input.ScreenWidth,
		Referrer:       referrer,
	}

	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := tx.Create(visit).Error; err != nil {
			return fmt.Errorf("failed to create visit: %w", err)
		}
		for _, page := range sortedPages(input.Pages) {
			entry := input.Pages[page]
			pageView := &PageView{
				VisitID:   visit.ID,
				Page:      page,
				Rank:      entry.Rank,
				TimeSpent: entry.TimeSpent,
				CreatedAt: visit.CreatedAt,
			}
			if err := tx.Create(pageView).Error; err != nil {
				return fmt.Errorf("failed to create page view for %s: %w", page, err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to store visit",
			slog.String("website_id", input.WebsiteID),
			slog.Any("error", err))
		return err
	}

	logger.Info("Collected visit",
		slog.String("website_id", website.ID),
		slog.String("visit_id", visit.ID),
		slog.Int("page_views", len(input.Pages)))
	return nil
}

// sortedPages returns page paths ordered by reported rank so inserts
// happen in session order.
func sortedPages(pages map[string]PageEntry) []string {
	paths := make([]string, 0, len(pages))
	for page := range pages {
		paths = append(paths, page)
	}
	sort.Slice(paths, func(i, j int) bool {
		if pages[paths[i]].Rank != pages[paths[j]].Rank {
			return pages[paths[i]].Rank < pages[paths[j]].Rank
		}
		return paths[i] < paths[j]
	})
	return paths
}
