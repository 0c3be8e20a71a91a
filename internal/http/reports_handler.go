package http

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"beaconlight/internal/reports"
)

// parseReportScope authenticates the request and resolves the website
// and date range every report is scoped to. A nil QueryParams means the
// response has already been written.
func (h *Handler) parseReportScope(c *fiber.Ctx) (*reports.QueryParams, error) {
	if CurrentUser(c) == nil {
		return nil, unauthorizedResponse(c)
	}

	websiteID := c.Query("id")
	if websiteID == "" {
		return nil, failureResponse(c, messageWentWrong)
	}

	from, to, err := reports.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.logger.Warn("Rejected report request with bad date range",
			slog.String("from", c.Query("from")),
			slog.String("to", c.Query("to")),
			slog.Any("error", err))
		return nil, failureResponse(c, messageWentWrong)
	}

	return &reports.QueryParams{WebsiteID: websiteID, From: from, To: to}, nil
}

// GetStatsAction returns the in-scope visit and page view totals.
func (h *Handler) GetStatsAction(c *fiber.Ctx) error {
	params, err := h.parseReportScope(c)
	if params == nil {
		return err
	}

	summary, err := reports.GetSummary(h.db(), *params)
	if err != nil {
		h.logger.Error("Failed to compute stats", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched stats", summary)
}

// GetTimeSeriesAction returns zero-filled daily visitor and page view
// counts for every day of the requested range.
func (h *Handler) GetTimeSeriesAction(c *fiber.Ctx) error {
	params, err := h.parseReportScope(c)
	if params == nil {
		return err
	}

	series, err := reports.GetTimeSeries(h.db(), *params)
	if err != nil {
		h.logger.Error("Failed to compute timeseries", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched timeseries", series)
}

// GetTopPagesAction returns in-scope page views grouped by page path.
func (h *Handler) GetTopPagesAction(c *fiber.Ctx) error {
	params, err := h.parseReportScope(c)
	if params == nil {
		return err
	}

	pages, err := reports.GetTopPages(h.db(), *params)
	if err != nil {
		h.logger.Error("Failed to compute top pages", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched top pages", keyedCounts(pages, "page", false))
}

// GetTopReferrersAction returns in-scope visits grouped by referrer.
func (h *Handler) GetTopReferrersAction(c *fiber.Ctx) error {
	params, err := h.parseReportScope(c)
	if params == nil {
		return err
	}

	referrers, err := reports.GetTopReferrers(h.db(), *params)
	if err != nil {
		h.logger.Error("Failed to compute top referrers", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched top referrers", keyedCounts(referrers, "referrer", false))
}

// GetCountriesAction returns in-scope visits grouped by country.
func (h *Handler) GetCountriesAction(c *fiber.Ctx) error {
	params, err := h.parseReportScope(c)
	if params == nil {
		return err
	}

	countries, err := reports.GetCountries(h.db(), *params)
	if err != nil {
		h.logger.Error("Failed to compute countries", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched countries", keyedCounts(countries, "country", false))
}

// GetOSAction returns in-scope visits grouped by operating system.
func (h *Handler) GetOSAction(c *fiber.Ctx) error {
	params, err := h.parseReportScope(c)
	if params == nil {
		return err
	}

	osStats, err := reports.GetOperatingSystems(h.db(), *params)
	if err != nil {
		h.logger.Error("Failed to compute os breakdown", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched os", keyedCounts(osStats, "os", true))
}

// GetBrowserAction returns in-scope visits grouped by browser.
func (h *Handler) GetBrowserAction(c *fiber.Ctx) error {
	params, err := h.parseReportScope(c)
	if params == nil {
		return err
	}

	browsers, err := reports.GetBrowsers(h.db(), *params)
	if err != nil {
		h.logger.Error("Failed to compute browser breakdown", slog.Any("error", err))
		return failureResponse(c, messageWentWrong)
	}
	return dataResponse(c, "Fetched browser", keyedCounts(browsers, "browser", true))
}

// keyedCounts reshapes breakdown rows into the wire format, naming the
// dimension column per endpoint. Counts and ordering pass through
// untouched.
func keyedCounts(items []reports.MetricCount, key string, prettify bool) []fiber.Map {
	result := make([]fiber.Map, 0, len(items))
	for _, item := range items {
		name := item.Name
		if prettify {
			name = prettifyLabel(name)
		}
		result = append(result, fiber.Map{key: name, "count": item.Count})
	}
	return result
}

// prettifyLabel title-cases labels stored entirely in lowercase. Names
// with existing casing (iOS, macOS) pass through untouched. Caser is
// stateful, so one is built per call.
func prettifyLabel(name string) string {
	if name == "" || name != strings.ToLower(name) {
		return name
	}
	return cases.Title(language.AmericanEnglish).String(name)
}
