// Package reports answers aggregate queries over recorded visits and
// page views, always scoped to one website and a closed date interval.
package reports

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"beaconlight/internal/visits"
)

// QueryParams scopes every report to a website and a closed interval
// [From, To] over visit creation timestamps.
type QueryParams struct {
	WebsiteID string
	From      time.Time
	To        time.Time
}

// MetricCount is one grouped, counted dimension value in a breakdown.
type MetricCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Summary holds the in-scope visit and page view totals.
type Summary struct {
	VisitorsCount  int64 `json:"visitorsCount"`
	PageViewsCount int64 `json:"pageViewsCount"`
}

// visitDimensions whitelists the visit columns a breakdown may group
// by. Grouping is never driven by caller-supplied strings directly.
var visitDimensions = map[string]string{
	"referrer": "referrer",
	"country":  "country",
	"os":       "os",
	"browser":  "browser",
}

// GetSummary counts in-scope visits and page views. No grouping.
func GetSummary(db *gorm.DB, params QueryParams) (*Summary, error) {
	summary := &Summary{}

	err := db.Model(&visits.Visit{}).
		Where("website_id = ? AND created_at >= ? AND created_at <= ?",
			params.WebsiteID, params.From, params.To).
		Count(&summary.VisitorsCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}

	err = db.Model(&visits.PageView{}).
		Joins("JOIN visits ON visits.id = page_views.visit_id").
		Where("visits.website_id = ? AND page_views.created_at >= ? AND page_views.created_at <= ?",
			params.WebsiteID, params.From, params.To).
		Count(&summary.PageViewsCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count page views: %w", err)
	}

	return summary, nil
}

// breakdownByVisitColumn is the shared group/count/sort primitive every
// visit-dimension breakdown runs through. Results are sorted by count
// descending with the dimension value as a deterministic tiebreaker.
func breakdownByVisitColumn(db *gorm.DB, params QueryParams, dimension string) ([]MetricCount, error) {
	column, ok := visitDimensions[dimension]
	if !ok {
		return nil, fmt.Errorf("unknown breakdown dimension: %s", dimension)
	}

	var results []MetricCount
	err := db.Model(&visits.Visit{}).
		Select(column+" AS name, COUNT(*) AS count").
		Where("website_id = ? AND created_at >= ? AND created_at <= ?",
			params.WebsiteID, params.From, params.To).
		Group(column).
		Order("count DESC, name ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group visits by %s: %w", dimension, err)
	}

	if results == nil {
		results = []MetricCount{}
	}
	return results, nil
}

// GetTopPages groups in-scope page views by page path.
func GetTopPages(db *gorm.DB, params QueryParams) ([]MetricCount, error) {
	var results []MetricCount
	err := db.Model(&visits.PageView{}).
		Select("page_views.page AS name, COUNT(*) AS count").
		Joins("JOIN visits ON visits.id = page_views.visit_id").
		Where("visits.website_id = ? AND page_views.created_at >= ? AND page_views.created_at <= ?",
			params.WebsiteID, params.From, params.To).
		Group("page_views.page").
		Order("count DESC, name ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group page views by page: %w", err)
	}

	if results == nil {
		results = []MetricCount{}
	}
	return results, nil
}

// GetTopReferrers groups in-scope visits by referrer.
func GetTopReferrers(db *gorm.DB, params QueryParams) ([]MetricCount, error) {
	return breakdownByVisitColumn(db, params, "referrer")
}

// GetCountries groups in-scope visits by country name.
func GetCountries(db *gorm.DB, params QueryParams) ([]MetricCount, error) {
	return breakdownByVisitColumn(db, params, "country")
}

// GetOperatingSystems groups in-scope visits by operating system name.
func GetOperatingSystems(db *gorm.DB, params QueryParams) ([]MetricCount, error) {
	return breakdownByVisitColumn(db, params, "os")
}

// GetBrowsers groups in-scope visits by browser name.
func GetBrowsers(db *gorm.DB, params QueryParams) ([]MetricCount, error) {
	return breakdownByVisitColumn(db, params, "browser")
}
