package reports

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"beaconlight/internal/visits"
)

// DateCount is one daily bucket in a time series.
type DateCount struct {
	Key   string `json:"key"`
	Total int64  `json:"total"`
}

// TimeSeries holds parallel daily visitor and page view series over the
// same contiguous date range.
type TimeSeries struct {
	Visitors  []DateCount `json:"visitors"`
	PageViews []DateCount `json:"pageViews"`
}

const dayKeyLayout = "2006-01-02"

// GetTimeSeries buckets in-scope visits and page views per UTC calendar
// day. Every day between From and To inclusive appears in both series,
// days without traffic carry a zero total.
func GetTimeSeries(db *gorm.DB, params QueryParams) (*TimeSeries, error) {
	var visitTimes []time.Time
	err := db.Model(&visits.Visit{}).
		Where("website_id = ? AND created_at >= ? AND created_at <= ?",
			params.WebsiteID, params.From, params.To).
		Pluck("created_at", &visitTimes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load visit timestamps: %w", err)
	}

	var pageViewTimes []time.Time
	err = db.Model(&visits.PageView{}).
		Joins("JOIN visits ON visits.id = page_views.visit_id").
		Where("visits.website_id = ? AND page_views.created_at >= ? AND page_views.created_at <= ?",
			params.WebsiteID, params.From, params.To).
		Pluck("page_views.created_at", &pageViewTimes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load page view timestamps: %w", err)
	}

	return &TimeSeries{
		Visitors:  bucketByDay(visitTimes, params.From, params.To),
		PageViews: bucketByDay(pageViewTimes, params.From, params.To),
	}, nil
}

// bucketByDay counts timestamps per UTC day and zero-fills every day of
// the inclusive [from, to] range in chronological order.
func bucketByDay(timestamps []time.Time, from, to time.Time) []DateCount {
	counts := make(map[string]int64, len(timestamps))
	for _, ts := range timestamps {
		counts[ts.UTC().Format(dayKeyLayout)]++
	}

	series := []DateCount{}
	first := startOfDay(from)
	last := startOfDay(to)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayKeyLayout)
		series = append(series, DateCount{Key: key, Total: counts[key]})
	}
	return series
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
