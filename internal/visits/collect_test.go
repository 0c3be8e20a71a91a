package visits_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconlight/internal/testsupport"
	"beaconlight/internal/visits"
	"beaconlight/internal/websites"
)

const desktopChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestCollectVisit(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	website := testsupport.CreateTestWebsite(t, db, "https://example.com")

	t.Run("writes one visit and one page view per page", func(t *testing.T) {
		input := &visits.CollectVisitInput{
			WebsiteID:   website.ID,
			IPAddress:   "203.0.113.7",
			UserAgent:   desktopChromeUA,
			Referrer:    "https://google.com",
			ScreenWidth: 1440,
			Timestamp:   time.Now().UTC(),
			Pages: map[string]visits.PageEntry{
				"/home":  {Rank: 1, TimeSpent: 12},
				"/about": {Rank: 2, TimeSpent: 5},
			},
		}
		require.NoError(t, visits.CollectVisit(db, logger, input))

		var visitRows []visits.Visit
		require.NoError(t, db.Where("website_id = ?", website.ID).Find(&visitRows).Error)
		require.Len(t, visitRows, 1)

		visit := visitRows[0]
		assert.Equal(t, "Windows", visit.OS)
		assert.Equal(t, "Chrome", visit.Browser)
		assert.Equal(t, desktopChromeUA, visit.UserAgent)
		assert.Equal(t, 1440, visit.ScreenWidth)
		assert.Equal(t, "https://google.com", visit.Referrer)

		var pageViews []visits.PageView
		require.NoError(t, db.Where("visit_id = ?", visit.ID).Order("rank ASC").Find(&pageViews).Error)
		require.Len(t, pageViews, 2)
		assert.Equal(t, "/home", pageViews[0].Page)
		assert.Equal(t, 1, pageViews[0].Rank)
		assert.Equal(t, 12, pageViews[0].TimeSpent)
		assert.Equal(t, "/about", pageViews[1].Page)
		assert.Equal(t, 2, pageViews[1].Rank)
		assert.Equal(t, 5, pageViews[1].TimeSpent)
	})

	t.Run("empty referrer stored as Unknown", func(t *testing.T) {
		input := &visits.CollectVisitInput{
			WebsiteID: website.ID,
			IPAddress: "203.0.113.8",
			UserAgent: desktopChromeUA,
			Pages:     map[string]visits.PageEntry{"/": {Rank: 1, TimeSpent: 3}},
		}
		require.NoError(t, visits.CollectVisit(db, logger, input))

		var visit visits.Visit
		require.NoError(t, db.Where("referrer = ?", "Unknown").First(&visit).Error)
	})
}

func TestCollectVisitUnknownWebsite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	input := &visits.CollectVisitInput{
		WebsiteID: "no-such-website",
		IPAddress: "203.0.113.9",
		UserAgent: desktopChromeUA,
		Pages:     map[string]visits.PageEntry{"/": {Rank: 1, TimeSpent: 1}},
	}
	err := visits.CollectVisit(db, logger, input)

	var notFoundErr *websites.WebsiteNotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	var visitCount int64
	db.Table("visits").Count(&visitCount)
	assert.Equal(t, int64(0), visitCount)
	var pageViewCount int64
	db.Table("page_views").Count(&pageViewCount)
	assert.Equal(t, int64(0), pageViewCount)
}

func TestCollectVisitDropsBots(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	website := testsupport.CreateTestWebsite(t, db, "https://example.com")

	input := &visits.CollectVisitInput{
		WebsiteID: website.ID,
		IPAddress: "203.0.113.10",
		UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		Pages:     map[string]visits.PageEntry{"/": {Rank: 1, TimeSpent: 1}},
	}
	require.NoError(t, visits.CollectVisit(db, logger, input))

	var visitCount int64
	db.Table("visits").Count(&visitCount)
	assert.Equal(t, int64(0), visitCount)
}
