package sqlite_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"beaconlight/internal/pkg/sqlite"
	"beaconlight/internal/testsupport"
	"beaconlight/internal/visits"
)

func TestPerformWrite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	website := testsupport.CreateTestWebsite(t, db, "https://example.com")

	t.Run("commits when fn succeeds", func(t *testing.T) {
		err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			return tx.Create(&visits.Visit{WebsiteID: website.ID}).Error
		})
		require.NoError(t, err)

		var count int64
		db.Table("visits").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rolls back everything when fn fails partway", func(t *testing.T) {
		var before int64
		db.Table("visits").Count(&before)

		boom := errors.New("third insert failed")
		err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			visit := &visits.Visit{WebsiteID: website.ID}
			if err := tx.Create(visit).Error; err != nil {
				return err
			}
			for i := 0; i < 2; i++ {
				pv := &visits.PageView{VisitID: visit.ID, Page: "/x", Rank: i + 1}
				if err := tx.Create(pv).Error; err != nil {
					return err
				}
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		var after int64
		db.Table("visits").Count(&after)
		assert.Equal(t, before, after)

		var pageViews int64
		db.Table("page_views").Count(&pageViews)
		assert.Equal(t, int64(0), pageViews)
	})
}
