// Package seeder populates a development database with an admin user,
// a demo website, and a spread of realistic visit traffic.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"beaconlight/internal/database"
	"beaconlight/internal/pkg/sqlite"
	"beaconlight/internal/users"
	"beaconlight/internal/visits"
	"beaconlight/internal/websites"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "changeme123"
	demoWebsiteURL       = "https://demo.example.com"
)

var (
	samplePages = []string{"/", "/about", "/pricing", "/blog", "/blog/launch", "/contact"}

	sampleReferrers = []string{"Unknown", "https://google.com", "https://news.ycombinator.com", "https://twitter.com"}

	sampleCountries = []struct {
		name, iso, continent, continentCode string
	}{
		{"United States", "US", "North America", "NA"},
		{"Germany", "DE", "Europe", "EU"},
		{"Brazil", "BR", "South America", "SA"},
		{"Japan", "JP", "Asia", "AS"},
	}

	sampleDevices = []struct {
		os, browser string
	}{
		{"macOS", "Safari"},
		{"Windows", "Chrome"},
		{"Linux", "Firefox"},
		{"iOS", "Safari"},
		{"Android", "Chrome"},
	}
)

// Seeder generates sample data against the shared database.
type Seeder struct {
	DBManager  *database.Manager
	Logger     *slog.Logger
	VisitCount int
}

// NewSeeder creates a seeder producing visitCount visits.
func NewSeeder(dbManager *database.Manager, logger *slog.Logger, visitCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{DBManager: dbManager, Logger: logger, VisitCount: visitCount}
}

// Run seeds the admin user, the demo website, and generated traffic.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	db := s.DBManager.GetConnection()

	admin, err := s.ensureAdminUser(db)
	if err != nil {
		return err
	}

	website, err := s.ensureDemoWebsite(db, admin)
	if err != nil {
		return err
	}

	if err := s.generateVisits(ctx, db, website); err != nil {
		return err
	}

	s.Logger.Info("Seeding completed",
		slog.Int("visits", s.VisitCount),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) ensureAdminUser(db *gorm.DB) (*users.User, error) {
	admin, err := users.CreateUser(db, defaultAdminEmail, defaultAdminPassword)
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			s.Logger.Info("Admin user already exists", slog.String("email", defaultAdminEmail))
			return users.FindByEmail(db, defaultAdminEmail)
		}
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	s.Logger.Info("Seeded admin user", slog.String("email", admin.Email))
	return admin, nil
}

func (s *Seeder) ensureDemoWebsite(db *gorm.DB, admin *users.User) (*websites.Website, error) {
	var existing websites.Website
	err := db.Where("url = ?", demoWebsiteURL).First(&existing).Error
	if err == nil {
		s.Logger.Info("Demo website already exists", slog.String("id", existing.ID))
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up demo website: %w", err)
	}

	website := &websites.Website{URL: demoWebsiteURL}
	err = sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		if err := websites.CreateWebsite(tx, website); err != nil {
			return err
		}
		return users.AppendLog(tx, admin.ID, users.ActionCreatedWebsite)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed demo website: %w", err)
	}
	s.Logger.Info("Seeded demo website", slog.String("id", website.ID))
	return website, nil
}

// generateVisits writes visits spread over the trailing 30 days, each
// with one to four page views in session order.
func (s *Seeder) generateVisits(ctx context.Context, db *gorm.DB, website *websites.Website) error {
	now := time.Now().UTC()

	for i := 0; i < s.VisitCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		country := sampleCountries[rand.Intn(len(sampleCountries))]
		device := sampleDevices[rand.Intn(len(sampleDevices))]
		createdAt := now.Add(-time.Duration(rand.Intn(30*24)) * time.Hour)

		visit := &visits.Visit{
			WebsiteID:      website.ID,
			CreatedAt:      createdAt,
			Timestamp:      createdAt,
			Country:        country.name,
			CountryISOCode: country.iso,
			Continent:      country.continent,
			ContinentCode:  country.continentCode,
			OS:             device.os,
			Browser:        device.browser,
			UserAgent:      "seeded",
			ScreenWidth:    320 + rand.Intn(1600),
			Referrer:       sampleReferrers[rand.Intn(len(sampleReferrers))],
		}

		pageCount := 1 + rand.Intn(4)
		err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
			if err := tx.Create(visit).Error; err != nil {
				return err
			}
			for rank := 1; rank <= pageCount; rank++ {
				pageView := &visits.PageView{
					VisitID:   visit.ID,
					Page:      samplePages[rand.Intn(len(samplePages))],
					Rank:      rank,
					TimeSpent: 5 + rand.Intn(120),
					CreatedAt: visit.CreatedAt,
				}
				if err := tx.Create(pageView).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to seed visit %d: %w", i, err)
		}
	}

	s.Logger.Info("Seeded visit traffic",
		slog.String("website_id", website.ID),
		slog.Int("visits", s.VisitCount))
	return nil
}
