// Package testsupport holds shared fixtures for the test suite.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"beaconlight/internal"
	"beaconlight/internal/config"
	"beaconlight/internal/database"
	apphttp "beaconlight/internal/http"
	"beaconlight/internal/users"
	"beaconlight/internal/visits"
	"beaconlight/internal/websites"
)

// testDBCache shares one database across setup calls within a test,
// keyed by the root test name so subtests reuse the parent's database.
var (
	testDBCache   = make(map[string]*gorm.DB)
	testDBCacheMu sync.Mutex
)

// GetTestConfig returns a config suitable for tests, independent of the
// process environment.
func GetTestConfig() *config.Config {
	return &config.Config{
		AppName:          "beaconlight",
		AppPort:          "0",
		Environment:      config.Test,
		LogLevel:         config.LogLevelError,
		PrivateKey:       "test-private-key-0123456789abcdef",
		AdminSecret:      "test-admin-secret",
		TokenTimeoutSecs: 900,
	}
}

// GetLogger returns a quiet logger for tests.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// SetupTestDB creates a named in-memory database with every model
// migrated. cache=shared lets multiple connections within the test see
// the same data.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateTestApp builds a fiber app with the full route table mounted
// against the given database.
func CreateTestApp(t *testing.T, db *gorm.DB) (*fiber.App, *config.Config) {
	t.Helper()

	cfg := GetTestConfig()
	logger := GetLogger()
	manager := database.NewManagerWithConnection(cfg, logger, db)
	handler := apphttp.NewHandler(cfg, logger, manager)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	internal.MountRoutes(app, cfg, handler)
	return app, cfg
}

// CreateTestWebsite creates a website row, reusing an existing one with
// the same URL.
func CreateTestWebsite(t *testing.T, db *gorm.DB, url string) websites.Website {
	t.Helper()

	var website websites.Website
	if db.Where("url = ?", url).First(&website).Error == nil {
		return website
	}
	website = websites.Website{URL: url}
	require.NoError(t, websites.CreateWebsite(db, &website))
	return website
}

// CreateTestUser creates a user with a properly hashed password.
func CreateTestUser(t *testing.T, db *gorm.DB, email, password string) *users.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &users.User{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// AuthCookie issues a session token for the user and returns it as a
// Cookie header value.
func AuthCookie(t *testing.T, cfg *config.Config, user *users.User) string {
	t.Helper()

	token, err := users.IssueToken(user, cfg.PrivateKey, 15*time.Minute)
	require.NoError(t, err)
	return fmt.Sprintf("%s=%s", apphttp.TokenCookieName, token)
}

// VisitParams controls the fields of a fixture visit.
type VisitParams struct {
	CreatedAt time.Time
	Country   string
	OS        string
	Browser   string
	Referrer  string
	Pages     []string
}

// CreateTestVisit writes a visit plus one page view per page, all
// timestamped at the visit's creation time.
func CreateTestVisit(t *testing.T, db *gorm.DB, websiteID string, params VisitParams) visits.Visit {
	t.Helper()

	if params.CreatedAt.IsZero() {
		params.CreatedAt = time.Now().UTC()
	}
	if params.Country == "" {
		params.Country = "United States"
	}
	if params.OS == "" {
		params.OS = "macOS"
	}
	if params.Browser == "" {
		params.Browser = "Chrome"
	}
	if params.Referrer == "" {
		params.Referrer = "Unknown"
	}

	visit := visits.Visit{
		WebsiteID:   websiteID,
		CreatedAt:   params.CreatedAt,
		Timestamp:   params.CreatedAt,
		Country:     params.Country,
		OS:          params.OS,
		Browser:     params.Browser,
		UserAgent:   "Mozilla/5.0 Test Browser",
		ScreenWidth: 1440,
		Referrer:    params.Referrer,
	}
	require.NoError(t, db.Create(&visit).Error)

	for i, page := range params.Pages {
		pageView := visits.PageView{
			VisitID:   visit.ID,
			Page:      page,
			Rank:      i + 1,
			TimeSpent: 10,
			CreatedAt: visit.CreatedAt,
		}
		require.NoError(t, db.Create(&pageView).Error)
	}
	return visit
}
