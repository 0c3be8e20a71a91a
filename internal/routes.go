// Package internal wires the application together: configuration,
// logging, database, and the HTTP route table.
package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"beaconlight/internal/config"
	apphttp "beaconlight/internal/http"
)

// publicCORSConfig is the permissive CORS setup shared by the public
// beacon endpoint, which is posted to from arbitrary origins.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referer, User-Agent",
}

// MountRoutes registers every route on the fiber app.
func MountRoutes(app *fiber.App, cfg *config.Config, h *apphttp.Handler) {
	// Rate limiting only applies in production; in development and test
	// it would interfere with local runs and the test suite.
	conditionalRateLimiter := func(rl fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return rl(c)
			}
			return c.Next()
		}
	}

	// 70 req/min per IP absorbs legitimate beacon traffic while capping abuse.
	beaconRateLimiter := conditionalRateLimiter(limiter.New(limiter.Config{
		Max:        70,
		Expiration: time.Minute,
	}))

	// Stricter limit on login to slow brute forcing.
	authRateLimiter := conditionalRateLimiter(limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	}))

	// Resolve the optional principal once per request.
	app.Use(h.Authenticate)

	app.Get("/", h.HomeAction)
	app.Get("/_health", h.HealthAction)
	app.Head("/_health", h.HealthAction)

	// Public beacon ingestion.
	beaconCORS := cors.New(publicCORSConfig)
	app.Post("/", beaconCORS, beaconRateLimiter, h.CollectAction)
	app.Options("/", beaconCORS, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Authentication.
	app.Post("/login", authRateLimiter, h.LoginAction)
	app.Post("/logout", h.LogoutAction)

	// Website administration.
	app.Post("/add-website", h.AddWebsiteAction)
	app.Get("/get-websites", h.GetWebsitesAction)
	app.Get("/get-website/:id", h.GetWebsiteAction)

	// Reporting.
	app.Get("/get-stats", h.GetStatsAction)
	app.Get("/get-timeseries", h.GetTimeSeriesAction)
	app.Get("/get-top-pages", h.GetTopPagesAction)
	app.Get("/get-top-referrers", h.GetTopReferrersAction)
	app.Get("/get-countries", h.GetCountriesAction)
	app.Get("/get-os", h.GetOSAction)
	app.Get("/get-browser", h.GetBrowserAction)
}
