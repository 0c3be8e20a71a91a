package http_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconlight/internal/testsupport"
	"beaconlight/internal/users"
	"beaconlight/internal/visits"
	"beaconlight/internal/websites"
)

const testBrowserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp io.Reader) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp).Decode(&env))
	return env
}

func TestHomeAndHealth(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app, _ := testsupport.CreateTestApp(t, db)

	t.Run("root answers Hello World", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "Hello World", string(body))
	})

	t.Run("health reports ok", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/_health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func postBeacon(t *testing.T, app *fiber.App, body string, withIP bool) (int, string) {
	t.Helper()

	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", testBrowserUA)
	if withIP {
		req.Header.Set("x-forwarded-for", "203.0.113.1, 10.0.0.1")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func TestCollectEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app, _ := testsupport.CreateTestApp(t, db)
	website := testsupport.CreateTestWebsite(t, db, "https://example.com")

	validBody := fmt.Sprintf(
		`{"d":"2024-01-02T10:00:00Z","r":"https://google.com","w":1280,"p":{"/home":[1,12],"/about":[2,5]},"a":%q}`,
		website.ID)

	t.Run("valid beacon writes visit and page views", func(t *testing.T) {
		status, body := postBeacon(t, app, validBody, true)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "success", body)

		var visitRows []visits.Visit
		require.NoError(t, db.Where("website_id = ?", website.ID).Find(&visitRows).Error)
		require.Len(t, visitRows, 1)
		assert.Equal(t, "https://google.com", visitRows[0].Referrer)
		assert.Equal(t, 1280, visitRows[0].ScreenWidth)

		var pageViewCount int64
		db.Table("page_views").Where("visit_id = ?", visitRows[0].ID).Count(&pageViewCount)
		assert.Equal(t, int64(2), pageViewCount)
	})

	t.Run("unknown website id is unauthorized", func(t *testing.T) {
		body := `{"d":"2024-01-02T10:00:00Z","w":1280,"p":{"/":[1,1]},"a":"no-such-site"}`
		status, text := postBeacon(t, app, body, true)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Unauthorized", text)
	})

	t.Run("missing forwarded-for header is a client error", func(t *testing.T) {
		status, text := postBeacon(t, app, validBody, false)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Something went wrong", text)
	})

	t.Run("malformed body is a client error", func(t *testing.T) {
		status, _ := postBeacon(t, app, `{"a":`, true)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("missing website id is a client error", func(t *testing.T) {
		status, _ := postBeacon(t, app, `{"d":"2024-01-02T10:00:00Z","p":{"/":[1,1]}}`, true)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

var reportPaths = []string{
	"/get-stats",
	"/get-timeseries",
	"/get-top-pages",
	"/get-top-referrers",
	"/get-countries",
	"/get-os",
	"/get-browser",
}

func TestReportsRequireAuthentication(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app, _ := testsupport.CreateTestApp(t, db)

	for _, path := range reportPaths {
		t.Run(path, func(t *testing.T) {
			url := path + "?id=any&from=2024-01-01&to=2024-01-03"
			resp, err := app.Test(httptest.NewRequest("GET", url, nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			env := decodeEnvelope(t, resp.Body)
			assert.False(t, env.Success)
			assert.Equal(t, "Unauthorized", env.Message)
			assert.Equal(t, "null", strings.TrimSpace(string(env.Data)))
		})
	}
}

func TestReportsAuthenticated(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app, cfg := testsupport.CreateTestApp(t, db)
	website := testsupport.CreateTestWebsite(t, db, "https://example.com")
	user := testsupport.CreateTestUser(t, db, "reports@example.com", "password123")
	cookie := testsupport.AuthCookie(t, cfg, user)

	when := time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC)
	testsupport.CreateTestVisit(t, db, website.ID, testsupport.VisitParams{
		CreatedAt: when,
		Browser:   "Chrome",
		Pages:     []string{"/home", "/about"},
	})

	get := func(t *testing.T, path string) envelope {
		t.Helper()
		url := fmt.Sprintf("%s?id=%s&from=2024-01-01&to=2024-01-03", path, website.ID)
		req := httptest.NewRequest("GET", url, nil)
		req.Header.Set("Cookie", cookie)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		return decodeEnvelope(t, resp.Body)
	}

	t.Run("stats", func(t *testing.T) {
		env := get(t, "/get-stats")
		require.True(t, env.Success)
		assert.Equal(t, "Fetched stats", env.Message)

		var data struct {
			VisitorsCount  int64 `json:"visitorsCount"`
			PageViewsCount int64 `json:"pageViewsCount"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, int64(1), data.VisitorsCount)
		assert.Equal(t, int64(2), data.PageViewsCount)
	})

	t.Run("timeseries", func(t *testing.T) {
		env := get(t, "/get-timeseries")
		require.True(t, env.Success)
		assert.Equal(t, "Fetched timeseries", env.Message)

		var data struct {
			Visitors []struct {
				Key   string `json:"key"`
				Total int64  `json:"total"`
			} `json:"visitors"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Visitors, 3)
		assert.Equal(t, "2024-01-02", data.Visitors[1].Key)
		assert.Equal(t, int64(1), data.Visitors[1].Total)
	})

	t.Run("top pages", func(t *testing.T) {
		env := get(t, "/get-top-pages")
		require.True(t, env.Success)
		assert.Equal(t, "Fetched top pages", env.Message)

		var data []struct {
			Page  string `json:"page"`
			Count int64  `json:"count"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data, 2)
	})

	t.Run("browser", func(t *testing.T) {
		env := get(t, "/get-browser")
		require.True(t, env.Success)
		assert.Equal(t, "Fetched browser", env.Message)

		var data []struct {
			Browser string `json:"browser"`
			Count   int64  `json:"count"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data, 1)
		assert.Equal(t, "Chrome", data[0].Browser)
		assert.Equal(t, int64(1), data[0].Count)
	})

	t.Run("bad date range fails inside the envelope", func(t *testing.T) {
		req := httptest.NewRequest("GET",
			fmt.Sprintf("/get-stats?id=%s&from=bogus&to=2024-01-03", website.ID), nil)
		req.Header.Set("Cookie", cookie)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp.Body)
		assert.False(t, env.Success)
	})
}

func TestAddWebsite(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app, cfg := testsupport.CreateTestApp(t, db)
	user := testsupport.CreateTestUser(t, db, "admin@example.com", "password123")
	cookie := testsupport.AuthCookie(t, cfg, user)

	post := func(t *testing.T, body, secret string, authed bool) (envelope, int) {
		t.Helper()
		req := httptest.NewRequest("POST", "/add-website", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set("x-secret", secret)
		}
		if authed {
			req.Header.Set("Cookie", cookie)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return decodeEnvelope(t, resp.Body), resp.StatusCode
	}

	countWebsites := func() int64 {
		var n int64
		db.Table("websites").Count(&n)
		return n
	}

	t.Run("unauthenticated request creates nothing", func(t *testing.T) {
		env, status := post(t, `{"url":"https://new.example.com"}`, cfg.AdminSecret, false)
		assert.Equal(t, fiber.StatusOK, status)
		assert.False(t, env.Success)
		assert.Equal(t, "Unauthorized", env.Message)
		assert.Equal(t, int64(0), countWebsites())
	})

	t.Run("wrong secret is unauthorized and creates nothing", func(t *testing.T) {
		env, status := post(t, `{"url":"https://new.example.com"}`, "wrong-secret", true)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.False(t, env.Success)
		assert.Equal(t, int64(0), countWebsites())
	})

	t.Run("correct secret creates website and audit log", func(t *testing.T) {
		env, status := post(t, `{"url":"https://new.example.com"}`, cfg.AdminSecret, true)
		require.Equal(t, fiber.StatusOK, status)
		require.True(t, env.Success)
		assert.Equal(t, "Website created", env.Message)

		var created websites.Website
		require.NoError(t, json.Unmarshal(env.Data, &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "https://new.example.com", created.URL)
		assert.Equal(t, int64(1), countWebsites())

		logs, err := users.LogsForUser(db, user.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, users.ActionCreatedWebsite, logs[0].Action)
	})

	t.Run("missing url fails inside the envelope", func(t *testing.T) {
		env, status := post(t, `{}`, cfg.AdminSecret, true)
		assert.Equal(t, fiber.StatusOK, status)
		assert.False(t, env.Success)
	})
}

func TestWebsiteListing(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app, cfg := testsupport.CreateTestApp(t, db)
	website := testsupport.CreateTestWebsite(t, db, "https://example.com")
	user := testsupport.CreateTestUser(t, db, "viewer@example.com", "password123")
	cookie := testsupport.AuthCookie(t, cfg, user)

	testsupport.CreateTestVisit(t, db, website.ID, testsupport.VisitParams{})

	t.Run("listing requires authentication", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/get-websites", nil))
		require.NoError(t, err)
		env := decodeEnvelope(t, resp.Body)
		assert.False(t, env.Success)
	})

	t.Run("lists websites with visit counts", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/get-websites", nil)
		req.Header.Set("Cookie", cookie)
		resp, err := app.Test(req)
		require.NoError(t, err)

		env := decodeEnvelope(t, resp.Body)
		require.True(t, env.Success)

		var data []websites.WebsiteWithVisitCount
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data, 1)
		assert.Equal(t, int64(1), data[0].VisitCount)
	})

	t.Run("single website by id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/get-website/"+website.ID, nil)
		req.Header.Set("Cookie", cookie)
		resp, err := app.Test(req)
		require.NoError(t, err)

		env := decodeEnvelope(t, resp.Body)
		require.True(t, env.Success)
	})

	t.Run("unknown website id fails inside the envelope", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/get-website/missing", nil)
		req.Header.Set("Cookie", cookie)
		resp, err := app.Test(req)
		require.NoError(t, err)

		env := decodeEnvelope(t, resp.Body)
		assert.False(t, env.Success)
		assert.Equal(t, "Website not found", env.Message)
	})
}

func TestLoginLogout(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app, _ := testsupport.CreateTestApp(t, db)
	user := testsupport.CreateTestUser(t, db, "login@example.com", "correct-horse")

	t.Run("valid credentials set a session cookie", func(t *testing.T) {
		body := `{"email":"login@example.com","password":"correct-horse"}`
		req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp.Body)
		require.True(t, env.Success)
		assert.Equal(t, "Logged in", env.Message)

		var sessionCookie string
		for _, c := range resp.Cookies() {
			if c.Name == "beaconlight_token" {
				sessionCookie = c.Value
			}
		}
		assert.NotEmpty(t, sessionCookie)

		logs, err := users.LogsForUser(db, user.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, users.ActionLoggedIn, logs[0].Action)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		body := `{"email":"login@example.com","password":"wrong"}`
		req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		env := decodeEnvelope(t, resp.Body)
		assert.False(t, env.Success)
		assert.Equal(t, "Unauthorized", env.Message)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/logout", nil))
		require.NoError(t, err)

		env := decodeEnvelope(t, resp.Body)
		assert.True(t, env.Success)
		assert.Equal(t, "Logged out", env.Message)
	})
}
