package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var errNoClientIP = errors.New("no client ip in x-forwarded-for")

// requireClientIP extracts the caller's IP from the x-forwarded-for
// header. Proxies append to the header comma-separated, the first entry
// is the original client. A beacon without the header is rejected
// before any enrichment or write.
func requireClientIP(c *fiber.Ctx) (string, error) {
	forwarded := c.Get("x-forwarded-for")
	if forwarded == "" {
		return "", errNoClientIP
	}
	ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
	if ip == "" {
		return "", errNoClientIP
	}
	return ip, nil
}
