package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func newLimitedApp(max int) *fiber.App {
	app := fiber.New(fiber.Config{ProxyHeader: fiber.HeaderXForwardedFor})
	app.Use(RateLimit(max, time.Minute, quietLogger()))
	app.Get("/api/functions", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.SendString("up")
	})
	return app
}

func statusFrom(t *testing.T, app *fiber.App, path, client string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(fiber.HeaderXForwardedFor, client)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRateLimitKeysByClient(t *testing.T) {
	app := newLimitedApp(3)

	var got []int
	for _, client := range []string{"10.0.0.1", "10.0.0.1", "10.0.0.1", "10.0.0.1", "10.0.0.2"} {
		got = append(got, statusFrom(t, app, "/api/functions", client))
	}
	assert.Equal(t, []int{200, 200, 200, 429, 200}, got)

	// the first client stays limited after others were served
	assert.Equal(t, http.StatusTooManyRequests, statusFrom(t, app, "/api/functions", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, statusFrom(t, app, "/api/functions", "10.0.0.3"))
}

func TestRateLimitSkipsHealth(t *testing.T) {
	app := newLimitedApp(1)

	assert.Equal(t, http.StatusOK, statusFrom(t, app, "/api/functions", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, statusFrom(t, app, "/api/functions", "10.0.0.1"))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, statusFrom(t, app, "/api/health", "10.0.0.1"))
	}
}
