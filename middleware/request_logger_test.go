package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedRequest(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	app := fiber.New()
	app.Use(RequestLogger(logrus.NewEntry(logger)))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "boom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestRequestLoggerLevels(t *testing.T) {
	entry := loggedRequest(t, "/ok")
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(200), entry["status"])

	entry = loggedRequest(t, "/missing")
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, "request rejected", entry["msg"])

	entry = loggedRequest(t, "/boom")
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, float64(500), entry["status"])
	assert.Equal(t, "boom", entry["error"])
}
