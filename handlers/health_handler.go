package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"bert-gateway/models"
)

type HealthHandler struct {
	version   string
	languages func() []string
}

func NewHealthHandler(version string, languages func() []string) *HealthHandler {
	return &HealthHandler{version: version, languages: languages}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	languages := []string{}
	if h.languages != nil {
		languages = append(languages, h.languages()...)
	}
	return c.JSON(models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Languages: languages,
	})
}
