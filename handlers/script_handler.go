package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bert-gateway/services"
)

// scriptKeyPrefix is the first segment of every archive key, see
// services.GenerateScriptKey
const scriptKeyPrefix = "scripts/"

type ScriptHandler struct {
	storage services.StorageService
}

func NewScriptHandler(storage services.StorageService) *ScriptHandler {
	return &ScriptHandler{storage: storage}
}

// GetScript godoc
// @Summary Get an archived script
// @Description Return the generated worker script behind the script_key of a debug-mode call
// @Tags scripts
// @Produce plain
// @Param key path string true "Script key without the scripts/ prefix"
// @Success 200 {string} string
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /scripts/{key} [get]
func (h *ScriptHandler) GetScript(c *fiber.Ctx) error {
	key, err := scriptKey(c)
	if err != nil {
		return errorResponse(c, err)
	}

	script, err := h.storage.GetScript(c.UserContext(), key)
	if err != nil {
		return errorResponse(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(script)
}

// DeleteScript godoc
// @Summary Delete an archived script
// @Tags scripts
// @Param key path string true "Script key without the scripts/ prefix"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Router /scripts/{key} [delete]
func (h *ScriptHandler) DeleteScript(c *fiber.Ctx) error {
	key, err := scriptKey(c)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.storage.DeleteScript(c.UserContext(), key); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// scriptKey rebuilds the archive key from the wildcard, so a client can GET
// /api/ + script_key.
func scriptKey(c *fiber.Ctx) (string, error) {
	rest := strings.Trim(c.Params("*"), "/")
	if rest == "" {
		return "", &services.Error{Kind: services.KindValidation, Message: "Missing script key"}
	}
	return scriptKeyPrefix + rest, nil
}
