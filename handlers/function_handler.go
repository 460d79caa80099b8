package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bert-gateway/models"
	"bert-gateway/services"
)

// ExecutionHistory lists recorded executions
type ExecutionHistory interface {
	ListExecutions(ctx context.Context, language string, limit int) ([]models.ExecutionRecord, error)
}

type FunctionHandler struct {
	service *services.ExecutionService
	history ExecutionHistory
}

func NewFunctionHandler(svc *services.ExecutionService, history ExecutionHistory) *FunctionHandler {
	return &FunctionHandler{service: svc, history: history}
}

// Execute godoc
// @Summary Execute a function
// @Description Run a function in the requested language runtime and wait for its result
// @Tags functions
// @Accept json
// @Produce json
// @Param request body models.ExecuteRequest true "Function call"
// @Success 200 {object} models.ExecutionResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /functions/execute [post]
func (h *FunctionHandler) Execute(c *fiber.Ctx) error {
	var req models.ExecuteRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	call := services.NewCall(&req, c.Get("X-User-ID"))
	result, err := h.service.Execute(c.UserContext(), call)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(result)
}

// ListFunctions godoc
// @Summary List available functions
// @Description Get the function catalog of every language, or of one language
// @Tags functions
// @Produce json
// @Param language query string false "Language filter"
// @Success 200 {object} models.FunctionListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /functions [get]
func (h *FunctionHandler) ListFunctions(c *fiber.Ctx) error {
	functions, err := h.service.ListFunctions(c.Query("language"))
	if err != nil {
		return errorResponse(c, err)
	}

	if functions == nil {
		functions = []models.FunctionInfo{}
	}
	return c.JSON(models.FunctionListResponse{Functions: functions})
}

// ListExecutions godoc
// @Summary List recent executions
// @Description Get the execution history, newest first
// @Tags functions
// @Produce json
// @Param language query string false "Language filter"
// @Param limit query int false "Limit (default 20, max 100)"
// @Success 200 {array} models.ExecutionRecord
// @Failure 500 {object} models.ErrorResponse
// @Router /executions [get]
func (h *FunctionHandler) ListExecutions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := h.history.ListExecutions(c.UserContext(), c.Query("language"), limit)
	if err != nil {
		return errorResponse(c, err)
	}

	if records == nil {
		records = []models.ExecutionRecord{}
	}
	return c.JSON(records)
}
