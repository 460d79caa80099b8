package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bert-gateway/models"
	"bert-gateway/services"
)

type SessionHandler struct {
	store services.SessionStore
}

func NewSessionHandler(store services.SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// CreateSession godoc
// @Summary Upload data or a script
// @Description Store tabular data (first row is the header) or script text for later jobs
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body models.CreateSessionRequest true "Session payload"
// @Success 200 {object} models.CreateSessionResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req models.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	session, err := h.store.Put(c.UserContext(), models.SessionPayload{
		Kind:   req.Kind,
		Data:   req.Data,
		Script: req.Script,
	}, req.FileName)
	if err != nil {
		return jobErrorResponse(c, err, "")
	}

	resp := models.CreateSessionResponse{
		Success:   true,
		SessionID: session.ID,
		Kind:      session.Kind,
		FileName:  session.FileName,
	}
	switch session.Kind {
	case models.SessionData:
		resp.Rows = len(session.Data) - 1
		resp.Columns = len(session.Data[0])
	case models.SessionScript:
		dialect := services.DialectForFile(session.FileName)
		resp.Functions = dialect.Functions(session.Script)
		resp.Libraries = dialect.Libraries(session.Script)
		resp.LinesCount = len(strings.Split(session.Script, "\n"))
	}
	return c.JSON(resp)
}
