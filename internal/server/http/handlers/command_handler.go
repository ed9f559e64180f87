package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
	"github.com/polkiloo/printerd/internal/server/http/dto"
)

// CommandHandler accepts operator commands over HTTP.
type CommandHandler struct {
	facade CommandFacade
}

// NewCommandHandler constructs CommandHandler.
func NewCommandHandler(facade CommandFacade) *CommandHandler {
	return &CommandHandler{facade: facade}
}

// Submit handles POST /printer/commands.
func (h *CommandHandler) Submit(c *gin.Context) {
	var req dto.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	cmdType := model.CommandType(strings.TrimSpace(req.CommandType))
	if cmdType == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	cmd, err := h.facade.SubmitCommand(c.Request.Context(), cmdType, strings.TrimSpace(req.OrderID))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidCommand), errors.Is(err, domainErrors.ErrUnknownCommand):
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, domainErrors.ErrAlreadyExists):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, dto.CommandResponse{
		ID:        cmd.ID,
		Type:      cmd.Type,
		OrderID:   cmd.OrderID,
		CreatedAt: cmd.CreatedAt,
	})
}
