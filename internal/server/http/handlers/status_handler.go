package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/printerd/internal/server/http/dto"
)

const serviceRunning = "running"

// StatusHandler serves health and printer state endpoints.
type StatusHandler struct {
	facade StatusFacade
	now    func() time.Time
}

// NewStatusHandler constructs StatusHandler.
func NewStatusHandler(facade StatusFacade) *StatusHandler {
	return &StatusHandler{facade: facade, now: time.Now}
}

// Health handles GET /health.
func (h *StatusHandler) Health(c *gin.Context) {
	var printer any = dto.DisconnectedPrinter{}
	if status, ready := h.facade.PrinterStatus(); ready {
		printer = status
	}
	c.JSON(http.StatusOK, dto.HealthResponse{
		Service:   serviceRunning,
		Printer:   printer,
		Timestamp: h.now().UTC(),
	})
}

// Printer handles GET /printer/status.
func (h *StatusHandler) Printer(c *gin.Context) {
	status, ready := h.facade.PrinterStatus()
	if !ready {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "printer manager not initialized"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Queue handles GET /printer/queue.
func (h *StatusHandler) Queue(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.QueueStats())
}

// Metrics handles GET /printer/metrics.
func (h *StatusHandler) Metrics(c *gin.Context) {
	counters, err := h.facade.Metrics(c.Request.Context())
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, counters)
}
