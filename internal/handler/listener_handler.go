// internal/handler/listener_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-emulator/internal/protocol"
	"receipt-emulator/internal/utils"
)

// ListenerHandler reports on the printer ports
type ListenerHandler struct {
	listeners []protocol.Listener
	listPorts func() ([]string, error)
	logger    *utils.ServiceLogger
}

// NewListenerHandler creates a new listener handler
func NewListenerHandler(listeners []protocol.Listener, logger *zap.Logger) *ListenerHandler {
	return &ListenerHandler{
		listeners: listeners,
		listPorts: protocol.ListSerialPorts,
		logger:    utils.NewServiceLogger(logger, "listener-handler"),
	}
}

// ListListeners returns the status of every configured listener
// @Summary Listener status
// @Tags Listeners
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]protocol.ListenerStats} "Listeners retrieved successfully"
// @Router /listeners [get]
func (h *ListenerHandler) ListListeners(c *gin.Context) {
	stats := make([]protocol.ListenerStats, 0, len(h.listeners))
	for _, l := range h.listeners {
		stats = append(stats, l.Stats())
	}

	utils.SuccessResponse(c, http.StatusOK, "Listeners retrieved successfully", stats)
}

// ListSerialPorts returns the serial ports present on the host
// @Summary Serial ports
// @Tags Listeners
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string} "Ports retrieved successfully"
// @Failure 500 {object} utils.APIResponse "Port enumeration failed"
// @Router /ports [get]
func (h *ListenerHandler) ListSerialPorts(c *gin.Context) {
	ports, err := h.listPorts()
	if err != nil {
		h.logger.Error("Failed to list serial ports", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list serial ports", err)
		return
	}
	if ports == nil {
		ports = []string{}
	}

	utils.SuccessResponse(c, http.StatusOK, "Ports retrieved successfully", ports)
}
