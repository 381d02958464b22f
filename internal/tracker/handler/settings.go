package handler

import (
	"net/http"
	"strconv"

	"meme-radar/internal/tracker/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settings *service.SettingsService
	logger   *zap.Logger
}

func NewSettingsHandler(settings *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// Status GET /api/settings/status?probe=true
func (h *SettingsHandler) Status(c *gin.Context) {
	probe, _ := strconv.ParseBool(c.DefaultQuery("probe", "false"))
	sendData(c, http.StatusOK, h.settings.Status(c.Request.Context(), probe))
}
