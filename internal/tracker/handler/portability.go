package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"meme-radar/internal/tracker/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxBlobBytes = 32 << 20

type PortabilityHandler struct {
	svc    *service.PortabilityService
	logger *zap.Logger
}

func NewPortabilityHandler(svc *service.PortabilityService, logger *zap.Logger) *PortabilityHandler {
	return &PortabilityHandler{svc: svc, logger: logger}
}

// Export GET /api/export
func (h *PortabilityHandler) Export(c *gin.Context) {
	data, err := h.svc.ExportJSON(c.Request.Context())
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	name := fmt.Sprintf("meme-radar-%s.json", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Import POST /api/import，body 是导出的 blob 或旧版 store
func (h *PortabilityHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBlobBytes))
	if err != nil {
		badRequest(c, err)
		return
	}
	blob, err := service.ParseLegacyBlob(data)
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	res, err := h.svc.Import(c.Request.Context(), blob)
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, res)
}
