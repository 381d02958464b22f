package handler

import (
	"io"

	"meme-radar/internal/tracker/model"
	"meme-radar/internal/tracker/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StreamHandler 用 SSE 推送集合快照，连接断开即取消订阅
type StreamHandler struct {
	hub    *notify.Hub
	logger *zap.Logger
}

func NewStreamHandler(hub *notify.Hub, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, logger: logger}
}

// Addresses GET /api/addresses/stream
func (h *StreamHandler) Addresses(c *gin.Context) {
	h.stream(c, model.CollectionAddresses)
}

// Tokens GET /api/tokens/stream
func (h *StreamHandler) Tokens(c *gin.Context) {
	h.stream(c, model.CollectionTokens)
}

func (h *StreamHandler) stream(c *gin.Context, collection string) {
	cancel, snapshots, err := h.hub.Subscribe(c.Request.Context(), collection)
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		snap, ok := <-snapshots
		if !ok {
			return false
		}
		c.SSEvent("snapshot", snap)
		return true
	})
	h.logger.Debug("stream closed", zap.String("collection", collection))
}
