package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PriceRefresher *job.PriceRefresh 满足
type PriceRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

type PriceHandler struct {
	prices PriceRefresher
	logger *zap.Logger
}

func NewPriceHandler(prices PriceRefresher, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{prices: prices, logger: logger}
}

// Refresh POST /api/tokens/prices/refresh
func (h *PriceHandler) Refresh(c *gin.Context) {
	n, err := h.prices.Refresh(c.Request.Context())
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, gin.H{"refreshed": n})
}
