package handler

import (
	"net/http"
	"strconv"

	"meme-radar/internal/tracker/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenHandler 代币配置和买家导入
type TokenHandler struct {
	tokens   *service.TokenService
	importer *service.Importer
	logger   *zap.Logger
}

func NewTokenHandler(tokens *service.TokenService, importer *service.Importer, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{tokens: tokens, importer: importer, logger: logger}
}

// ListTokens GET /api/tokens
func (h *TokenHandler) ListTokens(c *gin.Context) {
	tokens, err := h.tokens.ListTokens(c.Request.Context())
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, tokens)
}

// GetToken GET /api/tokens/:id
func (h *TokenHandler) GetToken(c *gin.Context) {
	token, err := h.tokens.GetToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, token)
}

// AddToken POST /api/tokens
func (h *TokenHandler) AddToken(c *gin.Context) {
	var in service.TokenInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.tokens.AddToken(c.Request.Context(), in)
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusCreated, res)
}

// DeleteToken DELETE /api/tokens/:id
func (h *TokenHandler) DeleteToken(c *gin.Context) {
	if err := h.tokens.DeleteToken(c.Request.Context(), c.Param("id")); err != nil {
		sendError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportBuyers POST /api/tokens/:id/import?async=true
func (h *TokenHandler) ImportBuyers(c *gin.Context) {
	id := c.Param("id")
	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if async {
		if err := h.importer.ImportTokenBuyersAsync(c.Request.Context(), id); err != nil {
			sendError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"tokenId": id, "started": true}})
		return
	}

	res, err := h.importer.ImportTokenBuyers(c.Request.Context(), id)
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, res)
}

// ImportStatus GET /api/tokens/:id/import
func (h *TokenHandler) ImportStatus(c *gin.Context) {
	status, ok := h.importer.Status(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no import recorded for this token"})
		return
	}
	sendData(c, http.StatusOK, status)
}
