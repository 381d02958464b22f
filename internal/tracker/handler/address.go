package handler

import (
	"net/http"
	"strconv"
	"strings"

	"meme-radar/internal/tracker/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultAddressLimit = 100
	maxAddressLimit     = 1000
)

type AddressHandler struct {
	addrs  *service.AddressService
	logger *zap.Logger
}

func NewAddressHandler(addrs *service.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{addrs: addrs, logger: logger}
}

// ListAddresses GET /api/addresses?tokens=a,b&search=&promising=marked|unmarked|all&limit=&offset=
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	q, err := parseViewQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.addrs.ListAddresses(c.Request.Context(), q)
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":   page.Items,
		"total":  page.Total,
		"limit":  q.Limit,
		"offset": q.Offset,
	})
}

// parseViewQuery promising 缺省为 marked，all 表示不过滤
func parseViewQuery(c *gin.Context) (service.ViewQuery, error) {
	q := service.ViewQuery{
		Search:    c.Query("search"),
		Promising: c.DefaultQuery("promising", service.PromisingMarked),
		Limit:     defaultAddressLimit,
	}
	if q.Promising == "all" {
		q.Promising = ""
	}
	for _, raw := range c.QueryArray("tokens") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				q.TokenIDs = append(q.TokenIDs, id)
			}
		}
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, errInvalidParam("limit")
		}
		q.Limit = min(n, maxAddressLimit)
	}
	if s := c.Query("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, errInvalidParam("offset")
		}
		q.Offset = n
	}
	return q, nil
}

// Stats GET /api/addresses/stats
func (h *AddressHandler) Stats(c *gin.Context) {
	stats, err := h.addrs.Stats(c.Request.Context())
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, stats)
}

// TogglePromising POST /api/addresses/:id/toggle
func (h *AddressHandler) TogglePromising(c *gin.Context) {
	rec, err := h.addrs.TogglePromising(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, rec)
}

// DeleteAddress DELETE /api/addresses/:id
func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	if err := h.addrs.DeleteAddress(c.Request.Context(), c.Param("id")); err != nil {
		sendError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
