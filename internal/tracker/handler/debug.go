package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"meme-radar/pkg/dune"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QueryRunner *dune.Client 满足
type QueryRunner interface {
	ExecuteAndWait(ctx context.Context, queryID int, params map[string]string, maxWait time.Duration) ([]dune.Row, error)
}

// RPCCaller *rpcgateway.Gateway 满足
type RPCCaller interface {
	Call(ctx context.Context, chain, method string, params []interface{}) (json.RawMessage, error)
}

type DebugHandler struct {
	queries QueryRunner
	rpc     RPCCaller
	logger  *zap.Logger
}

func NewDebugHandler(queries QueryRunner, rpc RPCCaller, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{queries: queries, rpc: rpc, logger: logger}
}

type debugQueryRequest struct {
	QueryID        int               `json:"query_id" binding:"required,gt=0"`
	Parameters     map[string]string `json:"parameters"`
	MaxWaitSeconds int               `json:"max_wait_seconds" binding:"gte=0,lte=3600"`
}

// RunQuery POST /api/debug/query
func (h *DebugHandler) RunQuery(c *gin.Context) {
	var req debugQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	started := time.Now()
	rows, err := h.queries.ExecuteAndWait(c.Request.Context(), req.QueryID, req.Parameters, time.Duration(req.MaxWaitSeconds)*time.Second)
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, gin.H{
		"rows":     rows,
		"count":    len(rows),
		"duration": time.Since(started).Round(time.Millisecond).String(),
	})
}

type debugRPCRequest struct {
	Chain  string        `json:"chain" binding:"required,oneof=ethereum solana"`
	Method string        `json:"method" binding:"required"`
	Params []interface{} `json:"params"`
}

// CallRPC POST /api/debug/rpc
func (h *DebugHandler) CallRPC(c *gin.Context) {
	var req debugRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.rpc.Call(c.Request.Context(), req.Chain, req.Method, req.Params)
	if err != nil {
		sendError(c, h.logger, err)
		return
	}
	sendData(c, http.StatusOK, result)
}
