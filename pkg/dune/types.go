package dune

import (
	"fmt"
	"strings"
)

// Row 查询结果的一行，字段由 Dune 上的 SQL 决定
type Row = map[string]interface{}

const (
	StatePending   = "PENDING"
	StateExecuting = "EXECUTING"
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
	StateCancelled = "CANCELLED"
)

type executeRequest struct {
	QueryParameters map[string]string `json:"query_parameters,omitempty"`
}

type ExecuteResponse struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
}

type ResultData struct {
	Rows     []Row          `json:"rows"`
	Metadata ResultMetadata `json:"metadata"`
}

type ResultMetadata struct {
	ColumnNames []string `json:"column_names"`
	RowCount    int      `json:"row_count"`
}

// ExecutionResult GET /execution/{id}/results
type ExecutionResult struct {
	ExecutionID         string      `json:"execution_id"`
	QueryID             int         `json:"query_id"`
	State               string      `json:"state"`
	IsExecutionFinished bool        `json:"is_execution_finished"`
	Result              *ResultData `json:"result,omitempty"`
	Error               interface{} `json:"error,omitempty"` // string 或 {message}
}

// NormalizedState 去掉 QUERY_STATE_ 前缀
func (r *ExecutionResult) NormalizedState() string {
	return NormalizeState(r.State)
}

// ErrorMessage 取出 Dune 返回的错误信息
func (r *ExecutionResult) ErrorMessage() string {
	switch e := r.Error.(type) {
	case nil:
		return ""
	case string:
		return e
	case map[string]interface{}:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
		return fmt.Sprint(e)
	default:
		return fmt.Sprint(e)
	}
}

func NormalizeState(state string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(state)), "QUERY_STATE_")
}
