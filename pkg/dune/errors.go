package dune

import (
	"errors"
	"fmt"

	"meme-radar/pkg/httpclient"
)

var (
	ErrConfig   = httpclient.ErrConfig
	ErrAuth     = httpclient.ErrAuth
	ErrNotFound = httpclient.ErrNotFound
	ErrService  = httpclient.ErrService

	ErrQueryFailed = errors.New("query execution failed")
	ErrTimeout     = errors.New("query execution timed out")
)

// QueryFailedError Dune 报告查询失败，不重试
type QueryFailedError struct {
	ExecutionID string
	Message     string
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query execution %s failed: %s", e.ExecutionID, e.Message)
}

func (e *QueryFailedError) Unwrap() error {
	return ErrQueryFailed
}
