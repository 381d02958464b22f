package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/notify"
	"meme-radar/internal/tracker/service"
	"meme-radar/pkg/dune"
	"meme-radar/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// statusFor 按错误类型映射 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, dao.ErrInvalidInput),
		errors.Is(err, notify.ErrUnknownCollection),
		errors.Is(err, utils.ErrUnsupportedChain),
		errors.Is(err, utils.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, dao.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dune.ErrConfig):
		return http.StatusPreconditionFailed
	case errors.Is(err, dune.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, dune.ErrAuth),
		errors.Is(err, dune.ErrNotFound),
		errors.Is(err, dune.ErrQueryFailed),
		errors.Is(err, dune.ErrService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sendError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func sendData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

func errInvalidParam(name string) error {
	return fmt.Errorf("invalid query parameter %q", name)
}

// badRequest 绑定失败一律 400，校验错误展开成字段列表
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":  "invalid request body",
		"fields": fields,
	})
}
