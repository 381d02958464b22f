package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"resty.dev/v3"
)

const maxErrorBody = 4096

var (
	ErrConfig   = errors.New("api not configured")
	ErrAuth     = errors.New("authentication failed")
	ErrNotFound = errors.New("resource not found")
	ErrService  = errors.New("service error")
)

// HTTPClientConfig 配置参数
type HTTPClientConfig struct {
	Timeout      time.Duration // 请求超时时间
	RateLimit    int           // 每分钟请求次数，<=0 不限流
	MaxRetries   int           // 最大重试次数，<0 使用默认值
	UserAgent    string        // 可选 User-Agent
	APIKey       string
	APIKeyHeader string // 默认 X-API-Key
}

// HTTPClient 是一个通用的 HTTP 客户端
type HTTPClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewHTTPClient 创建一个新的 HTTP 客户端
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-API-Key"
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(float64(cfg.RateLimit) / 60)
	}
	limiter := rate.NewLimiter(limit, 1)

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
			limiterCtx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()

			if err := limiter.Wait(limiterCtx); err != nil {
				logger.Warn("Rate limiter wait failed", zap.Error(err))
				return err
			}
			if cfg.UserAgent != "" {
				r.SetHeader("User-Agent", cfg.UserAgent)
			}
			if cfg.APIKey != "" {
				r.SetHeader(cfg.APIKeyHeader, cfg.APIKey)
			}
			logger.Debug("Outgoing request", zap.String("method", r.Method), zap.String("url", r.URL))
			return nil
		}).
		AddResponseMiddleware(func(c *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() >= 400 {
				logger.Warn("HTTP request failed",
					zap.Int("status", resp.StatusCode()),
					zap.String("url", resp.Request.URL),
				)
			}
			return nil
		})

	return &HTTPClient{
		client:  restyClient,
		logger:  logger,
		limiter: limiter,
	}
}

// Get 发起 GET 请求，2xx 时把 JSON 响应体解码到 out
func (c *HTTPClient) Get(ctx context.Context, url string, queryParams map[string]string, headers map[string]string, out interface{}) error {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(queryParams)
	return c.do(req, http.MethodGet, url, headers, out)
}

// PostJSON 发起 JSON POST 请求
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body interface{}, headers map[string]string, out interface{}) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	req := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetHeader("Content-Type", "application/json")
	return c.do(req, http.MethodPost, url, headers, out)
}

func (c *HTTPClient) do(req *resty.Request, method, url string, headers map[string]string, out interface{}) error {
	if headers != nil {
		req.SetHeaders(headers)
	}
	// 自己解析响应体，错误体需要原样带回
	req.SetDoNotParseResponse(true)

	resp, err := req.Execute(method, url)
	if err != nil {
		c.logger.Error("HTTP request failed", zap.String("method", method), zap.String("url", url), zap.Error(err))
		return err
	}
	body := resp.RawResponse.Body
	defer body.Close()

	if resp.StatusCode() >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		return &HTTPError{Code: resp.StatusCode(), Message: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrService, err)
	}
	return nil
}

// HTTPError 非 2xx 响应，带状态码和响应体
type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.Code, e.Message)
}

// Unwrap 401 -> ErrAuth, 404 -> ErrNotFound, 其余 -> ErrService
func (e *HTTPError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return ErrAuth
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrService
	}
}

// IsTransient 网络错误和 5xx/429 可以重试
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code >= 500 || httpErr.Code == http.StatusTooManyRequests
	}
	return !errors.Is(err, ErrConfig) && !errors.Is(err, ErrService)
}
