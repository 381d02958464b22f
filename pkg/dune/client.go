package dune

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"meme-radar/internal/tracker/config"
	"meme-radar/internal/tracker/monitor"
	"meme-radar/pkg/httpclient"

	"go.uber.org/zap"
)

const (
	defaultBaseURL      = "https://api.dune.com/api/v1"
	defaultInitialDelay = 60 * time.Second
	defaultPollInterval = 20 * time.Second
	defaultMaxWait      = 300 * time.Second
)

type Client struct {
	cfg          config.DuneConfig
	baseURL      string
	initialDelay time.Duration
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *httpclient.HTTPClient
	logger       *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

// WithClock 替换时钟和 sleep，测试用
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.now = now
		c.sleep = sleep
	}
}

func NewClient(cfg config.DuneConfig, logger *zap.Logger, opts ...Option) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	// 提交不自动重试，轮询的重试由 AwaitResult 自己控制
	httpClient := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:      timeout,
		MaxRetries:   0,
		APIKey:       cfg.APIKey,
		APIKeyHeader: "X-Dune-API-Key",
	}, logger)

	c := &Client{
		cfg:          cfg,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		initialDelay: cfg.InitialDelay(),
		pollInterval: cfg.PollInterval(),
		maxWait:      cfg.MaxWait(),
		httpClient:   httpClient,
		logger:       logger.With(zap.String("component", "dune")),
		now:          time.Now,
		sleep:        sleepContext,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.initialDelay <= 0 {
		c.initialDelay = defaultInitialDelay
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.maxWait <= 0 {
		c.maxWait = defaultMaxWait
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured API key 已设置且不是占位值
func (c *Client) Configured() bool {
	return config.IsKeyConfigured(c.cfg.APIKey)
}

func (c *Client) checkKey() error {
	if !c.Configured() {
		return fmt.Errorf("%w: dune api key is missing", ErrConfig)
	}
	return nil
}

// Submit 执行一个预先定义好的查询，返回 execution id
// 空白参数不提交
func (c *Client) Submit(ctx context.Context, queryID int, params map[string]string) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}

	req := executeRequest{}
	for k, v := range params {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if req.QueryParameters == nil {
			req.QueryParameters = make(map[string]string, len(params))
		}
		req.QueryParameters[k] = v
	}

	var resp ExecuteResponse
	url := fmt.Sprintf("%s/query/%d/execute", c.baseURL, queryID)
	err := c.httpClient.PostJSON(ctx, url, req, nil, &resp)
	qid := strconv.Itoa(queryID)
	if err != nil {
		monitor.DuneQuerySubmitted.WithLabelValues(qid, "error").Inc()
		return "", fmt.Errorf("submit query %d: %w", queryID, err)
	}
	if resp.ExecutionID == "" {
		monitor.DuneQuerySubmitted.WithLabelValues(qid, "error").Inc()
		return "", fmt.Errorf("submit query %d: %w: empty execution_id", queryID, ErrService)
	}
	monitor.DuneQuerySubmitted.WithLabelValues(qid, "ok").Inc()

	c.logger.Info("query submitted",
		zap.Int("query_id", queryID),
		zap.String("execution_id", resp.ExecutionID),
		zap.Int("params", len(req.QueryParameters)),
	)
	return resp.ExecutionID, nil
}

// GetResult 查询一次执行状态
func (c *Client) GetResult(ctx context.Context, executionID string) (*ExecutionResult, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}
	var result ExecutionResult
	url := fmt.Sprintf("%s/execution/%s/results", c.baseURL, executionID)
	if err := c.httpClient.Get(ctx, url, nil, nil, &result); err != nil {
		return nil, fmt.Errorf("get execution %s: %w", executionID, err)
	}
	return &result, nil
}

// ExecuteAndWait Submit + AwaitResult
func (c *Client) ExecuteAndWait(ctx context.Context, queryID int, params map[string]string, maxWait time.Duration) ([]Row, error) {
	executionID, err := c.Submit(ctx, queryID, params)
	if err != nil {
		return nil, err
	}
	return c.AwaitResult(ctx, executionID, maxWait)
}

// Ping 提交测试查询验证 key 是否可用
func (c *Client) Ping(ctx context.Context) error {
	queryID := c.cfg.TestQueryID
	if queryID == 0 {
		queryID = c.cfg.BuyersQueryID
	}
	_, err := c.Submit(ctx, queryID, nil)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
