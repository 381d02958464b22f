package dune

import (
	"context"
	"fmt"
	"time"

	"meme-radar/internal/tracker/monitor"
	"meme-radar/pkg/httpclient"

	"go.uber.org/zap"
)

// AwaitResult 等待执行结束并返回结果行
//
// 先等 initialDelay（Dune 的查询基本不会更快完成），之后每 pollInterval 查一次。
// 网络错误和 5xx 在预算内重试，FAILED 直接返回 *QueryFailedError。
// 下一次 sleep 会达到 maxWait 时返回 ErrTimeout。maxWait<=0 使用配置值。
func (c *Client) AwaitResult(ctx context.Context, executionID string, maxWait time.Duration) ([]Row, error) {
	if maxWait <= 0 {
		maxWait = c.maxWait
	}
	log := c.logger.With(zap.String("execution_id", executionID))
	start := c.now()

	// 首次检查不晚于 maxWait
	delay := min(c.initialDelay, maxWait)
	log.Info("waiting before first status check", zap.Duration("initial_delay", delay), zap.Duration("max_wait", maxWait))
	if err := c.sleep(ctx, delay); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		result, err := c.GetResult(ctx, executionID)
		switch {
		case err == nil:
			state := result.NormalizedState()
			monitor.DunePollChecks.WithLabelValues(state).Inc()
			log.Debug("execution status", zap.Int("attempt", attempt), zap.String("state", state), zap.Bool("finished", result.IsExecutionFinished))

			switch state {
			case StateCompleted:
				var rows []Row
				if result.Result != nil {
					rows = result.Result.Rows
				}
				log.Info("execution completed", zap.Int("attempt", attempt), zap.Int("rows", len(rows)))
				return rows, nil
			case StateFailed:
				return nil, &QueryFailedError{ExecutionID: executionID, Message: result.ErrorMessage()}
			}
			if result.IsExecutionFinished {
				return nil, fmt.Errorf("%w: execution finished in unexpected state %q", ErrService, result.State)
			}
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case httpclient.IsTransient(err):
			monitor.DunePollRetries.Inc()
			log.Warn("status check failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		default:
			return nil, err
		}

		if c.now().Sub(start)+c.pollInterval >= maxWait {
			return nil, fmt.Errorf("%w: no terminal state after %s (%d checks)", ErrTimeout, maxWait, attempt)
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}
