package service

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	APIUnset   = "unset"
	APISet     = "set"
	APISuccess = "success"
	APIError   = "error"

	probeTimeout = 15 * time.Second
)

// APIStatus 单个外部 API 的配置 / 连通状态
type APIStatus struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// APIProbe 一个外部 API 的检查项
type APIProbe struct {
	Name       string
	Configured func() bool
	Check      func(ctx context.Context) error
}

type SettingsService struct {
	probes []APIProbe
	logger *zap.Logger
}

func NewSettingsService(probes []APIProbe, logger *zap.Logger) *SettingsService {
	return &SettingsService{probes: probes, logger: logger.With(zap.String("component", "settings"))}
}

// Status probe=false 只看配置，probe=true 并发做连通性检查
func (s *SettingsService) Status(ctx context.Context, probe bool) []APIStatus {
	p := pool.NewWithResults[APIStatus]()
	for _, pr := range s.probes {
		p.Go(func() APIStatus {
			return s.status(ctx, pr, probe)
		})
	}
	results := p.Wait()

	// pool 不保证顺序，按注册顺序返回
	byName := make(map[string]APIStatus, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	out := make([]APIStatus, 0, len(s.probes))
	for _, pr := range s.probes {
		out = append(out, byName[pr.Name])
	}
	return out
}

func (s *SettingsService) status(ctx context.Context, pr APIProbe, probe bool) APIStatus {
	st := APIStatus{Name: pr.Name, State: APIUnset}
	if !pr.Configured() {
		return st
	}
	st.State = APISet
	if !probe || pr.Check == nil {
		return st
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	started := time.Now()
	err := pr.Check(ctx)
	st.Latency = time.Since(started).Round(time.Millisecond).String()
	if err != nil {
		s.logger.Warn("api probe failed", zap.String("api", pr.Name), zap.Error(err))
		st.State = APIError
		st.Message = err.Error()
		return st
	}
	st.State = APISuccess
	return st
}
