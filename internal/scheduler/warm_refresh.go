package scheduler

import (
	"context"
	"time"

	"github.com/aristath/stock-scout/internal/modules/recommendations"
	"github.com/rs/zerolog"
)

// WarmRefreshJob re-runs one strategy's pipeline on a schedule so the
// candidate cache stays warm and the latest persisted run stays current.
// Scheduled runs never force-refresh; they go through the normal TTL path.
type WarmRefreshJob struct {
	service  *recommendations.Service
	strategy string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewWarmRefreshJob creates a warm-refresh job for one strategy.
func NewWarmRefreshJob(service *recommendations.Service, strategy string, timeout time.Duration, log zerolog.Logger) *WarmRefreshJob {
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return &WarmRefreshJob{
		service:  service,
		strategy: strategy,
		timeout:  timeout,
		log:      log.With().Str("job", "warm_refresh").Str("strategy", strategy).Logger(),
	}
}

// Name returns the job name
func (j *WarmRefreshJob) Name() string {
	return "warm_refresh_" + j.strategy
}

// Run executes one pipeline run with the strategy's defaults.
func (j *WarmRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.service.Run(ctx, recommendations.RunOptions{Strategy: j.strategy})
	if err != nil {
		return err
	}

	j.log.Debug().
		Int("recommendations", len(result.Recommendations)).
		Strs("degraded", result.Meta.DegradedCategories).
		Msg("Warm refresh complete")

	return nil
}
