package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-crm/internal/deals"
	jobmetrics "github.com/odyssey-erp/odyssey-crm/internal/jobs"
)

// JobDealsChartWarmup labels warmup runs in metrics and logs.
const JobDealsChartWarmup = "deals_chart_warmup"

const (
	defaultWarmupConcurrency = 4
	warmupLoadTimeout        = 20 * time.Second
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// WarmupService is the part of deals.Service the warmup job drives.
type WarmupService interface {
	Load(ctx context.Context, filter deals.ListFilter) ([]deals.DealStage, error)
	Invalidate(ctx context.Context) error
}

// DealsWarmupJob loads every configured stage set through the cached service.
type DealsWarmupJob struct {
	Service     WarmupService
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	Concurrency int
}

// NewDealsWarmupJob wires dependencies for the warmup handler.
func NewDealsWarmupJob(service WarmupService, logger *slog.Logger, metrics *jobmetrics.Metrics) *DealsWarmupJob {
	return &DealsWarmupJob{Service: service, Logger: logger, Metrics: metrics, Concurrency: defaultWarmupConcurrency}
}

// Handle processes TaskDealsChartWarmup tasks.
func (j *DealsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("deals warmup: handler not configured")
	}
	var payload DealsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("deals warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(JobDealsChartWarmup)
	started := time.Now()
	logger := j.logger().With(slog.Bool("refresh", payload.Refresh))
	logger.Info("starting deals chart warmup")

	err := j.run(ctx, payload)
	if err != nil {
		logger.Error("deals chart warmup", slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("completed deals chart warmup", slog.Duration("duration", time.Since(started)))
	return tracker.End(nil)
}

func (j *DealsWarmupJob) run(ctx context.Context, payload DealsWarmupPayload) error {
	if payload.Refresh {
		if err := j.Service.Invalidate(ctx); err != nil {
			return fmt.Errorf("deals warmup: invalidate cache: %w", err)
		}
	}
	filters := payload.Filters()
	if len(filters) == 0 {
		j.logger().Info("no stage sets to warm")
		return nil
	}

	limit := j.Concurrency
	if limit <= 0 {
		limit = defaultWarmupConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, filter := range filters {
		g.Go(func() error {
			loadCtx, cancel := context.WithTimeout(gctx, warmupLoadTimeout)
			defer cancel()
			label := stageSetLabel(filter.Titles)
			if _, err := j.Service.Load(loadCtx, filter); err != nil {
				return fmt.Errorf("deals warmup: stage set %s: %w", label, err)
			}
			j.metrics().AddWarmed(label, 1)
			return nil
		})
	}
	return g.Wait()
}

func stageSetLabel(titles []string) string {
	sorted := append([]string(nil), titles...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func (j *DealsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", JobDealsChartWarmup))
	}
	return slog.Default().With(slog.String("job", JobDealsChartWarmup))
}

func (j *DealsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
