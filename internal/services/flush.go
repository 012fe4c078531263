package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/planwise/backend/domain"
	"github.com/planwise/backend/internal/infrastructure/buffer"
	"github.com/planwise/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// FlusherConfig controls how frequently the buffer is drained.
type FlusherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// SnapshotFlusher replays buffered snapshot saves into the primary stores
// once the monitor reports them reachable. Buffered saves carry the version
// the coordinator assigned, so a replay that hits a version conflict means a
// newer snapshot already landed and the item is dropped, not retried.
type SnapshotFlusher struct {
	store     *buffer.Store
	monitor   ConnectionHealth
	plans     repository.PlanRepository
	schedules repository.ScheduleRepository
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       FlusherConfig
}

func NewSnapshotFlusher(
	store *buffer.Store,
	monitor ConnectionHealth,
	plans repository.PlanRepository,
	schedules repository.ScheduleRepository,
	logger *zap.Logger,
	cfg FlusherConfig,
) *SnapshotFlusher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sf := &SnapshotFlusher{
		store:     store,
		monitor:   monitor,
		plans:     plans,
		schedules: schedules,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = sf.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sf.Drain(ctx); err != nil {
			sf.logger.Error("buffer drain failed", zap.Error(err))
		}
	})

	return sf
}

// Start launches the cron scheduler.
func (sf *SnapshotFlusher) Start() {
	if sf == nil || sf.cron == nil {
		return
	}
	sf.cron.Start()
	sf.logger.Info("snapshot flusher started")
}

// Stop gracefully stops the scheduler.
func (sf *SnapshotFlusher) Stop(ctx context.Context) {
	if sf == nil || sf.cron == nil {
		return
	}
	stopCtx := sf.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sf.logger.Info("snapshot flusher stopped")
}

// Drain replays buffered items synchronously.
func (sf *SnapshotFlusher) Drain(ctx context.Context) error {
	if sf == nil || sf.store == nil {
		return nil
	}
	if sf.monitor != nil && !sf.monitor.IsOnline() {
		sf.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := sf.store.GetBatch(sf.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		err := sf.replayItem(ctx, item)
		if err == nil {
			if err := sf.store.Remove(item); err != nil {
				sf.logger.Warn("failed to remove flushed buffer item",
					zap.String("item_id", item.ID),
					zap.Error(err))
			}
			continue
		}

		if errors.Is(err, domain.ErrVersionConflict) {
			sf.logger.Warn("dropping buffered snapshot (version already stored)",
				zap.String("item_id", item.ID),
				zap.String("kind", string(item.Kind)),
				zap.String("version", item.Version))
			_ = sf.store.Remove(item)
			continue
		}

		sf.logger.Error("failed to replay buffer item",
			zap.String("item_id", item.ID),
			zap.String("kind", string(item.Kind)),
			zap.Error(err))

		item.Retries++
		if item.Retries >= sf.cfg.MaxRetries {
			sf.logger.Warn("dropping buffer item (max retries reached)",
				zap.String("item_id", item.ID))
			_ = sf.store.Remove(item)
			continue
		}
		if err := sf.store.Requeue(item); err != nil {
			sf.logger.Error("failed to requeue buffer item", zap.Error(err))
		}
	}

	return nil
}

func (sf *SnapshotFlusher) replayItem(ctx context.Context, item buffer.Item) error {
	switch item.Kind {
	case buffer.KindPlan:
		var plan domain.Plan
		if err := json.Unmarshal(item.Data, &plan); err != nil {
			return fmt.Errorf("decode buffered plan: %w", err)
		}
		if err := plan.Reindex(); err != nil {
			return err
		}
		_, err := sf.plans.SaveNewVersion(ctx, &plan)
		return err
	case buffer.KindSchedule:
		var schedule domain.Schedule
		if err := json.Unmarshal(item.Data, &schedule); err != nil {
			return fmt.Errorf("decode buffered schedule: %w", err)
		}
		if err := schedule.Reindex(); err != nil {
			return err
		}
		_, err := sf.schedules.SaveNewVersion(ctx, &schedule)
		return err
	default:
		return fmt.Errorf("unknown buffer item kind %q", item.Kind)
	}
}
