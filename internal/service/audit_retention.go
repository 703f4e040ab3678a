package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vitalora/staffgate/config"
	"github.com/vitalora/staffgate/internal/observability/tracing"
	"github.com/vitalora/staffgate/internal/ports"
)

// AuditRetentionServiceOptions groups dependencies for AuditRetentionService.
type AuditRetentionServiceOptions struct {
	Pruner ports.AuditPruner  // Required: audit repository
	Config config.AuditConfig // Required: retention and cron schedule
	Logger *slog.Logger       // Optional: structured logger
}

// AuditRetentionService deletes login audit entries older than the retention window on a cron schedule.
type AuditRetentionService struct {
	pruner    ports.AuditPruner
	retention time.Duration
	schedule  cron.Schedule
	spec      string
	now       func() time.Time
	logger    *slog.Logger
}

// NewAuditRetentionService validates the schedule and constructs the service.
func NewAuditRetentionService(opts AuditRetentionServiceOptions) (*AuditRetentionService, error) {
	if opts.Pruner == nil {
		return nil, errors.New("AuditPruner is required")
	}
	if opts.Config.Retention <= 0 {
		return nil, errors.New("audit retention must be positive")
	}
	schedule, err := cron.ParseStandard(opts.Config.PruneSchedule)
	if err != nil {
		return nil, fmt.Errorf("parse audit prune schedule %q: %w", opts.Config.PruneSchedule, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditRetentionService{
		pruner:    opts.Pruner,
		retention: opts.Config.Retention,
		schedule:  schedule,
		spec:      opts.Config.PruneSchedule,
		now:       time.Now,
		logger:    logger.With("component", "audit_retention"),
	}, nil
}

// Next reports when the next prune runs after t.
func (s *AuditRetentionService) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run prunes on every scheduled tick until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *AuditRetentionService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting audit retention service",
		"schedule", s.spec,
		"retention", s.retention,
	)

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.InfoContext(ctx, "audit retention service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-timer.C:
			if _, err := s.PruneOnce(ctx); err != nil && !isContextCancellation(err) {
				s.logger.ErrorContext(ctx, "audit prune failed", "error", err)
			}
		}
	}
}

// PruneOnce deletes entries older than the retention window and returns how many were removed.
func (s *AuditRetentionService) PruneOnce(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartPruneSpan(ctx)

	cutoff := s.now().Add(-s.retention)
	start := time.Now()
	deleted, err := s.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		tracing.EndSpan(span, "error", err)
		return deleted, fmt.Errorf("prune audit events before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	tracing.EndSpan(span, "success", nil)

	s.logger.InfoContext(ctx, "pruned login audit events",
		"count", deleted,
		"cutoff", cutoff,
		"duration", time.Since(start),
	)
	return deleted, nil
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
