package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Pipeline stage names used as the stage attribute
const (
	StageDecode    = "decode"
	StageNormalize = "normalize"
	StageVerify    = "verify"
	StageReconcile = "reconcile"
	StageCommit    = "commit"
	StageAssemble  = "assemble"
)

// PipelineMetrics tracks the catalog import pipeline and proposal assembly
type PipelineMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	rowsVerified       *Counter
	changesPlanned     *Counter
	approvals          *Counter
	commitOutcomes     *Counter
	proposalsAssembled *Counter
	proposalValue      *Counter
	stageDuration      *Histogram

	pendingApprovals *Gauge
	openConflicts    *Gauge
	stagedBatches    *Gauge

	backlogProvider BacklogProvider

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// Backlog is a point-in-time view of the review work left
type Backlog struct {
	PendingApprovals int64
	OpenConflicts    int64
	StagedBatches    int64
}

// BacklogProvider reads the review backlog for periodic gauge collection
type BacklogProvider interface {
	Backlog(ctx context.Context) (Backlog, error)
}

// PipelineMetricsConfig holds configuration for pipeline metrics.
type PipelineMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	BacklogProvider BacklogProvider
}

// NewPipelineMetrics creates a new PipelineMetrics instance.
func NewPipelineMetrics(cfg PipelineMetricsConfig) (*PipelineMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PipelineMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		backlogProvider: cfg.BacklogProvider,
		stopChan:        make(chan struct{}),
	}

	counters := []struct {
		dst                     **Counter
		name, description, unit string
	}{
		{&pm.rowsVerified, "flowsales_rows_verified_total", "Rows verified, by verdict status", "{rows}"},
		{&pm.changesPlanned, "flowsales_changes_planned_total", "Reconciliation changes planned, by kind", "{changes}"},
		{&pm.approvals, "flowsales_approvals_total", "Approval decisions, by outcome", "{decisions}"},
		{&pm.commitOutcomes, "flowsales_commit_changes_total", "Committed changes, by outcome", "{changes}"},
		{&pm.proposalsAssembled, "flowsales_proposals_assembled_total", "Proposals assembled", "{proposals}"},
		{&pm.proposalValue, "flowsales_proposal_value_total", "Sum of assembled proposal totals in cents", "{cents}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	pm.stageDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "flowsales_stage_duration_seconds",
		Description: "Duration of pipeline stages",
		Unit:        "s",
		Boundaries:  StageDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	gauges := []struct {
		dst                     **Gauge
		name, description, unit string
	}{
		{&pm.pendingApprovals, "flowsales_pending_approvals", "Catalog entries awaiting review", "{entries}"},
		{&pm.openConflicts, "flowsales_open_conflicts", "Catalog entries blocked by a conflict", "{entries}"},
		{&pm.stagedBatches, "flowsales_staged_batches", "Upload batches staged but not committed", "{batches}"},
	}
	for _, g := range gauges {
		gauge, err := NewGauge(cfg.Meter, g.name, g.description, g.unit)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}

	return pm, nil
}

// RecordVerdicts records one verification pass; counts are keyed by status
func (pm *PipelineMetrics) RecordVerdicts(ctx context.Context, counts map[string]int) {
	for status, n := range counts {
		if n > 0 {
			pm.rowsVerified.Add(ctx, int64(n), AttrVerdictStatus.String(status))
		}
	}
}

// RecordPlan records the change kinds of a reconciliation plan
func (pm *PipelineMetrics) RecordPlan(ctx context.Context, counts map[string]int) {
	for kind, n := range counts {
		if n > 0 {
			pm.changesPlanned.Add(ctx, int64(n), AttrChangeKind.String(kind))
		}
	}
}

// RecordApproval records one approval decision. Outcomes are approved,
// rejected, unchanged or failed.
func (pm *PipelineMetrics) RecordApproval(ctx context.Context, outcome string) {
	pm.approvals.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordCommit records the per-change outcome counts of a batch commit
func (pm *PipelineMetrics) RecordCommit(ctx context.Context, applied, stale, failed int) {
	for outcome, n := range map[string]int{"applied": applied, "stale": stale, "failed": failed} {
		if n > 0 {
			pm.commitOutcomes.Add(ctx, int64(n), AttrOutcome.String(outcome))
		}
	}
}

// RecordProposal records an assembled proposal and its total
func (pm *PipelineMetrics) RecordProposal(ctx context.Context, total decimal.Decimal) {
	pm.proposalsAssembled.Inc(ctx)
	pm.proposalValue.Add(ctx, total.Shift(2).Round(0).IntPart())
}

// ObserveStage records how long a pipeline stage took
func (pm *PipelineMetrics) ObserveStage(ctx context.Context, stage string, d time.Duration) {
	pm.stageDuration.RecordDuration(ctx, d, AttrStage.String(stage))
}

// RecordBacklog records the backlog gauges
func (pm *PipelineMetrics) RecordBacklog(ctx context.Context, b Backlog) {
	pm.pendingApprovals.Record(ctx, b.PendingApprovals)
	pm.openConflicts.Record(ctx, b.OpenConflicts)
	pm.stagedBatches.Record(ctx, b.StagedBatches)
}

// StartPeriodicCollection starts periodic collection of the backlog gauges.
// This is non-blocking - use Stop() to stop collection.
func (pm *PipelineMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	pm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go pm.runPeriodicCollection(ctx, interval)
	})
}

func (pm *PipelineMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pm.collectBacklog(ctx)

	for {
		select {
		case <-pm.stopChan:
			pm.logger.Info("Stopping periodic pipeline metrics collection")
			return
		case <-ctx.Done():
			pm.logger.Info("Context cancelled, stopping periodic pipeline metrics collection")
			return
		case <-ticker.C:
			pm.collectBacklog(ctx)
		}
	}
}

func (pm *PipelineMetrics) collectBacklog(ctx context.Context) {
	if pm.backlogProvider == nil {
		pm.logger.Debug("No backlog provider configured, skipping backlog collection")
		return
	}
	backlog, err := pm.backlogProvider.Backlog(ctx)
	if err != nil {
		pm.logger.Warn("Failed to read review backlog", zap.Error(err))
		return
	}
	pm.RecordBacklog(ctx, backlog)
}

// Stop stops the periodic collection.
func (pm *PipelineMetrics) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPipelineMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Pipeline attribute keys
var (
	AttrVerdictStatus = attribute.Key("verdict_status")
	AttrChangeKind    = attribute.Key("change_kind")
	AttrOutcome       = attribute.Key("outcome")
	AttrStage         = attribute.Key("stage")
)
