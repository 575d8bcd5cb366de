package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/logger"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalService moves catalog entries through approval and conflict
// resolution. It is the only writer of an entry's approval state.
type ApprovalService struct {
	entries   catalog.CatalogEntryRepository
	publisher shared.EventPublisher
	metrics   PipelineRecorder
	logger    *zap.Logger
}

// NewApprovalService creates a new ApprovalService. publisher, metrics and
// logger may be nil.
func NewApprovalService(
	entries catalog.CatalogEntryRepository,
	publisher shared.EventPublisher,
	metrics PipelineRecorder,
	log *zap.Logger,
) *ApprovalService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ApprovalService{entries: entries, publisher: publisher, metrics: metrics, logger: log}
}

// GetEntry returns one catalog entry by key
func (s *ApprovalService) GetEntry(ctx context.Context, key string) (*EntryResponse, error) {
	entry, err := s.entries.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	resp := ToEntryResponse(entry)
	return &resp, nil
}

// ListEntries returns catalog entries with the total count
func (s *ApprovalService) ListEntries(ctx context.Context, filter catalog.EntryFilter) ([]EntryResponse, int64, error) {
	entries, err := s.entries.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.entries.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToEntryResponses(entries), total, nil
}

// ListPending returns the pending, conflict-free entries of a batch
func (s *ApprovalService) ListPending(ctx context.Context, batchID uuid.UUID) ([]EntryResponse, error) {
	entries, err := s.entries.FindPendingByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return ToEntryResponses(entries), nil
}

// Approve approves one entry. Approving an approved entry changes nothing.
func (s *ApprovalService) Approve(ctx context.Context, key string) (*EntryResponse, error) {
	entry, err := s.entries.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	changed, err := entry.Approve()
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.save(ctx, entry); err != nil {
			return nil, err
		}
		s.metrics.RecordApproval(ctx, string(catalog.OutcomeApproved))
	} else {
		s.metrics.RecordApproval(ctx, string(catalog.OutcomeAlreadyApproved))
	}
	resp := ToEntryResponse(entry)
	return &resp, nil
}

// Reject rejects one entry with a reason
func (s *ApprovalService) Reject(ctx context.Context, key, reason string) (*EntryResponse, error) {
	entry, err := s.entries.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	changed, err := entry.Reject(reason)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.save(ctx, entry); err != nil {
			return nil, err
		}
	}
	resp := ToEntryResponse(entry)
	return &resp, nil
}

// ApproveAll approves every pending entry a batch introduced. Each entry is
// written on its own; entries still in conflict are reported and skipped.
func (s *ApprovalService) ApproveAll(ctx context.Context, batchID uuid.UUID) (result *ApproveAllResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ApprovalService", "ApproveAll",
		telemetry.WithAttribute(telemetry.SpanAttrBatchID, batchID.String()))
	defer func() {
		if result != nil {
			telemetry.SetAttributes(span,
				telemetry.SpanAttrApproved, result.Counts[catalog.OutcomeApproved],
				telemetry.SpanAttrConflicts, result.Counts[catalog.OutcomeSkippedConflict],
			)
		}
		telemetry.RecordError(span, err)
		span.End()
	}()
	ctx, log := logger.WithBatchID(ctx, s.logger, batchID.String())

	pending, err := s.entries.FindPendingByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	inConflict := true
	conflicted, err := s.entries.FindAll(ctx, catalog.EntryFilter{BatchID: &batchID, InConflict: &inConflict})
	if err != nil {
		return nil, err
	}

	results := make([]catalog.ApprovalResult, 0, len(pending)+len(conflicted))
	for i := range conflicted {
		results = append(results, catalog.ApprovalResult{
			Key:     conflicted[i].Key,
			Outcome: catalog.OutcomeSkippedConflict,
			Version: conflicted[i].Version,
			Error:   shared.NewUnresolvedConflictError(conflicted[i].Key).Error(),
		})
	}
	for i := range pending {
		results = append(results, s.approveOne(ctx, &pending[i]))
	}
	slices.SortFunc(results, func(a, b catalog.ApprovalResult) int {
		return strings.Compare(a.Key, b.Key)
	})

	counts := make(map[catalog.ApprovalOutcome]int)
	for _, r := range results {
		counts[r.Outcome]++
		s.metrics.RecordApproval(ctx, string(r.Outcome))
	}
	log.Info("Batch approval finished",
		zap.Int("approved", counts[catalog.OutcomeApproved]),
		zap.Int("skipped_conflict", counts[catalog.OutcomeSkippedConflict]),
		zap.Int("stale", counts[catalog.OutcomeStale]),
		zap.Int("failed", counts[catalog.OutcomeFailed]),
	)
	return &ApproveAllResult{BatchID: batchID, Results: results, Counts: counts}, nil
}

func (s *ApprovalService) approveOne(ctx context.Context, entry *catalog.CatalogEntry) catalog.ApprovalResult {
	result := catalog.ApprovalResult{Key: entry.Key, Version: entry.Version}
	changed, err := entry.Approve()
	switch {
	case errors.Is(err, shared.ErrUnresolvedConflict):
		result.Outcome = catalog.OutcomeSkippedConflict
		result.Error = err.Error()
		return result
	case err != nil:
		result.Outcome = catalog.OutcomeFailed
		result.Error = err.Error()
		return result
	case !changed:
		result.Outcome = catalog.OutcomeAlreadyApproved
		return result
	}

	if err := s.save(ctx, entry); err != nil {
		result.Outcome = catalog.OutcomeFailed
		if errors.Is(err, shared.ErrStaleVersion) {
			result.Outcome = catalog.OutcomeStale
		}
		result.Error = err.Error()
		return result
	}
	result.Outcome = catalog.OutcomeApproved
	result.Version = entry.Version
	return result
}

// Resolve closes an open conflict on an entry. The entry returns to pending.
func (s *ApprovalService) Resolve(ctx context.Context, key string, req ResolveConflictRequest) (*EntryResponse, error) {
	entry, err := s.entries.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := entry.ResolveConflict(catalog.ConflictResolution{
		KeepExisting:      req.KeepExisting,
		CandidateRowIndex: req.CandidateRowIndex,
		Comment:           req.Comment,
	}); err != nil {
		return nil, err
	}
	if err := s.save(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("Catalog conflict resolved",
		zap.String("key", entry.Key),
		zap.Bool("keep_existing", req.KeepExisting),
		zap.Int("candidate_row_index", req.CandidateRowIndex),
	)
	resp := ToEntryResponse(entry)
	return &resp, nil
}

func (s *ApprovalService) save(ctx context.Context, entry *catalog.CatalogEntry) error {
	if err := s.entries.SaveWithLock(ctx, entry); err != nil {
		return err
	}
	events := entry.PendingEvents()
	entry.ClearEvents()
	if len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish catalog entry events",
				zap.String("key", entry.Key),
				zap.Error(err),
			)
		}
	}
	return nil
}
