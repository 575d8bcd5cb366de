package catalog

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	csvimport "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/import"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/logger"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// DefaultStagingTTL is how long a staged plan is kept without a commit
const DefaultStagingTTL = 24 * time.Hour

// ImportService runs uploaded catalog files through decoding, verification
// and reconciliation, stages the result and commits it on request
type ImportService struct {
	entries    catalog.CatalogEntryRepository
	batches    bulk.UploadBatchRepository
	staging    bulk.StagingStore
	engines    EngineSource
	decoder    *csvimport.Decoder
	normalizer *csvimport.Normalizer
	archive    UploadArchive
	publisher  shared.EventPublisher
	metrics    PipelineRecorder
	logger     *zap.Logger
	stagingTTL time.Duration
}

// ImportOption configures an ImportService
type ImportOption func(*ImportService)

// WithArchive keeps the original files in an archive
func WithArchive(archive UploadArchive) ImportOption {
	return func(s *ImportService) {
		s.archive = archive
	}
}

// WithEventPublisher sets the publisher for batch and entry events
func WithEventPublisher(publisher shared.EventPublisher) ImportOption {
	return func(s *ImportService) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithMetrics sets the pipeline recorder
func WithMetrics(recorder PipelineRecorder) ImportOption {
	return func(s *ImportService) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ImportOption {
	return func(s *ImportService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStagingTTL sets how long staged plans are kept
func WithStagingTTL(ttl time.Duration) ImportOption {
	return func(s *ImportService) {
		s.stagingTTL = ttl
	}
}

// WithDecoder replaces the default file decoder
func WithDecoder(d *csvimport.Decoder) ImportOption {
	return func(s *ImportService) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithNormalizer replaces the default header normalizer
func WithNormalizer(n *csvimport.Normalizer) ImportOption {
	return func(s *ImportService) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// NewImportService creates a new ImportService
func NewImportService(
	entries catalog.CatalogEntryRepository,
	batches bulk.UploadBatchRepository,
	staging bulk.StagingStore,
	engines EngineSource,
	opts ...ImportOption,
) *ImportService {
	s := &ImportService{
		entries:    entries,
		batches:    batches,
		staging:    staging,
		engines:    engines,
		decoder:    csvimport.NewDecoder(),
		normalizer: csvimport.NewNormalizer(nil),
		publisher:  nopPublisher{},
		metrics:    nopRecorder{},
		logger:     zap.NewNop(),
		stagingTTL: DefaultStagingTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fingerprint identifies file content
func Fingerprint(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Upload decodes, verifies and reconciles a file and stages the resulting
// plan. Nothing reaches the catalog until Commit. Identical content that is
// still staged returns the existing batch.
func (s *ImportService) Upload(ctx context.Context, fileName string, content []byte) (result *UploadResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ImportService", "Upload",
		telemetry.WithAttribute(telemetry.SpanAttrFileName, fileName))
	defer func() {
		if result != nil {
			telemetry.SetAttributes(span,
				telemetry.SpanAttrBatchID, result.Batch.ID.String(),
				telemetry.SpanAttrStaged, result.Reused,
			)
		}
		telemetry.RecordError(span, err)
		span.End()
	}()

	fingerprint := Fingerprint(content)
	if reused, err := s.findStaged(ctx, fingerprint); err != nil || reused != nil {
		return reused, err
	}

	batch, err := bulk.NewUploadBatch(fileName, int64(len(content)), fingerprint)
	if err != nil {
		return nil, err
	}
	ctx, log := logger.WithBatchID(ctx, s.logger, batch.ID.String())
	log.Info("Catalog upload received",
		zap.String("file_name", fileName),
		zap.Int("size", len(content)),
	)

	var table *csvimport.Table
	s.runStage(ctx, StageDecode, func(ctx context.Context) {
		table, err = s.decoder.Decode(fileName, content)
	})
	if err != nil {
		return nil, s.failBatch(ctx, batch, csvimport.AsDomainError(err))
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRowCount, table.Len())

	var normalized *csvimport.NormalizeResult
	s.runStage(ctx, StageNormalize, func(ctx context.Context) {
		normalized, err = s.normalizer.Normalize(table)
	})
	if err != nil {
		return nil, s.failBatch(ctx, batch, err)
	}

	var report verification.Report
	s.runStage(ctx, StageVerify, func(ctx context.Context) {
		report = s.engines.Engine().EvaluateAll(normalized.Rows)
	})

	var plan catalog.ReconciliationPlan
	s.runStage(ctx, StageReconcile, func(ctx context.Context) {
		plan, err = s.reconcile(ctx, batch.ID, report.Verdicts)
	})
	if err != nil {
		return nil, err
	}

	if err := batch.Stage(verificationCounts(report), changeCounts(plan), report.Warnings); err != nil {
		return nil, err
	}

	if s.archive != nil {
		key, err := s.archive.Put(ctx, batch.ID, fileName, content)
		if err != nil {
			log.Warn("Failed to archive uploaded file", zap.Error(err))
		} else {
			batch.SetObjectKey(key)
		}
	}

	staged := &bulk.StagedBatch{
		BatchID:  batch.ID,
		Columns:  stagedColumns(normalized.Columns),
		Verdicts: report.Verdicts,
		Plan:     plan,
		StagedAt: time.Now(),
	}
	if err := s.staging.Put(ctx, staged, s.stagingTTL); err != nil {
		return nil, err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}
	s.publish(ctx, batch)

	s.metrics.RecordVerdicts(ctx, statusCounts(report))
	s.metrics.RecordPlan(ctx, kindCounts(plan))

	log.Info("Catalog upload staged",
		zap.Int("rows", len(report.Verdicts)),
		zap.Int("dropped", normalized.Dropped),
		zap.Int("malformed", normalized.Malformed),
		zap.Int("warnings", len(report.Warnings)),
		zap.Any("changes", batch.Changes),
	)

	return &UploadResult{
		Batch:     ToBatchResponse(batch),
		Columns:   staged.Columns,
		Summary:   plan.Summary(),
		Dropped:   normalized.Dropped,
		Malformed: normalized.Malformed,
	}, nil
}

// findStaged returns the open batch for the fingerprint when its plan is
// still staged, or nil
func (s *ImportService) findStaged(ctx context.Context, fingerprint string) (*UploadResult, error) {
	batch, err := s.batches.FindOpenByFingerprint(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if batch == nil {
		return nil, nil
	}
	staged, err := s.staging.Get(ctx, batch.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.logger.Info("Identical upload is already staged",
		zap.String("batch_id", batch.ID.String()),
		zap.String("fingerprint", fingerprint),
	)
	return &UploadResult{
		Batch:   ToBatchResponse(batch),
		Columns: staged.Columns,
		Summary: staged.Plan.Summary(),
		Reused:  true,
	}, nil
}

// failBatch records a fatal batch error and returns cause
func (s *ImportService) failBatch(ctx context.Context, batch *bulk.UploadBatch, cause error) error {
	detail := bulk.CommitErrorDetail{Code: shared.CodeInvalidInput, Message: cause.Error()}
	var de *shared.DomainError
	if errors.As(cause, &de) {
		detail.Code = de.Code
	}
	if err := batch.Fail(detail); err == nil {
		if err := s.batches.Save(ctx, batch); err != nil {
			s.logger.Error("Failed to record failed upload batch",
				zap.String("batch_id", batch.ID.String()),
				zap.Error(err),
			)
		}
	}
	logger.FromContext(ctx).Warn("Catalog upload failed",
		zap.String("code", detail.Code),
		zap.Error(cause),
	)
	return cause
}

// reconcile diffs the verdicts against the catalog entries they reference
func (s *ImportService) reconcile(ctx context.Context, batchID uuid.UUID, verdicts []verification.Verdict) (catalog.ReconciliationPlan, error) {
	keys := make([]string, 0, len(verdicts))
	seen := make(map[string]struct{}, len(verdicts))
	for _, v := range verdicts {
		key := catalog.NormalizeKey(v.Identifier())
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	existing, err := s.entries.FindByKeys(ctx, keys)
	if err != nil {
		return catalog.ReconciliationPlan{}, err
	}
	return catalog.Reconcile(batchID, verdicts, existing), nil
}

// GetBatch returns one upload batch
func (s *ImportService) GetBatch(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// ListBatches returns upload batches with the total count
func (s *ImportService) ListBatches(ctx context.Context, filter bulk.UploadBatchFilter) ([]BatchResponse, int64, error) {
	batches, err := s.batches.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.batches.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToBatchResponses(batches), total, nil
}

// GetChanges returns the staged pending-change table, optionally narrowed to one kind
func (s *ImportService) GetChanges(ctx context.Context, batchID uuid.UUID, kind catalog.ChangeKind) (*ChangesResponse, error) {
	staged, err := s.loadStaged(ctx, batchID)
	if err != nil {
		return nil, err
	}
	changes := staged.Plan.Changes
	if kind != "" {
		changes = staged.Plan.ChangesOfKind(kind)
	}
	if changes == nil {
		changes = []catalog.PendingChange{}
	}
	return &ChangesResponse{
		BatchID:  batchID,
		StagedAt: staged.StagedAt,
		Columns:  staged.Columns,
		Summary:  staged.Plan.Summary(),
		Changes:  changes,
	}, nil
}

// Commit applies the staged plan one row group at a time. Each group is
// written with an optimistic version check; a stale or failing group does
// not stop the others and stays staged for a later Reconcile and Commit.
// A cancelled commit keeps the groups it already wrote, leaves the batch
// partially committed and returns the context error.
func (s *ImportService) Commit(ctx context.Context, batchID uuid.UUID) (result *CommitResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ImportService", "Commit",
		telemetry.WithAttribute(telemetry.SpanAttrBatchID, batchID.String()))
	defer func() {
		if result != nil {
			telemetry.SetAttributes(span,
				telemetry.SpanAttrApplied, result.Counts[CommitApplied],
				telemetry.SpanAttrStale, result.Counts[CommitStale],
				telemetry.SpanAttrFailed, result.Counts[CommitFailed],
			)
		}
		telemetry.RecordError(span, err)
		span.End()
	}()
	ctx, log := logger.WithBatchID(ctx, s.logger, batchID.String())

	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !batch.Status.CanCommit() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot commit batch in state: %s", batch.Status)).WithDetail("batch_id", batchID.String())
	}
	staged, err := s.loadStaged(ctx, batchID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	items := make([]CommitItem, 0, len(staged.Plan.Changes))
	remaining := make([]catalog.PendingChange, 0)
	var counts bulk.CommitCounts
	var commitErrors []bulk.CommitErrorDetail
	var interrupted error

	for i, change := range staged.Plan.Changes {
		if err := ctx.Err(); err != nil {
			// groups not reached stay staged
			interrupted = err
			remaining = append(remaining, staged.Plan.Changes[i:]...)
			break
		}
		item := s.commitChange(ctx, batchID, change)
		items = append(items, item)
		switch item.Outcome {
		case CommitApplied:
			counts.Applied++
			staged.Applied = append(staged.Applied, change.Key)
		case CommitStale:
			counts.Stale++
			remaining = append(remaining, change)
			commitErrors = append(commitErrors, bulk.CommitErrorDetail{Key: item.Key, Code: item.Code, Message: item.Message})
		case CommitFailed:
			counts.Failed++
			remaining = append(remaining, change)
			commitErrors = append(commitErrors, bulk.CommitErrorDetail{Key: item.Key, Code: item.Code, Message: item.Message})
		}
	}

	if interrupted != nil && counts.Applied == 0 {
		return nil, interrupted
	}
	// what was written must be recorded even when the caller has gone away
	ctx = context.WithoutCancel(ctx)

	if len(remaining) == 0 {
		if err := s.staging.Delete(ctx, batchID); err != nil {
			log.Warn("Failed to drop committed staging data", zap.Error(err))
		}
	} else {
		staged.Plan.Changes = remaining
		if err := s.staging.Put(ctx, staged, s.stagingTTL); err != nil {
			return nil, err
		}
	}

	record := batch.Complete
	if interrupted != nil {
		record = batch.Interrupt
	}
	if err := record(counts, commitErrors); err != nil {
		return nil, err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}
	s.publish(ctx, batch)

	s.metrics.RecordCommit(ctx, counts.Applied, counts.Stale, counts.Failed)
	s.metrics.ObserveStage(ctx, StageCommit, time.Since(start))
	log.Info("Catalog batch committed",
		zap.Int("applied", counts.Applied),
		zap.Int("stale", counts.Stale),
		zap.Int("failed", counts.Failed),
		zap.String("status", string(batch.Status)),
	)

	outcomes := make(map[CommitOutcome]int)
	for _, item := range items {
		outcomes[item.Outcome]++
	}
	if interrupted != nil {
		log.Warn("Catalog batch commit interrupted", zap.Int("pending", len(remaining)), zap.Error(interrupted))
		return nil, interrupted
	}
	return &CommitResult{
		Batch:   ToBatchResponse(batch),
		Items:   items,
		Counts:  outcomes,
		Pending: len(remaining),
	}, nil
}

// commitChange writes one row group; it never returns a partially written group
func (s *ImportService) commitChange(ctx context.Context, batchID uuid.UUID, change catalog.PendingChange) CommitItem {
	item := CommitItem{Key: change.Key, Kind: change.Kind}
	if !change.Writes() {
		item.Outcome = CommitSkipped
		return item
	}

	current, err := s.entries.FindByKey(ctx, change.Key)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return failedItem(item, err)
		}
		current = nil
	}

	entry, err := catalog.ApplyChange(batchID, change, current)
	if err != nil {
		return failedItem(item, err)
	}
	if entry == nil {
		item.Outcome = CommitSkipped
		return item
	}
	if err := s.entries.SaveWithLock(ctx, entry); err != nil {
		return failedItem(item, err)
	}
	s.publishEntry(ctx, entry)

	item.Outcome = CommitApplied
	item.Version = entry.Version
	return item
}

func failedItem(item CommitItem, err error) CommitItem {
	item.Outcome = CommitFailed
	item.Code = "INTERNAL_ERROR"
	item.Message = err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) {
		item.Code = de.Code
	}
	if errors.Is(err, shared.ErrStaleVersion) {
		item.Outcome = CommitStale
	}
	return item
}

// runStage runs fn as one pipeline stage: its profile samples carry the
// stage label and its duration is recorded
func (s *ImportService) runStage(ctx context.Context, stage string, fn func(context.Context)) {
	start := time.Now()
	telemetry.WithStageLabel(ctx, stage, fn)
	s.metrics.ObserveStage(ctx, stage, time.Since(start))
}

// Reconcile recomputes the staged plan of a batch against the current
// catalog, e.g. after a partial commit left stale groups behind. Keys the
// batch already wrote are not planned again.
func (s *ImportService) Reconcile(ctx context.Context, batchID uuid.UUID) (*ChangesResponse, error) {
	ctx, log := logger.WithBatchID(ctx, s.logger, batchID.String())

	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !batch.Status.CanCommit() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot reconcile batch in state: %s", batch.Status)).WithDetail("batch_id", batchID.String())
	}
	staged, err := s.loadStaged(ctx, batchID)
	if err != nil {
		return nil, err
	}

	var plan catalog.ReconciliationPlan
	s.runStage(ctx, StageReconcile, func(ctx context.Context) {
		plan, err = s.reconcile(ctx, batchID, staged.Unapplied())
	})
	if err != nil {
		return nil, err
	}

	report := verification.Report{Verdicts: staged.Verdicts, Warnings: batch.Warnings}
	if err := batch.Stage(verificationCounts(report), changeCounts(plan), batch.Warnings); err != nil {
		return nil, err
	}
	staged.Plan = plan
	staged.StagedAt = time.Now()
	if err := s.staging.Put(ctx, staged, s.stagingTTL); err != nil {
		return nil, err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}
	s.publish(ctx, batch)
	s.metrics.RecordPlan(ctx, kindCounts(plan))

	log.Info("Catalog batch reconciled again", zap.Any("changes", batch.Changes))
	return &ChangesResponse{
		BatchID:  batchID,
		StagedAt: staged.StagedAt,
		Columns:  staged.Columns,
		Summary:  plan.Summary(),
		Changes:  plan.Changes,
	}, nil
}

// Discard drops a batch that has not been fully committed
func (s *ImportService) Discard(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	ctx, log := logger.WithBatchID(ctx, s.logger, batchID.String())

	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.Discard(); err != nil {
		return nil, err
	}
	if err := s.staging.Delete(ctx, batchID); err != nil {
		return nil, err
	}
	if s.archive != nil && batch.ObjectKey != "" {
		if err := s.archive.Delete(ctx, batch.ObjectKey); err != nil {
			log.Warn("Failed to delete archived file", zap.String("object_key", batch.ObjectKey), zap.Error(err))
		}
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}
	s.publish(ctx, batch)

	log.Info("Catalog batch discarded")
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// ArchiveURL returns a time-limited download link for the original file
func (s *ImportService) ArchiveURL(ctx context.Context, batchID uuid.UUID) (string, time.Time, error) {
	if s.archive == nil {
		return "", time.Time{}, shared.NewDomainError(shared.CodeInvalidState, "Upload archiving is disabled")
	}
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return "", time.Time{}, err
	}
	if batch.ObjectKey == "" {
		return "", time.Time{}, shared.ErrNotFound.WithDetail("batch_id", batchID.String())
	}
	return s.archive.DownloadURL(ctx, batch.ObjectKey)
}

func (s *ImportService) loadStaged(ctx context.Context, batchID uuid.UUID) (*bulk.StagedBatch, error) {
	staged, err := s.staging.Get(ctx, batchID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "No staged changes for batch").
				WithDetail("batch_id", batchID.String())
		}
		return nil, err
	}
	return staged, nil
}

func (s *ImportService) publish(ctx context.Context, batch *bulk.UploadBatch) {
	events := batch.PendingEvents()
	batch.ClearEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish batch events",
			zap.String("batch_id", batch.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *ImportService) publishEntry(ctx context.Context, entry *catalog.CatalogEntry) {
	events := entry.PendingEvents()
	entry.ClearEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish catalog entry events",
			zap.String("key", entry.Key),
			zap.Error(err),
		)
	}
}

func stagedColumns(mappings []csvimport.ColumnMapping) []bulk.StagedColumn {
	out := make([]bulk.StagedColumn, len(mappings))
	for i, m := range mappings {
		out[i] = bulk.StagedColumn{Position: m.Position, Header: m.Header, Field: m.Field, Mapped: m.Mapped}
	}
	return out
}

func verificationCounts(report verification.Report) bulk.VerificationCounts {
	byStatus := report.CountByStatus()
	return bulk.VerificationCounts{
		TotalRows:    len(report.Verdicts),
		VerifiedRows: byStatus[verification.StatusVerified],
		FlaggedRows:  byStatus[verification.StatusFlagged],
		RejectedRows: byStatus[verification.StatusRejected],
	}
}

func changeCounts(plan catalog.ReconciliationPlan) bulk.ChangeCounts {
	summary := plan.Summary()
	return bulk.ChangeCounts{
		Inserts:   summary[catalog.ChangeInsert],
		Updates:   summary[catalog.ChangeUpdate],
		Conflicts: summary[catalog.ChangeConflict],
		NoChanges: summary[catalog.ChangeNoChange],
		Rejected:  summary[catalog.ChangeRejected],
	}
}

func statusCounts(report verification.Report) map[string]int {
	out := make(map[string]int)
	for status, n := range report.CountByStatus() {
		out[string(status)] = n
	}
	return out
}

func kindCounts(plan catalog.ReconciliationPlan) map[string]int {
	out := make(map[string]int)
	for kind, n := range plan.Summary() {
		out[string(kind)] = n
	}
	return out
}
