package bulk

import (
	"fmt"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
)

// BatchStatus represents the status of an upload batch
type BatchStatus string

const (
	BatchStatusReceived           BatchStatus = "received"
	BatchStatusStaged             BatchStatus = "staged"
	BatchStatusCommitted          BatchStatus = "committed"
	BatchStatusPartiallyCommitted BatchStatus = "partially_committed"
	BatchStatusDiscarded          BatchStatus = "discarded"
	BatchStatusFailed             BatchStatus = "failed"
)

// IsValid checks if the status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusReceived, BatchStatusStaged, BatchStatusCommitted,
		BatchStatusPartiallyCommitted, BatchStatusDiscarded, BatchStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCommitted || s == BatchStatusDiscarded || s == BatchStatusFailed
}

// CanCommit reports whether a staged plan may still be applied
func (s BatchStatus) CanCommit() bool {
	return s == BatchStatusStaged || s == BatchStatusPartiallyCommitted
}

// VerificationCounts tallies verdicts per status
type VerificationCounts struct {
	TotalRows    int `json:"total_rows"`
	VerifiedRows int `json:"verified_rows"`
	FlaggedRows  int `json:"flagged_rows"`
	RejectedRows int `json:"rejected_rows"`
}

// ChangeCounts tallies the pending-change table per kind
type ChangeCounts struct {
	Inserts   int `json:"inserts"`
	Updates   int `json:"updates"`
	Conflicts int `json:"conflicts"`
	NoChanges int `json:"no_changes"`
	Rejected  int `json:"rejected"`
}

// CommitCounts tallies the per-group outcome of a commit
type CommitCounts struct {
	Applied int `json:"applied"`
	Stale   int `json:"stale"`
	Failed  int `json:"failed"`
}

// CommitErrorDetail describes one row group that did not commit
type CommitErrorDetail struct {
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UploadBatch tracks one uploaded catalog file from staging to commit. Its id
// scopes approveAll and is stamped on every entry the batch writes.
type UploadBatch struct {
	shared.BaseAggregateRoot
	FileName     string                                  `json:"file_name"`
	FileSize     int64                                   `json:"file_size"`
	Fingerprint  string                                  `json:"fingerprint"`
	ObjectKey    string                                  `json:"object_key,omitempty"`
	Status       BatchStatus                             `json:"status"`
	Verification VerificationCounts                      `json:"verification"`
	Changes      ChangeCounts                            `json:"changes"`
	Commit       CommitCounts                            `json:"commit"`
	Warnings     []verification.RuleConfigurationWarning `json:"warnings,omitempty"`
	CommitErrors []CommitErrorDetail                     `json:"commit_errors,omitempty"`
	StagedAt     *time.Time                              `json:"staged_at,omitempty"`
	CompletedAt  *time.Time                              `json:"completed_at,omitempty"`
}

// NewUploadBatch creates a new batch record for a received file
func NewUploadBatch(fileName string, fileSize int64, fingerprint string) (*UploadBatch, error) {
	if fileName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "File name cannot be empty")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "File size cannot be negative")
	}

	batch := &UploadBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FileName:          fileName,
		FileSize:          fileSize,
		Fingerprint:       fingerprint,
		Status:            BatchStatusReceived,
		Warnings:          make([]verification.RuleConfigurationWarning, 0),
		CommitErrors:      make([]CommitErrorDetail, 0),
	}
	batch.RecordEvent(NewBatchEvent(EventTypeBatchReceived, batch))
	return batch, nil
}

// SetObjectKey records where the original file was archived
func (b *UploadBatch) SetObjectKey(key string) {
	b.ObjectKey = key
	b.UpdatedAt = time.Now()
}

// Stage records the verification and reconciliation summary. It is also used
// when a staged batch is reconciled again against a fresher catalog.
func (b *UploadBatch) Stage(counts VerificationCounts, changes ChangeCounts, warnings []verification.RuleConfigurationWarning) error {
	if b.Status != BatchStatusReceived && !b.Status.CanCommit() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot stage batch from state: %s", b.Status))
	}

	b.Status = BatchStatusStaged
	b.Verification = counts
	b.Changes = changes
	b.Warnings = append(make([]verification.RuleConfigurationWarning, 0, len(warnings)), warnings...)
	now := time.Now()
	b.StagedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
	b.RecordEvent(NewBatchEvent(EventTypeBatchStaged, b))

	return nil
}

// Complete records a commit. Any stale or failed group leaves the batch
// partially committed so it can be reconciled and committed again.
func (b *UploadBatch) Complete(counts CommitCounts, errors []CommitErrorDetail) error {
	return b.recordCommit(counts, errors, counts.Stale == 0 && counts.Failed == 0)
}

// Interrupt records a commit that stopped before reaching every group. The
// batch is left partially committed whatever the counts say.
func (b *UploadBatch) Interrupt(counts CommitCounts, errors []CommitErrorDetail) error {
	return b.recordCommit(counts, errors, false)
}

func (b *UploadBatch) recordCommit(counts CommitCounts, errors []CommitErrorDetail, done bool) error {
	if !b.Status.CanCommit() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot commit batch from state: %s", b.Status))
	}

	b.Commit.Applied += counts.Applied
	b.Commit.Stale = counts.Stale
	b.Commit.Failed = counts.Failed
	b.CommitErrors = append(make([]CommitErrorDetail, 0, len(errors)), errors...)

	now := time.Now()
	if done {
		b.Status = BatchStatusCommitted
		b.CompletedAt = &now
	} else {
		b.Status = BatchStatusPartiallyCommitted
	}
	b.UpdatedAt = now
	b.IncrementVersion()
	b.RecordEvent(NewBatchEvent(EventTypeBatchCommitted, b))

	return nil
}

// Discard drops a staged batch without writing anything further
func (b *UploadBatch) Discard() error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot discard batch from terminal state: %s", b.Status))
	}

	b.Status = BatchStatusDiscarded
	now := time.Now()
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
	b.RecordEvent(NewBatchEvent(EventTypeBatchDiscarded, b))

	return nil
}

// Fail marks the batch as failed, e.g. on a schema error
func (b *UploadBatch) Fail(detail CommitErrorDetail) error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot fail batch from terminal state: %s", b.Status))
	}

	b.Status = BatchStatusFailed
	b.CommitErrors = append(b.CommitErrors, detail)
	now := time.Now()
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	return nil
}

// HasWarnings returns true if the rule set produced configuration warnings
func (b *UploadBatch) HasWarnings() bool {
	return len(b.Warnings) > 0
}

// Duration returns the time from creation to completion, or to now
func (b *UploadBatch) Duration() time.Duration {
	end := time.Now()
	if b.CompletedAt != nil {
		end = *b.CompletedAt
	}
	return end.Sub(b.CreatedAt)
}
