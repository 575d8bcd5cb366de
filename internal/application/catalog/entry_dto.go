package catalog

import (
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
)

// EntryResponse represents a catalog entry in API responses
type EntryResponse struct {
	ID              uuid.UUID             `json:"id"`
	Key             string                `json:"key"`
	Fields          map[string]string     `json:"fields"`
	Tags            []string              `json:"tags"`
	ApprovalState   catalog.ApprovalState `json:"approval_state"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	Conflict        *catalog.Conflict     `json:"conflict,omitempty"`
	BatchID         uuid.UUID             `json:"batch_id"`
	SourceRowIndex  int                   `json:"source_row_index"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Version         int                   `json:"version"`
}

// ToEntryResponse converts a domain entry to a response
func ToEntryResponse(e *catalog.CatalogEntry) EntryResponse {
	return EntryResponse{
		ID:              e.ID,
		Key:             e.Key,
		Fields:          e.Fields,
		Tags:            e.Tags,
		ApprovalState:   e.ApprovalState,
		RejectionReason: e.RejectionReason,
		Conflict:        e.Conflict,
		BatchID:         e.BatchID,
		SourceRowIndex:  e.SourceRowIndex,
		ApprovedAt:      e.ApprovedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Version:         e.Version,
	}
}

// ToEntryResponses converts a slice of entries
func ToEntryResponses(entries []catalog.CatalogEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = ToEntryResponse(&entries[i])
	}
	return out
}

// BatchResponse represents an upload batch in API responses
type BatchResponse struct {
	ID           uuid.UUID                               `json:"id"`
	FileName     string                                  `json:"file_name"`
	FileSize     int64                                   `json:"file_size"`
	Fingerprint  string                                  `json:"fingerprint"`
	Archived     bool                                    `json:"archived"`
	Status       bulk.BatchStatus                        `json:"status"`
	Verification bulk.VerificationCounts                 `json:"verification"`
	Changes      bulk.ChangeCounts                       `json:"changes"`
	Commit       bulk.CommitCounts                       `json:"commit"`
	Warnings     []verification.RuleConfigurationWarning `json:"warnings"`
	CommitErrors []bulk.CommitErrorDetail                `json:"commit_errors"`
	StagedAt     *time.Time                              `json:"staged_at,omitempty"`
	CompletedAt  *time.Time                              `json:"completed_at,omitempty"`
	CreatedAt    time.Time                               `json:"created_at"`
	UpdatedAt    time.Time                               `json:"updated_at"`
	Version      int                                     `json:"version"`
}

// ToBatchResponse converts a domain batch to a response
func ToBatchResponse(b *bulk.UploadBatch) BatchResponse {
	return BatchResponse{
		ID:           b.ID,
		FileName:     b.FileName,
		FileSize:     b.FileSize,
		Fingerprint:  b.Fingerprint,
		Archived:     b.ObjectKey != "",
		Status:       b.Status,
		Verification: b.Verification,
		Changes:      b.Changes,
		Commit:       b.Commit,
		Warnings:     b.Warnings,
		CommitErrors: b.CommitErrors,
		StagedAt:     b.StagedAt,
		CompletedAt:  b.CompletedAt,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		Version:      b.Version,
	}
}

// ToBatchResponses converts a slice of batches
func ToBatchResponses(batches []bulk.UploadBatch) []BatchResponse {
	out := make([]BatchResponse, len(batches))
	for i := range batches {
		out[i] = ToBatchResponse(&batches[i])
	}
	return out
}

// UploadResult is returned by Upload
type UploadResult struct {
	Batch     BatchResponse              `json:"batch"`
	Columns   []bulk.StagedColumn        `json:"columns"`
	Summary   map[catalog.ChangeKind]int `json:"summary"`
	Dropped   int                        `json:"dropped_rows"`
	Malformed int                        `json:"malformed_rows"`
	// Reused is set when identical content was already staged
	Reused bool `json:"reused"`
}

// ChangesResponse lists the staged pending-change table of a batch
type ChangesResponse struct {
	BatchID  uuid.UUID                  `json:"batch_id"`
	StagedAt time.Time                  `json:"staged_at"`
	Columns  []bulk.StagedColumn        `json:"columns"`
	Summary  map[catalog.ChangeKind]int `json:"summary"`
	Changes  []catalog.PendingChange    `json:"changes"`
}

// CommitOutcome is the per-group result of a commit
type CommitOutcome string

const (
	CommitApplied CommitOutcome = "applied"
	CommitStale   CommitOutcome = "stale"
	CommitFailed  CommitOutcome = "failed"
	CommitSkipped CommitOutcome = "skipped"
)

// CommitItem reports what happened to one row group
type CommitItem struct {
	Key     string             `json:"key"`
	Kind    catalog.ChangeKind `json:"kind"`
	Outcome CommitOutcome      `json:"outcome"`
	Version int                `json:"version,omitempty"`
	Code    string             `json:"code,omitempty"`
	Message string             `json:"message,omitempty"`
}

// CommitResult is returned by Commit
type CommitResult struct {
	Batch   BatchResponse         `json:"batch"`
	Items   []CommitItem          `json:"items"`
	Counts  map[CommitOutcome]int `json:"counts"`
	Pending int                   `json:"pending"`
}

// ApproveAllResult is returned by ApproveAll
type ApproveAllResult struct {
	BatchID uuid.UUID                       `json:"batch_id"`
	Results []catalog.ApprovalResult        `json:"results"`
	Counts  map[catalog.ApprovalOutcome]int `json:"counts"`
}

// ResolveConflictRequest picks the outcome of an open conflict
type ResolveConflictRequest struct {
	KeepExisting      bool   `json:"keep_existing"`
	CandidateRowIndex int    `json:"candidate_row_index"`
	Comment           string `json:"comment" binding:"max=500"`
}

// RuleSetResponse describes the active rule set
type RuleSetResponse struct {
	Source        string                                  `json:"source"`
	Version       int                                     `json:"version"`
	MandatoryTags []string                                `json:"mandatory_tags"`
	Rules         []RuleResponse                          `json:"rules"`
	Warnings      []verification.RuleConfigurationWarning `json:"warnings"`
}

// RuleResponse describes one rule in evaluation order
type RuleResponse struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Priority    int      `json:"priority"`
	AppliesIf   []string `json:"applies_if,omitempty"`
	Effect      string   `json:"effect"`
}

// RuleCheckResult is returned by Validate
type RuleCheckResult struct {
	Valid    bool                                    `json:"valid"`
	Rules    int                                     `json:"rules"`
	Warnings []verification.RuleConfigurationWarning `json:"warnings"`
}
