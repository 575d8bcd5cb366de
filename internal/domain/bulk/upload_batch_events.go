package bulk

import (
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeUploadBatch = "UploadBatch"

// Event type constants
const (
	EventTypeBatchReceived  = "UploadBatchReceived"
	EventTypeBatchStaged    = "UploadBatchStaged"
	EventTypeBatchCommitted = "UploadBatchCommitted"
	EventTypeBatchDiscarded = "UploadBatchDiscarded"
)

// BatchEvent carries a snapshot of the batch's status and counters
type BatchEvent struct {
	shared.BaseDomainEvent
	FileName string       `json:"file_name"`
	Status   BatchStatus  `json:"status"`
	Changes  ChangeCounts `json:"changes"`
	Commit   CommitCounts `json:"commit"`
}

// NewBatchEvent creates a batch lifecycle event of the given type
func NewBatchEvent(eventType string, b *UploadBatch) *BatchEvent {
	return &BatchEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeUploadBatch, b.ID),
		FileName:        b.FileName,
		Status:          b.Status,
		Changes:         b.Changes,
		Commit:          b.Commit,
	}
}
