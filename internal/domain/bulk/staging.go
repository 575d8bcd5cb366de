package bulk

import (
	"context"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
)

// StagedColumn records how one source column was mapped
type StagedColumn struct {
	Position int    `json:"position"`
	Header   string `json:"header"`
	Field    string `json:"field"`
	Mapped   bool   `json:"mapped"`
}

// StagedBatch is the uncommitted working set of an upload: the verdicts and
// the pending-change table. It never reaches catalog reads. Applied lists
// the keys an earlier commit of the batch already wrote.
type StagedBatch struct {
	BatchID  uuid.UUID                  `json:"batch_id"`
	Columns  []StagedColumn             `json:"columns"`
	Verdicts []verification.Verdict     `json:"verdicts"`
	Plan     catalog.ReconciliationPlan `json:"plan"`
	Applied  []string                   `json:"applied,omitempty"`
	StagedAt time.Time                  `json:"staged_at"`
}

// Unapplied returns the verdicts whose key no earlier commit has written.
// Rows without an identifier are kept.
func (s *StagedBatch) Unapplied() []verification.Verdict {
	if len(s.Applied) == 0 {
		return s.Verdicts
	}
	done := make(map[string]struct{}, len(s.Applied))
	for _, key := range s.Applied {
		done[key] = struct{}{}
	}
	out := make([]verification.Verdict, 0, len(s.Verdicts))
	for _, v := range s.Verdicts {
		key := catalog.NormalizeKey(v.Identifier())
		if _, ok := done[key]; ok && key != "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// StagingStore keeps staged batches until they are committed or discarded.
// Get returns shared.ErrNotFound for unknown or expired batches.
type StagingStore interface {
	Put(ctx context.Context, staged *StagedBatch, ttl time.Duration) error
	Get(ctx context.Context, batchID uuid.UUID) (*StagedBatch, error)
	Delete(ctx context.Context, batchID uuid.UUID) error
}
