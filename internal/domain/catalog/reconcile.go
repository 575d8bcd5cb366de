package catalog

import (
	"maps"
	"slices"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
)

// ChangeKind classifies one pending change
type ChangeKind string

const (
	ChangeInsert   ChangeKind = "insert"
	ChangeUpdate   ChangeKind = "update"
	ChangeConflict ChangeKind = "conflict"
	ChangeNoChange ChangeKind = "no_change"
	// ChangeRejected is a rejected row for a key the catalog does not have yet.
	// Nothing is written; the reasons are surfaced to the uploader.
	ChangeRejected ChangeKind = "rejected"
)

// ReasonMissingIdentifier is reported for rows without a usable identifier
const ReasonMissingIdentifier = "missing product identifier"

// FieldChange is one differing field between stored and incoming data
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// PendingChange is one row of the pending-change table
type PendingChange struct {
	Key              string              `json:"key"`
	Kind             ChangeKind          `json:"kind"`
	ObservedVersion  int                 `json:"observed_version"`
	SourceRowIndex   int                 `json:"source_row_index"`
	Fields           map[string]string   `json:"fields,omitempty"`
	Tags             []string            `json:"tags,omitempty"`
	VerdictStatus    verification.Status `json:"verdict_status"`
	RejectionReasons []string            `json:"rejection_reasons,omitempty"`
	ConflictReason   ConflictReason      `json:"conflict_reason,omitempty"`
	Candidates       []ConflictCandidate `json:"candidates,omitempty"`
	Diff             []FieldChange       `json:"diff,omitempty"`
}

// Writes reports whether committing the change touches storage
func (c PendingChange) Writes() bool {
	switch c.Kind {
	case ChangeInsert, ChangeUpdate, ChangeConflict:
		return true
	}
	return false
}

// ReconciliationPlan is the full pending-change table for a batch, ordered by
// the first source row of each key
type ReconciliationPlan struct {
	BatchID uuid.UUID       `json:"batch_id"`
	Changes []PendingChange `json:"changes"`
}

// Summary counts changes per kind
func (p ReconciliationPlan) Summary() map[ChangeKind]int {
	counts := map[ChangeKind]int{
		ChangeInsert: 0, ChangeUpdate: 0, ChangeConflict: 0, ChangeNoChange: 0, ChangeRejected: 0,
	}
	for _, c := range p.Changes {
		counts[c.Kind]++
	}
	return counts
}

// ChangesOfKind filters the plan
func (p ReconciliationPlan) ChangesOfKind(kind ChangeKind) []PendingChange {
	out := make([]PendingChange, 0)
	for _, c := range p.Changes {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Keys lists the distinct non-empty keys in the plan
func (p ReconciliationPlan) Keys() []string {
	keys := make([]string, 0, len(p.Changes))
	for _, c := range p.Changes {
		if c.Key != "" {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Reconcile compares verdicts against the existing entries for the same keys.
// It is a pure function: no storage access, no clock.
func Reconcile(batchID uuid.UUID, verdicts []verification.Verdict, existing []CatalogEntry) ReconciliationPlan {
	byKey := make(map[string]*CatalogEntry, len(existing))
	for i := range existing {
		byKey[existing[i].Key] = &existing[i]
	}

	groups := make(map[string][]verification.Verdict)
	order := make([]string, 0)
	plan := ReconciliationPlan{BatchID: batchID, Changes: make([]PendingChange, 0)}
	var missing []PendingChange

	for _, v := range verdicts {
		key := NormalizeKey(v.Identifier())
		if key == "" {
			reasons := slices.Clone(v.RejectionReasons)
			if !slices.Contains(reasons, ReasonMissingIdentifier) {
				reasons = append(reasons, ReasonMissingIdentifier)
			}
			missing = append(missing, PendingChange{
				Kind:             ChangeRejected,
				SourceRowIndex:   v.RowIndex(),
				Fields:           v.Fields(),
				VerdictStatus:    verification.StatusRejected,
				RejectionReasons: reasons,
			})
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], v)
	}

	for _, key := range order {
		plan.Changes = append(plan.Changes, classify(batchID, key, groups[key], byKey[key]))
	}
	plan.Changes = append(plan.Changes, missing...)
	slices.SortStableFunc(plan.Changes, func(a, b PendingChange) int {
		return a.SourceRowIndex - b.SourceRowIndex
	})
	return plan
}

func classify(batchID uuid.UUID, key string, rows []verification.Verdict, current *CatalogEntry) PendingChange {
	first := rows[0]
	change := PendingChange{
		Key:              key,
		SourceRowIndex:   first.RowIndex(),
		Fields:           first.Fields(),
		Tags:             slices.Clone(first.Tags),
		VerdictStatus:    first.Status,
		RejectionReasons: slices.Clone(first.RejectionReasons),
	}
	if current != nil {
		change.ObservedVersion = current.Version
		if current.ConflictListsRows(batchID, rowIndexes(rows)) {
			change.Kind = ChangeNoChange
			return change
		}
	}

	if len(rows) > 1 {
		return asConflict(change, ConflictDuplicateInBatch, rows)
	}

	if current == nil {
		if first.IsRejected() {
			change.Kind = ChangeRejected
			return change
		}
		change.Kind = ChangeInsert
		return change
	}

	switch {
	case current.HasConflict():
		return asConflict(change, ConflictEntryInConflict, rows)
	case first.IsRejected():
		return asConflict(change, ConflictRejectedOverExisting, rows)
	case current.SameFields(change.Fields):
		change.Kind = ChangeNoChange
	default:
		change.Kind = ChangeUpdate
		change.Diff = diffFields(current.Fields, change.Fields)
	}
	return change
}

func rowIndexes(rows []verification.Verdict) []int {
	out := make([]int, len(rows))
	for i, v := range rows {
		out[i] = v.RowIndex()
	}
	return out
}

func asConflict(change PendingChange, reason ConflictReason, rows []verification.Verdict) PendingChange {
	change.Kind = ChangeConflict
	change.ConflictReason = reason
	change.Candidates = make([]ConflictCandidate, 0, len(rows))
	for _, v := range rows {
		change.Candidates = append(change.Candidates, CandidateFromVerdict(v))
	}
	return change
}

func diffFields(old, incoming map[string]string) []FieldChange {
	names := slices.Sorted(maps.Keys(old))
	for k := range incoming {
		if _, ok := old[k]; !ok {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	diff := make([]FieldChange, 0)
	for _, name := range names {
		o, n := old[name], incoming[name]
		if o != n {
			diff = append(diff, FieldChange{Field: name, Old: o, New: n})
		}
	}
	return diff
}

// ApplyChange turns one pending change into the entry to persist. current is
// the entry as read at commit time; it must still be at the version the plan
// observed. It returns nil when the change writes nothing.
func ApplyChange(batchID uuid.UUID, change PendingChange, current *CatalogEntry) (*CatalogEntry, error) {
	if !change.Writes() {
		return nil, nil
	}

	actual := 0
	if current != nil {
		actual = current.Version
	}
	if actual != change.ObservedVersion {
		return nil, shared.NewStaleVersionError(change.Key, change.ObservedVersion, actual)
	}

	switch change.Kind {
	case ChangeInsert:
		return NewCatalogEntry(change.Key, change.Fields, change.Tags, batchID, change.SourceRowIndex)
	case ChangeUpdate:
		if !current.ApplyUpdate(change.Fields, change.Tags, batchID, change.SourceRowIndex) {
			return nil, nil
		}
		return current, nil
	default:
		conflict := Conflict{
			Reason:     change.ConflictReason,
			BatchID:    batchID,
			Candidates: slices.Clone(change.Candidates),
			RaisedAt:   time.Now(),
		}
		if current == nil {
			return NewConflictedEntry(change.Key, conflict, change.SourceRowIndex)
		}
		current.MarkConflict(conflict)
		return current, nil
	}
}
