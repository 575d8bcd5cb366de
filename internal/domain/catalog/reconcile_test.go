package catalog

import (
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verdict(index int, status verification.Status, kv ...string) verification.Verdict {
	cols := make([]string, 0)
	vals := make(map[string]string)
	for i := 0; i+1 < len(kv); i += 2 {
		cols = append(cols, kv[i])
		vals[kv[i]] = kv[i+1]
	}
	v := verification.Verdict{
		Row:              verification.NewRawRow(index, cols, vals),
		Status:           status,
		Tags:             []string{},
		RejectionReasons: []string{},
		NormalizedFields: map[string]string{},
	}
	if status == verification.StatusRejected {
		v.RejectionReasons = []string{"price must be positive"}
	} else {
		v.Tags = []string{"priceValid"}
	}
	return v
}

func stored(t *testing.T, key string, fields map[string]string) CatalogEntry {
	t.Helper()
	e, err := NewCatalogEntry(key, fields, []string{"priceValid"}, uuid.New(), 1)
	require.NoError(t, err)
	return *e
}

func TestReconcile_Classification(t *testing.T) {
	batch := uuid.New()
	existing := []CatalogEntry{
		stored(t, "SKU1", map[string]string{"id": "SKU1", "price": "10.00"}),
		stored(t, "SKU2", map[string]string{"id": "SKU2", "price": "5.00"}),
		stored(t, "SKU3", map[string]string{"id": "SKU3", "price": "7.00"}),
	}

	plan := Reconcile(batch, []verification.Verdict{
		verdict(2, verification.StatusVerified, "id", "SKU1", "price", "10.00"),
		verdict(3, verification.StatusVerified, "id", "sku2", "price", "6.00"),
		verdict(4, verification.StatusRejected, "id", "SKU3", "price", "-1"),
		verdict(5, verification.StatusFlagged, "id", "SKU4", "price", "1.00"),
		verdict(6, verification.StatusRejected, "id", "SKU5", "price", "-5"),
		verdict(7, verification.StatusVerified, "price", "1.00"),
	}, existing)

	require.Len(t, plan.Changes, 6)
	assert.Equal(t, batch, plan.BatchID)

	kinds := make([]ChangeKind, 0)
	for _, c := range plan.Changes {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []ChangeKind{ChangeNoChange, ChangeUpdate, ChangeConflict, ChangeInsert, ChangeRejected, ChangeRejected}, kinds)

	update := plan.Changes[1]
	assert.Equal(t, "SKU2", update.Key)
	assert.Equal(t, 1, update.ObservedVersion)
	assert.Equal(t, []FieldChange{
		{Field: "id", Old: "SKU2", New: "sku2"},
		{Field: "price", Old: "5.00", New: "6.00"},
	}, update.Diff)

	assert.Equal(t, ConflictRejectedOverExisting, plan.Changes[2].ConflictReason)
	assert.Equal(t, 0, plan.Changes[3].ObservedVersion)
	assert.Equal(t, []string{"price must be positive"}, plan.Changes[4].RejectionReasons)
	assert.Contains(t, plan.Changes[5].RejectionReasons, ReasonMissingIdentifier)

	summary := plan.Summary()
	assert.Equal(t, 1, summary[ChangeInsert])
	assert.Equal(t, 1, summary[ChangeUpdate])
	assert.Equal(t, 1, summary[ChangeConflict])
	assert.Equal(t, 1, summary[ChangeNoChange])
	assert.Equal(t, 2, summary[ChangeRejected])
}

func TestReconcile_DuplicateKeyIsSingleConflict(t *testing.T) {
	plan := Reconcile(uuid.New(), []verification.Verdict{
		verdict(2, verification.StatusVerified, "id", "SKU1", "price", "1.00"),
		verdict(3, verification.StatusVerified, "id", "SKU9", "price", "9.00"),
		verdict(4, verification.StatusVerified, "id", " sku1", "price", "2.00"),
		verdict(5, verification.StatusVerified, "id", "SKU1", "price", "1.00"),
	}, nil)

	forKey := make([]PendingChange, 0)
	for _, c := range plan.Changes {
		if c.Key == "SKU1" {
			forKey = append(forKey, c)
		}
	}
	require.Len(t, forKey, 1)
	assert.Equal(t, ChangeConflict, forKey[0].Kind)
	assert.Equal(t, ConflictDuplicateInBatch, forKey[0].ConflictReason)
	require.Len(t, forKey[0].Candidates, 3)
	assert.Equal(t, []int{2, 4, 5}, []int{
		forKey[0].Candidates[0].SourceRowIndex,
		forKey[0].Candidates[1].SourceRowIndex,
		forKey[0].Candidates[2].SourceRowIndex,
	})
	assert.Empty(t, plan.ChangesOfKind(ChangeUpdate))
	assert.Len(t, plan.ChangesOfKind(ChangeInsert), 1)
}

func TestReconcile_EntryAlreadyInConflict(t *testing.T) {
	e := stored(t, "SKU1", map[string]string{"id": "SKU1", "price": "1.00"})
	e.MarkConflict(Conflict{Reason: ConflictRejectedOverExisting})

	plan := Reconcile(uuid.New(), []verification.Verdict{
		verdict(2, verification.StatusVerified, "id", "SKU1", "price", "3.00"),
	}, []CatalogEntry{e})

	require.Len(t, plan.Changes, 1)
	assert.Equal(t, ChangeConflict, plan.Changes[0].Kind)
	assert.Equal(t, ConflictEntryInConflict, plan.Changes[0].ConflictReason)
}

func TestReconcile_ConflictAlreadyRaisedByBatch(t *testing.T) {
	batch := uuid.New()
	dup := []verification.Verdict{
		verdict(2, verification.StatusVerified, "id", "DUP", "name", "A", "price", "1.00"),
		verdict(3, verification.StatusVerified, "id", "DUP", "name", "B", "price", "2.00"),
	}

	first := Reconcile(batch, dup, nil)
	require.Len(t, first.Changes, 1)
	entry, err := ApplyChange(batch, first.Changes[0], nil)
	require.NoError(t, err)
	entry.ClearEvents()

	again := Reconcile(batch, dup, []CatalogEntry{*entry})
	require.Len(t, again.Changes, 1)
	assert.Equal(t, ChangeNoChange, again.Changes[0].Kind)
	assert.False(t, again.Changes[0].Writes())

	other := Reconcile(uuid.New(), dup, []CatalogEntry{*entry})
	assert.Equal(t, ChangeConflict, other.Changes[0].Kind)
	assert.Equal(t, ConflictDuplicateInBatch, other.Changes[0].ConflictReason)
}

func TestMarkConflict_SameBatchRowsOnce(t *testing.T) {
	batch := uuid.New()
	e := stored(t, "SKU1", map[string]string{"id": "SKU1", "price": "1.00"})
	conflict := Conflict{
		Reason:     ConflictRejectedOverExisting,
		BatchID:    batch,
		Candidates: []ConflictCandidate{{SourceRowIndex: 4}},
	}

	e.MarkConflict(conflict)
	e.MarkConflict(conflict)
	require.Len(t, e.Conflict.Candidates, 1)
	assert.True(t, e.ConflictListsRows(batch, []int{4}))
	assert.False(t, e.ConflictListsRows(batch, []int{4, 5}))
	assert.False(t, e.ConflictListsRows(uuid.New(), []int{4}))

	later := uuid.New()
	e.MarkConflict(Conflict{Reason: ConflictEntryInConflict, BatchID: later, Candidates: []ConflictCandidate{{SourceRowIndex: 4}}})
	assert.Len(t, e.Conflict.Candidates, 2)
	assert.Equal(t, later, e.Conflict.BatchID)
}

func TestReconcile_IgnoresMalformedMarkerInComparison(t *testing.T) {
	e := stored(t, "SKU1", map[string]string{"id": "SKU1", "price": "1.00"})
	v := verdict(2, verification.StatusFlagged, "id", "SKU1", "price", "1.00", verification.FieldMalformed, "true")

	plan := Reconcile(uuid.New(), []verification.Verdict{v}, []CatalogEntry{e})
	assert.Equal(t, ChangeNoChange, plan.Changes[0].Kind)
}

func TestReconcile_Deterministic(t *testing.T) {
	verdicts := []verification.Verdict{
		verdict(2, verification.StatusVerified, "id", "B", "price", "1"),
		verdict(3, verification.StatusVerified, "id", "A", "price", "1"),
		verdict(4, verification.StatusVerified, "id", "B", "price", "2"),
	}
	batch := uuid.New()
	first := Reconcile(batch, verdicts, nil)
	for range 10 {
		assert.Equal(t, first, Reconcile(batch, verdicts, nil))
	}
}

func TestApplyChange(t *testing.T) {
	batch := uuid.New()

	t.Run("insert", func(t *testing.T) {
		change := PendingChange{Key: "SKU1", Kind: ChangeInsert, Fields: map[string]string{"id": "SKU1"}, SourceRowIndex: 2}
		entry, err := ApplyChange(batch, change, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, entry.Version)
		assert.Equal(t, batch, entry.BatchID)
	})

	t.Run("insert races with another insert", func(t *testing.T) {
		current := stored(t, "SKU1", map[string]string{"id": "SKU1"})
		_, err := ApplyChange(batch, PendingChange{Key: "SKU1", Kind: ChangeInsert}, &current)
		assert.ErrorIs(t, err, shared.ErrStaleVersion)
	})

	t.Run("update checks observed version", func(t *testing.T) {
		current := stored(t, "SKU1", map[string]string{"id": "SKU1", "price": "1"})
		change := PendingChange{Key: "SKU1", Kind: ChangeUpdate, ObservedVersion: 1, Fields: map[string]string{"id": "SKU1", "price": "2"}}

		entry, err := ApplyChange(batch, change, &current)
		require.NoError(t, err)
		assert.Equal(t, 2, entry.Version)

		_, err = ApplyChange(batch, change, entry)
		assert.ErrorIs(t, err, shared.ErrStaleVersion)
	})

	t.Run("conflict on new key creates placeholder", func(t *testing.T) {
		change := PendingChange{
			Key: "NEW", Kind: ChangeConflict, ConflictReason: ConflictDuplicateInBatch,
			Candidates: []ConflictCandidate{{SourceRowIndex: 2}, {SourceRowIndex: 3}},
		}
		entry, err := ApplyChange(batch, change, nil)
		require.NoError(t, err)
		assert.True(t, entry.HasConflict())
		assert.Empty(t, entry.Fields)
		_, err = entry.Approve()
		assert.ErrorIs(t, err, shared.ErrUnresolvedConflict)
	})

	t.Run("conflict on existing key keeps fields", func(t *testing.T) {
		current := stored(t, "SKU1", map[string]string{"id": "SKU1", "price": "1"})
		change := PendingChange{Key: "SKU1", Kind: ChangeConflict, ObservedVersion: 1, ConflictReason: ConflictRejectedOverExisting}
		entry, err := ApplyChange(batch, change, &current)
		require.NoError(t, err)
		assert.True(t, entry.HasConflict())
		assert.Equal(t, "1", entry.Field("price"))
		assert.Equal(t, 2, entry.Version)
	})

	t.Run("no-op kinds write nothing", func(t *testing.T) {
		for _, kind := range []ChangeKind{ChangeNoChange, ChangeRejected} {
			entry, err := ApplyChange(batch, PendingChange{Key: "X", Kind: kind}, nil)
			require.NoError(t, err)
			assert.Nil(t, entry)
		}
	})
}
