package catalog

import (
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(t *testing.T) *CatalogEntry {
	t.Helper()
	entry, err := NewCatalogEntry(" sku1 ", map[string]string{"id": "SKU1", "name": "Widget", "price": "10.00"}, []string{"priceValid"}, uuid.New(), 2)
	require.NoError(t, err)
	return entry
}

func TestNewCatalogEntry(t *testing.T) {
	t.Run("creates pending entry with normalized key", func(t *testing.T) {
		entry := newEntry(t)

		assert.Equal(t, "SKU1", entry.Key)
		assert.Equal(t, ApprovalStatePending, entry.ApprovalState)
		assert.Equal(t, 1, entry.Version)
		assert.Equal(t, []string{"priceValid"}, entry.Tags)
		assert.Equal(t, 2, entry.SourceRowIndex)
		assert.False(t, entry.HasConflict())
		assert.True(t, entry.HasTag("priceValid"))

		events := entry.PendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeEntryCreated, events[0].EventType())
	})

	t.Run("fails with blank key", func(t *testing.T) {
		_, err := NewCatalogEntry("   ", nil, nil, uuid.New(), 1)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestCatalogEntry_Approve(t *testing.T) {
	t.Run("pending to approved bumps version once", func(t *testing.T) {
		entry := newEntry(t)

		changed, err := entry.Approve()
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, ApprovalStateApproved, entry.ApprovalState)
		assert.Equal(t, 2, entry.Version)
		assert.NotNil(t, entry.ApprovedAt)
		assert.True(t, entry.IsApproved())

		changed, err = entry.Approve()
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, 2, entry.Version)
	})

	t.Run("conflict blocks approval", func(t *testing.T) {
		entry := newEntry(t)
		entry.MarkConflict(Conflict{Reason: ConflictRejectedOverExisting, BatchID: uuid.New()})
		version := entry.Version

		_, err := entry.Approve()
		assert.ErrorIs(t, err, shared.ErrUnresolvedConflict)
		assert.Equal(t, ApprovalStatePending, entry.ApprovalState)
		assert.Equal(t, version, entry.Version)
	})

	t.Run("rejected cannot be approved", func(t *testing.T) {
		entry := newEntry(t)
		_, err := entry.Reject("wrong supplier")
		require.NoError(t, err)

		_, err = entry.Approve()
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestCatalogEntry_Reject(t *testing.T) {
	entry := newEntry(t)

	_, err := entry.Reject(" ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	changed, err := entry.Reject("duplicate of SKU9")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, ApprovalStateRejected, entry.ApprovalState)
	assert.Equal(t, "duplicate of SKU9", entry.RejectionReason)
	assert.Equal(t, 2, entry.Version)

	changed, err = entry.Reject("again")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 2, entry.Version)

	approved := newEntry(t)
	_, _ = approved.Approve()
	_, err = approved.Reject("late")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCatalogEntry_ApplyUpdate(t *testing.T) {
	entry := newEntry(t)
	_, err := entry.Approve()
	require.NoError(t, err)
	entry.ClearEvents()

	unchanged := entry.ApplyUpdate(map[string]string{"id": "SKU1", "name": "Widget", "price": "10.00"}, nil, uuid.New(), 3)
	assert.False(t, unchanged, "identical fields are not an update")
	assert.Equal(t, 2, entry.Version)

	batch := uuid.New()
	changed := entry.ApplyUpdate(map[string]string{"id": "SKU1", "name": "Widget", "price": "12.00"}, []string{"priceValid"}, batch, 5)
	assert.True(t, changed)
	assert.Equal(t, 3, entry.Version)
	assert.Equal(t, ApprovalStatePending, entry.ApprovalState, "changed data needs a fresh approval")
	assert.Nil(t, entry.ApprovedAt)
	assert.Equal(t, batch, entry.BatchID)
	assert.Equal(t, 5, entry.SourceRowIndex)

	events := entry.PendingEvents()
	require.Len(t, events, 1)
	updated, ok := events[0].(*EntryUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, "10.00", updated.PreviousFields["price"])
	assert.Equal(t, "12.00", updated.Fields["price"])
}

func TestCatalogEntry_ResolveConflict(t *testing.T) {
	candidates := []ConflictCandidate{
		{SourceRowIndex: 4, Fields: map[string]string{"id": "SKU1", "price": "11.00"}, Status: verification.StatusVerified, Tags: []string{"priceValid"}},
		{SourceRowIndex: 6, Fields: map[string]string{"id": "SKU1", "price": "-1"}, Status: verification.StatusRejected},
	}

	t.Run("adopt candidate", func(t *testing.T) {
		entry := newEntry(t)
		entry.MarkConflict(Conflict{Reason: ConflictDuplicateInBatch, BatchID: uuid.New(), Candidates: candidates})
		v := entry.Version

		require.NoError(t, entry.ResolveConflict(ConflictResolution{CandidateRowIndex: 4}))
		assert.False(t, entry.HasConflict())
		assert.Equal(t, "11.00", entry.Field("price"))
		assert.Equal(t, v+1, entry.Version)
		assert.Equal(t, ApprovalStatePending, entry.ApprovalState)

		changed, err := entry.Approve()
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("rejected candidate cannot be adopted", func(t *testing.T) {
		entry := newEntry(t)
		entry.MarkConflict(Conflict{Reason: ConflictDuplicateInBatch, Candidates: candidates})
		err := entry.ResolveConflict(ConflictResolution{CandidateRowIndex: 6})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.True(t, entry.HasConflict())
	})

	t.Run("unknown candidate", func(t *testing.T) {
		entry := newEntry(t)
		entry.MarkConflict(Conflict{Reason: ConflictDuplicateInBatch, Candidates: candidates})
		assert.ErrorIs(t, entry.ResolveConflict(ConflictResolution{CandidateRowIndex: 99}), shared.ErrInvalidInput)
	})

	t.Run("keep existing", func(t *testing.T) {
		entry := newEntry(t)
		entry.MarkConflict(Conflict{Reason: ConflictRejectedOverExisting, Candidates: candidates[1:]})
		require.NoError(t, entry.ResolveConflict(ConflictResolution{KeepExisting: true, Comment: "supplier typo"}))
		assert.Equal(t, "10.00", entry.Field("price"))
	})

	t.Run("placeholder must adopt", func(t *testing.T) {
		entry, err := NewConflictedEntry("new1", Conflict{Reason: ConflictDuplicateInBatch, Candidates: candidates}, 4)
		require.NoError(t, err)
		assert.ErrorIs(t, entry.ResolveConflict(ConflictResolution{KeepExisting: true}), shared.ErrInvalidInput)
		require.NoError(t, entry.ResolveConflict(ConflictResolution{CandidateRowIndex: 4}))
		assert.Equal(t, "11.00", entry.Field("price"))
	})

	t.Run("no open conflict", func(t *testing.T) {
		entry := newEntry(t)
		assert.ErrorIs(t, entry.ResolveConflict(ConflictResolution{KeepExisting: true}), shared.ErrInvalidState)
	})
}

func TestCatalogEntry_UnitPrice(t *testing.T) {
	entry := newEntry(t)
	price, err := entry.UnitPrice()
	require.NoError(t, err)
	assert.Equal(t, "10", price.String())

	entry.Fields["price"] = "abc"
	_, err = entry.UnitPrice()
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	delete(entry.Fields, "price")
	_, err = entry.UnitPrice()
	assert.Error(t, err)
}
