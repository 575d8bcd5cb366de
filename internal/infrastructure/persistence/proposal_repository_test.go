package persistence

import (
	"context"
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assembledProposal(t *testing.T, clientRef string, discount *proposal.DiscountRequest) *proposal.Proposal {
	t.Helper()
	batchID := uuid.New()
	snapshot := make([]catalog.CatalogEntry, 0, 2)
	for key, price := range map[string]string{"SKU1": "10.00", "SKU2": "5.00"} {
		entry := newTestEntry(t, key, price, batchID, 2)
		_, err := entry.Approve()
		require.NoError(t, err)
		snapshot = append(snapshot, *entry)
	}
	p, err := proposal.Assemble(proposal.AssemblyRequest{
		ClientRef: clientRef,
		Title:     "Office refresh",
		Lines: []proposal.LineRequest{
			{ProductKey: "SKU1", Quantity: 2},
			{ProductKey: "SKU2", Quantity: 3},
		},
		Discount: discount,
	}, snapshot)
	require.NoError(t, err)
	return p
}

func TestGormProposalRepository(t *testing.T) {
	db := setupSQLiteTestDB(t)
	repo := NewGormProposalRepository(db)
	ctx := context.Background()

	rate := decimal.RequireFromString("0.1")
	p := assembledProposal(t, "client-42", &proposal.DiscountRequest{Rate: &rate})
	require.NoError(t, repo.Save(ctx, p))

	t.Run("round trip keeps lines in order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "client-42", found.ClientRef)
		require.Len(t, found.Items, 2)
		assert.Equal(t, "SKU1", found.Items[0].ProductKey)
		assert.Equal(t, "SKU2", found.Items[1].ProductKey)
		assert.Equal(t, "Product SKU1", found.Items[0].Product.Name)
		assert.Equal(t, 2, found.Items[0].Product.Version)
		assert.Equal(t, "35.00", found.Subtotal().StringFixed(2))
		assert.Equal(t, "31.50", found.Total().StringFixed(2))
		require.NotNil(t, found.Discount)
		assert.Equal(t, proposal.DiscountRate, found.Discount.Kind)
	})

	t.Run("saving twice is rejected", func(t *testing.T) {
		err := repo.Save(ctx, p)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list by client", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, assembledProposal(t, "client-7", nil)))
		require.NoError(t, repo.Save(ctx, assembledProposal(t, "client-7", nil)))

		list, err := repo.FindAll(ctx, proposal.ProposalFilter{ClientRef: "client-7"})
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, item := range list {
			assert.Equal(t, "client-7", item.ClientRef)
			assert.Len(t, item.Items, 2)
			assert.Nil(t, item.Discount)
		}

		count, err := repo.Count(ctx, proposal.ProposalFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}
