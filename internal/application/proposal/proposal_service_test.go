package proposal

import (
	"context"
	"errors"
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogEntryRepository is a mock implementation of catalog.CatalogEntryRepository
type MockCatalogEntryRepository struct {
	mock.Mock
}

func (m *MockCatalogEntryRepository) FindByKey(ctx context.Context, key string) (*catalog.CatalogEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CatalogEntry), args.Error(1)
}

func (m *MockCatalogEntryRepository) FindByKeys(ctx context.Context, keys []string) ([]catalog.CatalogEntry, error) {
	args := m.Called(ctx, keys)
	return args.Get(0).([]catalog.CatalogEntry), args.Error(1)
}

func (m *MockCatalogEntryRepository) FindAll(ctx context.Context, filter catalog.EntryFilter) ([]catalog.CatalogEntry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.CatalogEntry), args.Error(1)
}

func (m *MockCatalogEntryRepository) FindPendingByBatch(ctx context.Context, batchID uuid.UUID) ([]catalog.CatalogEntry, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).([]catalog.CatalogEntry), args.Error(1)
}

func (m *MockCatalogEntryRepository) FindApprovedByKeys(ctx context.Context, keys []string) ([]catalog.CatalogEntry, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.CatalogEntry), args.Error(1)
}

func (m *MockCatalogEntryRepository) Count(ctx context.Context, filter catalog.EntryFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalogEntryRepository) SaveWithLock(ctx context.Context, entry *catalog.CatalogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockProposalRepository is a mock implementation of proposal.ProposalRepository
type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) FindByID(ctx context.Context, id uuid.UUID) (*proposal.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*proposal.Proposal), args.Error(1)
}

func (m *MockProposalRepository) FindAll(ctx context.Context, filter proposal.ProposalFilter) ([]proposal.Proposal, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]proposal.Proposal), args.Error(1)
}

func (m *MockProposalRepository) Count(ctx context.Context, filter proposal.ProposalFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProposalRepository) Save(ctx context.Context, p *proposal.Proposal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockNarrativeGenerator is a mock implementation of NarrativeGenerator
type MockNarrativeGenerator struct {
	mock.Mock
}

func (m *MockNarrativeGenerator) Generate(ctx context.Context, req NarrativeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockPrinter is a mock implementation of Printer
type MockPrinter struct {
	mock.Mock
}

func (m *MockPrinter) PrintProposal(ctx context.Context, p *proposal.Proposal, analysis *proposal.CostAnalysis, narrative string) ([]byte, error) {
	args := m.Called(ctx, p, analysis, narrative)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func approvedEntry(t *testing.T, key, price string) catalog.CatalogEntry {
	t.Helper()
	e, err := catalog.NewCatalogEntry(key, map[string]string{"id": key, "name": "Product " + key, "price": price}, []string{"priceValid"}, uuid.New(), 2)
	require.NoError(t, err)
	_, err = e.Approve()
	require.NoError(t, err)
	return *e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assembled(t *testing.T) *proposal.Proposal {
	t.Helper()
	p, err := proposal.Assemble(proposal.AssemblyRequest{
		ClientRef: "client-42",
		Lines: []proposal.LineRequest{
			{ProductKey: "A", Quantity: 2},
			{ProductKey: "B", Quantity: 3},
		},
	}, []catalog.CatalogEntry{approvedEntry(t, "A", "10.00"), approvedEntry(t, "B", "5.00")})
	require.NoError(t, err)
	p.ClearEvents()
	return p
}

func TestProposalService_Assemble(t *testing.T) {
	ctx := context.Background()
	snapshot := []catalog.CatalogEntry{approvedEntry(t, "A", "10.00"), approvedEntry(t, "B", "5.00")}

	t.Run("prices lines from the approved snapshot", func(t *testing.T) {
		entries := new(MockCatalogEntryRepository)
		proposals := new(MockProposalRepository)
		publisher := &capturePublisher{}
		svc := NewProposalService(entries, proposals, WithEventPublisher(publisher))

		entries.On("FindApprovedByKeys", ctx, []string{"A", "B"}).Return(snapshot, nil).Once()
		proposals.On("Save", ctx, mock.AnythingOfType("*proposal.Proposal")).Return(nil)

		resp, err := svc.Assemble(ctx, AssembleProposalRequest{
			ClientRef: "client-42",
			Lines: []LineRequest{
				{ProductKey: "a", Quantity: 2},
				{ProductKey: "B", Quantity: 3},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "35.00", resp.Total.StringFixed(2))
		assert.Equal(t, "35.00", resp.Subtotal.StringFixed(2))
		assert.Equal(t, 5, resp.TotalQuantity)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, "A", resp.Items[0].ProductKey)
		assert.Equal(t, "20.00", resp.Items[0].LineTotal.StringFixed(2))
		assert.Equal(t, "Product A", resp.Items[0].ProductName)
		require.Len(t, publisher.events, 1)
		assert.Equal(t, proposal.EventTypeProposalAssembled, publisher.events[0].EventType())
		entries.AssertExpectations(t)
		proposals.AssertExpectations(t)
	})

	t.Run("unapproved product", func(t *testing.T) {
		entries := new(MockCatalogEntryRepository)
		proposals := new(MockProposalRepository)
		svc := NewProposalService(entries, proposals)

		entries.On("FindApprovedByKeys", ctx, []string{"A", "ZZZ"}).Return(snapshot[:1], nil)

		_, err := svc.Assemble(ctx, AssembleProposalRequest{
			ClientRef: "client-42",
			Lines: []LineRequest{
				{ProductKey: "A", Quantity: 1},
				{ProductKey: "ZZZ", Quantity: 1},
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrUnapprovedProduct)
		proposals.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("zero quantity", func(t *testing.T) {
		entries := new(MockCatalogEntryRepository)
		proposals := new(MockProposalRepository)
		svc := NewProposalService(entries, proposals)

		entries.On("FindApprovedByKeys", ctx, []string{"A"}).Return(snapshot, nil)

		_, err := svc.Assemble(ctx, AssembleProposalRequest{
			ClientRef: "client-42",
			Lines:     []LineRequest{{ProductKey: "A", Quantity: 0}},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
		proposals.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("repository failure", func(t *testing.T) {
		entries := new(MockCatalogEntryRepository)
		proposals := new(MockProposalRepository)
		svc := NewProposalService(entries, proposals)

		entries.On("FindApprovedByKeys", ctx, []string{"A"}).Return(nil, errors.New("connection reset"))

		_, err := svc.Assemble(ctx, AssembleProposalRequest{
			ClientRef: "client-42",
			Lines:     []LineRequest{{ProductKey: "A", Quantity: 1}},
		})
		assert.EqualError(t, err, "connection reset")
	})
}

func TestProposalService_CompareCosts(t *testing.T) {
	svc := NewProposalService(nil, nil)
	ctx := context.Background()

	resp, err := svc.CompareCosts(ctx, CompareCostsRequest{
		CurrentCostTotal: dec("1500"),
		NewCostTotal:     dec("1200"),
	})
	require.NoError(t, err)
	assert.Equal(t, "300.00", resp.SavingsAmount.StringFixed(2))
	assert.Equal(t, "0.2000", resp.SavingsRate)
	assert.Nil(t, resp.ProposalID)

	resp, err = svc.CompareCosts(ctx, CompareCostsRequest{
		CurrentCostTotal: dec("0"),
		NewCostTotal:     dec("100"),
		Currency:         "eur",
	})
	require.NoError(t, err)
	assert.Equal(t, "-100.00", resp.SavingsAmount.StringFixed(2))
	assert.Equal(t, "0.0000", resp.SavingsRate)
	assert.Equal(t, "EUR", string(resp.NewCostTotal.Currency()))

	_, err = svc.CompareCosts(ctx, CompareCostsRequest{CurrentCostTotal: dec("-1"), NewCostTotal: dec("1")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestProposalService_CostAnalysis(t *testing.T) {
	ctx := context.Background()
	p := assembled(t)

	t.Run("with narrative", func(t *testing.T) {
		proposals := new(MockProposalRepository)
		narrative := new(MockNarrativeGenerator)
		svc := NewProposalService(nil, proposals, WithNarrative(narrative))

		proposals.On("FindByID", ctx, p.ID).Return(p, nil)
		narrative.On("Generate", ctx, mock.MatchedBy(func(req NarrativeRequest) bool {
			return req.Proposal == p && req.Analysis != nil
		})).Return("You save 15.00 a month.", nil)

		resp, err := svc.CostAnalysis(ctx, p.ID, CostAnalysisRequest{CurrentCostTotal: dec("50"), WithNarrative: true})
		require.NoError(t, err)
		assert.Equal(t, "15.00", resp.SavingsAmount.StringFixed(2))
		assert.Equal(t, "0.3000", resp.SavingsRate)
		assert.Equal(t, "You save 15.00 a month.", resp.Narrative)
		assert.Empty(t, resp.NarrativeError)
		require.NotNil(t, resp.ProposalID)
		assert.Equal(t, p.ID, *resp.ProposalID)
	})

	t.Run("narrative failure keeps the figures", func(t *testing.T) {
		proposals := new(MockProposalRepository)
		narrative := new(MockNarrativeGenerator)
		svc := NewProposalService(nil, proposals, WithNarrative(narrative))

		proposals.On("FindByID", ctx, p.ID).Return(p, nil)
		narrative.On("Generate", ctx, mock.Anything).Return("", shared.NewTransientError(errors.New("upstream timeout")))

		resp, err := svc.CostAnalysis(ctx, p.ID, CostAnalysisRequest{CurrentCostTotal: dec("50"), WithNarrative: true})
		require.NoError(t, err)
		assert.Equal(t, "15.00", resp.SavingsAmount.StringFixed(2))
		assert.Empty(t, resp.Narrative)
		assert.Contains(t, resp.NarrativeError, "upstream timeout")
	})

	t.Run("no generator configured", func(t *testing.T) {
		proposals := new(MockProposalRepository)
		svc := NewProposalService(nil, proposals)

		proposals.On("FindByID", ctx, p.ID).Return(p, nil)

		resp, err := svc.CostAnalysis(ctx, p.ID, CostAnalysisRequest{CurrentCostTotal: dec("50"), WithNarrative: true})
		require.NoError(t, err)
		assert.Contains(t, resp.NarrativeError, "No narrative generator")
	})

	t.Run("unknown proposal", func(t *testing.T) {
		proposals := new(MockProposalRepository)
		svc := NewProposalService(nil, proposals)
		id := uuid.New()

		proposals.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := svc.CostAnalysis(ctx, id, CostAnalysisRequest{CurrentCostTotal: dec("50")})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestProposalService_PDF(t *testing.T) {
	ctx := context.Background()
	p := assembled(t)

	t.Run("disabled without a printer", func(t *testing.T) {
		svc := NewProposalService(nil, new(MockProposalRepository))
		_, err := svc.PDF(ctx, p.ID, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("renders with cost comparison", func(t *testing.T) {
		proposals := new(MockProposalRepository)
		printer := new(MockPrinter)
		narrative := new(MockNarrativeGenerator)
		svc := NewProposalService(nil, proposals, WithPrinter(printer), WithNarrative(narrative))

		proposals.On("FindByID", ctx, p.ID).Return(p, nil)
		narrative.On("Generate", ctx, mock.Anything).Return("summary", nil)
		printer.On("PrintProposal", ctx, p, mock.MatchedBy(func(a *proposal.CostAnalysis) bool {
			return a != nil && a.SavingsAmount.StringFixed(2) == "15.00"
		}), "summary").Return([]byte("%PDF-1.3"), nil)

		current := dec("50")
		data, err := svc.PDF(ctx, p.ID, &current)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.3"), data)
		printer.AssertExpectations(t)
	})

	t.Run("narrative failure still renders", func(t *testing.T) {
		proposals := new(MockProposalRepository)
		printer := new(MockPrinter)
		narrative := new(MockNarrativeGenerator)
		svc := NewProposalService(nil, proposals, WithPrinter(printer), WithNarrative(narrative))

		proposals.On("FindByID", ctx, p.ID).Return(p, nil)
		narrative.On("Generate", ctx, mock.Anything).Return("", errors.New("boom"))
		printer.On("PrintProposal", ctx, p, (*proposal.CostAnalysis)(nil), "").Return([]byte("%PDF"), nil)

		data, err := svc.PDF(ctx, p.ID, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})
}

func TestProposalService_List(t *testing.T) {
	ctx := context.Background()
	proposals := new(MockProposalRepository)
	svc := NewProposalService(nil, proposals)
	p := assembled(t)
	filter := proposal.ProposalFilter{ClientRef: "client-42"}

	proposals.On("FindAll", ctx, filter).Return([]proposal.Proposal{*p}, nil)
	proposals.On("Count", ctx, filter).Return(int64(1), nil)

	items, total, err := svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Lines)
	assert.Equal(t, "35.00", items[0].Total.StringFixed(2))
}
