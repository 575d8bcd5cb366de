// Package proposal assembles, stores and presents priced proposals built
// from approved catalog entries.
package proposal

import (
	"context"
	"strings"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared/valueobject"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/logger"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StageAssemble is the pipeline stage name for proposal assembly
const StageAssemble = "assemble"

// NarrativeRequest is the input of a narrative generator
type NarrativeRequest struct {
	Proposal *proposal.Proposal
	Analysis *proposal.CostAnalysis
}

// NarrativeGenerator writes the prose part of a proposal. Its output is
// display text only and never feeds back into pricing.
type NarrativeGenerator interface {
	Generate(ctx context.Context, req NarrativeRequest) (string, error)
}

// Printer renders a proposal as a PDF document
type Printer interface {
	PrintProposal(ctx context.Context, p *proposal.Proposal, analysis *proposal.CostAnalysis, narrative string) ([]byte, error)
}

// Recorder receives proposal measurements
type Recorder interface {
	RecordProposal(ctx context.Context, total decimal.Decimal)
	ObserveStage(ctx context.Context, stage string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordProposal(context.Context, decimal.Decimal)     {}
func (nopRecorder) ObserveStage(context.Context, string, time.Duration) {}

// ProposalService prices proposals against the approved catalog
type ProposalService struct {
	entries   catalog.CatalogEntryRepository
	proposals proposal.ProposalRepository
	narrative NarrativeGenerator
	printer   Printer
	publisher shared.EventPublisher
	metrics   Recorder
	logger    *zap.Logger
}

// Option configures a ProposalService
type Option func(*ProposalService)

// WithNarrative sets the narrative generator
func WithNarrative(g NarrativeGenerator) Option {
	return func(s *ProposalService) {
		s.narrative = g
	}
}

// WithPrinter enables PDF rendering
func WithPrinter(p Printer) Option {
	return func(s *ProposalService) {
		s.printer = p
	}
}

// WithEventPublisher sets the publisher for proposal events
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *ProposalService) {
		s.publisher = p
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(r Recorder) Option {
	return func(s *ProposalService) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *ProposalService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewProposalService creates a new ProposalService
func NewProposalService(entries catalog.CatalogEntryRepository, proposals proposal.ProposalRepository, opts ...Option) *ProposalService {
	s := &ProposalService{
		entries:   entries,
		proposals: proposals,
		metrics:   nopRecorder{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assemble prices a proposal. The approved entries are read once, so every
// line is priced from the same catalog snapshot.
func (s *ProposalService) Assemble(ctx context.Context, req AssembleProposalRequest) (resp *ProposalResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ProposalService", "Assemble",
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(req.Lines)))
	defer func() {
		if resp != nil {
			telemetry.SetAttributes(span,
				telemetry.SpanAttrProposalID, resp.ID.String(),
				telemetry.SpanAttrTotal, resp.Total.Amount().StringFixed(2),
				telemetry.SpanAttrCurrency, string(resp.Total.Currency()),
			)
		}
		telemetry.RecordError(span, err)
		span.End()
	}()

	start := time.Now()
	domainReq := req.toDomain()
	approved, err := s.entries.FindApprovedByKeys(ctx, domainReq.Keys())
	if err != nil {
		return nil, err
	}
	p, err := proposal.Assemble(domainReq, approved)
	if err != nil {
		return nil, err
	}
	if err := s.proposals.Save(ctx, p); err != nil {
		return nil, err
	}
	s.metrics.ObserveStage(ctx, StageAssemble, time.Since(start))
	s.metrics.RecordProposal(ctx, p.Total().Amount())

	events := p.PendingEvents()
	p.ClearEvents()
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish proposal events", zap.String("proposal_id", p.ID.String()), zap.Error(err))
		}
	}

	_, log := logger.WithProposalID(ctx, s.logger, p.ID.String())
	log.Info("Proposal assembled",
		zap.String("client_ref", p.ClientRef),
		zap.Int("lines", len(p.Items)),
		zap.String("total", p.Total().String()),
	)

	out := ToProposalResponse(p)
	return &out, nil
}

// Get returns one proposal
func (s *ProposalService) Get(ctx context.Context, id uuid.UUID) (*ProposalResponse, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToProposalResponse(p)
	return &out, nil
}

// List returns proposals with the total count
func (s *ProposalService) List(ctx context.Context, filter proposal.ProposalFilter) ([]ProposalListItem, int64, error) {
	proposals, err := s.proposals.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.proposals.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToProposalListItems(proposals), total, nil
}

// CompareCosts compares two totals
func (s *ProposalService) CompareCosts(_ context.Context, req CompareCostsRequest) (*CostAnalysisResponse, error) {
	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		currency = valueobject.Currency(strings.ToUpper(req.Currency))
	}
	current, err := valueobject.NewMoney(req.CurrentCostTotal, currency)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	proposed, err := valueobject.NewMoney(req.NewCostTotal, currency)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	analysis, err := proposal.CalculateCostAnalysis(current, proposed)
	if err != nil {
		return nil, err
	}
	out := toCostAnalysisResponse(analysis)
	return &out, nil
}

// CostAnalysis compares the client's current spend with a stored proposal.
// A narrative that cannot be generated is reported in the response and does
// not fail the call.
func (s *ProposalService) CostAnalysis(ctx context.Context, id uuid.UUID, req CostAnalysisRequest) (*CostAnalysisResponse, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	analysis, err := s.analyze(p, req.CurrentCostTotal)
	if err != nil {
		return nil, err
	}

	out := toCostAnalysisResponse(analysis)
	out.ProposalID = &p.ID
	if req.WithNarrative {
		text, err := s.generateNarrative(ctx, p, &analysis)
		if err != nil {
			out.NarrativeError = err.Error()
		} else {
			out.Narrative = text
		}
	}
	return &out, nil
}

// PDF renders a stored proposal. currentCost adds the cost comparison when set.
func (s *ProposalService) PDF(ctx context.Context, id uuid.UUID, currentCost *decimal.Decimal) ([]byte, error) {
	if s.printer == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "PDF rendering is disabled")
	}
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var analysis *proposal.CostAnalysis
	narrative := ""
	if currentCost != nil {
		a, err := s.analyze(p, *currentCost)
		if err != nil {
			return nil, err
		}
		analysis = &a
	}
	if text, err := s.generateNarrative(ctx, p, analysis); err == nil {
		narrative = text
	}

	data, err := s.printer.PrintProposal(ctx, p, analysis, narrative)
	if err != nil {
		s.logger.Error("Failed to render proposal PDF", zap.String("proposal_id", id.String()), zap.Error(err))
		return nil, err
	}
	return data, nil
}

func (s *ProposalService) analyze(p *proposal.Proposal, currentCost decimal.Decimal) (proposal.CostAnalysis, error) {
	current, err := valueobject.NewMoney(currentCost, p.Currency)
	if err != nil {
		return proposal.CostAnalysis{}, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	return proposal.CalculateCostAnalysis(current, p.Total())
}

func (s *ProposalService) generateNarrative(ctx context.Context, p *proposal.Proposal, analysis *proposal.CostAnalysis) (string, error) {
	if s.narrative == nil {
		return "", shared.NewDomainError(shared.CodeNarrativeUnavailable, "No narrative generator is configured")
	}
	text, err := s.narrative.Generate(ctx, NarrativeRequest{Proposal: p, Analysis: analysis})
	if err != nil {
		s.logger.Warn("Narrative generation failed",
			zap.String("proposal_id", p.ID.String()),
			zap.Bool("transient", shared.IsTransient(err)),
			zap.Error(err),
		)
		return "", err
	}
	return text, nil
}
