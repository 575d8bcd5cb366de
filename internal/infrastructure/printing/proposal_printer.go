package printing

import (
	"context"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"go.uber.org/zap"
)

// ProposalPrinter turns proposals into PDF documents
type ProposalPrinter struct {
	engine   *TemplateEngine
	renderer PDFRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewProposalPrinter creates a printer over a template engine and a PDF renderer
func NewProposalPrinter(engine *TemplateEngine, renderer PDFRenderer, logger *zap.Logger) *ProposalPrinter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalPrinter{engine: engine, renderer: renderer, logger: logger, now: time.Now}
}

// PrintProposal renders the proposal with its optional cost analysis and narrative
func (p *ProposalPrinter) PrintProposal(ctx context.Context, prop *proposal.Proposal, analysis *proposal.CostAnalysis, narrative string) ([]byte, error) {
	html, err := p.engine.RenderProposal(ProposalDocument{
		Proposal:    prop,
		Analysis:    analysis,
		Narrative:   narrative,
		GeneratedAt: p.now(),
	})
	if err != nil {
		return nil, err
	}

	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:        html,
		PaperSize:   PaperSizeA4,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
		Title:       prop.ClientRef,
		FooterHTML:  `<div style="font-size:8px;width:100%;text-align:center;"><span class="pageNumber"></span> / <span class="totalPages"></span></div>`,
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Proposal printed",
		zap.String("proposal_id", prop.ID.String()),
		zap.Int("pages", result.PageCount),
	)
	return result.PDFData, nil
}

// Close releases the renderer
func (p *ProposalPrinter) Close() error {
	return p.renderer.Close()
}
