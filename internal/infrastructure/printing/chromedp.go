package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultMaxTabs       = 4
	// footerMinMarginMM keeps the repeated footer clear of the content
	footerMinMarginMM = 12.0
	blankTemplate     = "<span></span>"
)

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// ChromedpRenderer prints HTML to PDF over the Chrome DevTools Protocol.
// Every render opens a tab in one shared browser, launched locally or
// reached at RemoteURL.
type ChromedpRenderer struct {
	timeout  time.Duration
	tabs     *semaphore.Weighted
	logger   *zap.Logger
	browser  context.Context
	shutdown context.CancelFunc
}

func NewChromedpRenderer(cfg config.PrintingConfig, logger *zap.Logger) *ChromedpRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}
	maxTabs := cfg.MaxTabs
	if maxTabs <= 0 {
		maxTabs = defaultMaxTabs
	}
	browser, shutdown := allocator(cfg)
	return &ChromedpRenderer{
		timeout:  timeout,
		tabs:     semaphore.NewWeighted(int64(maxTabs)),
		logger:   logger,
		browser:  browser,
		shutdown: shutdown,
	}
}

func allocator(cfg config.PrintingConfig) (context.Context, context.CancelFunc) {
	if cfg.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return chromedp.NewExecAllocator(context.Background(), opts...)
}

// Render prints one document. Renders beyond the tab limit wait for a free
// tab within the same timeout.
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.tabs.Acquire(ctx, 1); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "no browser tab became free", err)
	}
	defer r.tabs.Release(1)

	start := time.Now()
	pdf, err := r.print(ctx, wrapDocument(req), printParams(req))
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering stopped after %v", time.Since(start).Round(time.Millisecond)), err)
		}
		r.logger.Error("Chrome failed to print proposal", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chrome print failed", err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	result := &RenderResult{
		PDFData:        pdf,
		PageCount:      countPages(pdf),
		RenderDuration: time.Since(start),
	}
	r.logger.Debug("PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result, nil
}

func (r *ChromedpRenderer) print(ctx context.Context, doc string, params *page.PrintToPDFParams) ([]byte, error) {
	tab, closeTab := chromedp.NewContext(r.browser, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = params.Do(ctx)
			return err
		}),
	)
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return pdf, err
}

// Close shuts the shared browser down
func (r *ChromedpRenderer) Close() error {
	if r.shutdown != nil {
		r.shutdown()
	}
	return nil
}

// printParams converts a request into PrintToPDF arguments, which are in
// inches
func printParams(req *RenderRequest) *page.PrintToPDFParams {
	width, height := req.PaperSize.Dimensions()
	bottom := req.Margins.Bottom
	footer := blankTemplate
	if req.FooterHTML != "" {
		footer = req.FooterHTML
		bottom = max(bottom, footerMinMarginMM)
	}
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPreferCSSPageSize(false).
		WithPaperWidth(inches(width)).
		WithPaperHeight(inches(height)).
		WithMarginTop(inches(req.Margins.Top)).
		WithMarginRight(inches(req.Margins.Right)).
		WithMarginBottom(inches(bottom)).
		WithMarginLeft(inches(req.Margins.Left)).
		WithLandscape(req.Orientation == OrientationLandscape).
		WithDisplayHeaderFooter(req.FooterHTML != "").
		WithHeaderTemplate(blankTemplate).
		WithFooterTemplate(footer)
}

// wrapDocument turns an HTML fragment into a document. Input that already
// has a doctype or html element is returned unchanged.
func wrapDocument(req *RenderRequest) string {
	head := strings.ToLower(req.HTML[:min(len(req.HTML), 512)])
	if strings.Contains(head, "<!doctype") || strings.Contains(head, "<html") {
		return req.HTML
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(req.Title))
	}
	b.WriteString("</head><body>")
	b.WriteString(req.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

func inches(mm float64) float64 {
	return mm / 25.4
}

// countPages counts /Type /Page objects, never less than one
func countPages(pdf []byte) int {
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(pages, 1)
}
