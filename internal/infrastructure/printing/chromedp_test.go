package printing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *RenderRequest
		wantCode string
	}{
		{"nil request", nil, ErrCodeInvalidHTML},
		{"empty HTML", &RenderRequest{PaperSize: PaperSizeA4}, ErrCodeInvalidHTML},
		{"whitespace HTML", &RenderRequest{HTML: " \n\t", PaperSize: PaperSizeA4}, ErrCodeInvalidHTML},
		{"unknown paper", &RenderRequest{HTML: "<p>x</p>", PaperSize: "A0"}, ErrCodeInvalidPaperSize},
		{"valid", &RenderRequest{HTML: "<p>x</p>", PaperSize: PaperSizeLetter}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.req)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var re *RenderError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.wantCode, re.Code)
		})
	}
}

func TestPrintParams(t *testing.T) {
	a4 := printParams(&RenderRequest{PaperSize: PaperSizeA4, Margins: DefaultMargins()})
	assert.InDelta(t, 8.2677, a4.PaperWidth, 0.001)
	assert.InDelta(t, 11.6929, a4.PaperHeight, 0.001)
	assert.InDelta(t, inches(15), a4.MarginLeft, 0.001)
	assert.False(t, a4.Landscape)
	assert.False(t, a4.DisplayHeaderFooter)
	assert.True(t, a4.PrintBackground)

	letter := printParams(&RenderRequest{PaperSize: PaperSizeLetter, Orientation: OrientationLandscape})
	assert.InDelta(t, 8.5, letter.PaperWidth, 0.001)
	assert.InDelta(t, 11.0, letter.PaperHeight, 0.001)
	assert.True(t, letter.Landscape)

	footed := printParams(&RenderRequest{
		PaperSize:  PaperSizeA4,
		Margins:    Margins{Top: 5, Right: 5, Bottom: 5, Left: 5},
		FooterHTML: "<div>page</div>",
	})
	assert.True(t, footed.DisplayHeaderFooter)
	assert.Equal(t, "<div>page</div>", footed.FooterTemplate)
	assert.InDelta(t, inches(footerMinMarginMM), footed.MarginBottom, 0.001)
	assert.InDelta(t, inches(5), footed.MarginTop, 0.001)
}

func TestWrapDocument(t *testing.T) {
	for _, doc := range []string{
		"<!DOCTYPE html><html><body>x</body></html>",
		"<HTML><body>x</body></HTML>",
	} {
		assert.Equal(t, doc, wrapDocument(&RenderRequest{HTML: doc}))
	}

	out := wrapDocument(&RenderRequest{HTML: "<div>Hello</div>", Title: "Acme & Co"})
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Acme &amp; Co</title>")
	assert.True(t, strings.HasSuffix(out, "<body><div>Hello</div></body></html>"))
}

func TestCountPages(t *testing.T) {
	assert.Equal(t, 3, countPages([]byte("/Type /Pages /Type /Page /Type /Page /Type /Page")))
	assert.Equal(t, 1, countPages([]byte("%PDF-1.4")))
}

func TestChromedpRenderer_Defaults(t *testing.T) {
	r := NewChromedpRenderer(config.PrintingConfig{RemoteURL: "ws://127.0.0.1:9222"}, nil)
	t.Cleanup(func() { assert.NoError(t, r.Close()) })
	assert.Equal(t, defaultChromeTimeout, r.timeout)

	_, err := r.Render(context.Background(), &RenderRequest{PaperSize: PaperSizeA4})
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeInvalidHTML, re.Code)

	assert.NoError(t, (&ChromedpRenderer{}).Close())
}

func TestChromedpRenderer_WaitsForTab(t *testing.T) {
	r := NewChromedpRenderer(config.PrintingConfig{RemoteURL: "ws://127.0.0.1:9222", MaxTabs: 1}, nil)
	t.Cleanup(func() { _ = r.Close() })
	require.True(t, r.tabs.TryAcquire(1))
	defer r.tabs.Release(1)

	_, err := r.Render(context.Background(), &RenderRequest{
		HTML:      "<p>SKU1</p>",
		PaperSize: PaperSizeA4,
		Timeout:   20 * time.Millisecond,
	})
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeRenderTimeout, re.Code)
}
