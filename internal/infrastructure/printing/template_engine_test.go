package printing

import (
	"testing"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared/valueobject"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedEntry(t *testing.T, key, name, price string) catalog.CatalogEntry {
	t.Helper()
	entry, err := catalog.NewCatalogEntry(key, map[string]string{
		verification.FieldID:    key,
		verification.FieldName:  name,
		verification.FieldPrice: price,
	}, []string{"priceValid"}, uuid.New(), 2)
	require.NoError(t, err)
	_, err = entry.Approve()
	require.NoError(t, err)
	return *entry
}

func sampleProposal(t *testing.T) *proposal.Proposal {
	t.Helper()
	approved := []catalog.CatalogEntry{
		approvedEntry(t, "A", "widget <deluxe>", "10.00"),
		approvedEntry(t, "B", "gadget", "5.00"),
	}
	p, err := proposal.Assemble(proposal.AssemblyRequest{
		ClientRef: "ACME",
		Title:     "Office refresh",
		Lines: []proposal.LineRequest{
			{ProductKey: "A", Quantity: 2},
			{ProductKey: "B", Quantity: 3},
		},
	}, approved)
	require.NoError(t, err)
	return p
}

func TestTemplateEngine_RenderProposal(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	p := sampleProposal(t)

	analysis, err := proposal.CalculateCostAnalysis(valueobject.MustMoney("1500"), valueobject.MustMoney("1200"))
	require.NoError(t, err)

	html, err := engine.RenderProposal(ProposalDocument{
		Proposal:  p,
		Analysis:  &analysis,
		Narrative: "First paragraph.\n\nSecond <b>paragraph</b>.",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Office refresh</title>")
	assert.Contains(t, html, "Client: ACME")
	assert.Contains(t, html, "Widget &lt;Deluxe&gt;")
	assert.Contains(t, html, "20.00 USD")
	assert.Contains(t, html, "15.00 USD")
	assert.Contains(t, html, "35.00 USD")
	assert.Contains(t, html, "1,500.00 USD")
	assert.Contains(t, html, "300.00 USD (20.00%)")
	assert.Contains(t, html, "<p>First paragraph.</p>")
	assert.Contains(t, html, "Second &lt;b&gt;paragraph&lt;/b&gt;.")
	assert.NotContains(t, html, "Discount</td>")
}

func TestTemplateEngine_RenderProposal_Minimal(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	html, err := engine.RenderProposal(ProposalDocument{Proposal: sampleProposal(t)})
	require.NoError(t, err)
	assert.NotContains(t, html, "Cost comparison")
	assert.NotContains(t, html, `class="narrative"`)

	_, err = engine.RenderProposal(ProposalDocument{})
	require.Error(t, err)
}

func TestProposalDocument_Paragraphs(t *testing.T) {
	doc := ProposalDocument{Narrative: "  one\r\n\r\ntwo\n\n\n\n  three  "}
	assert.Equal(t, []string{"one", "two", "three"}, doc.Paragraphs())
	assert.Empty(t, ProposalDocument{}.Paragraphs())
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "1,234,567.50 USD", formatMoney(valueobject.MustMoney("1234567.5")))
	assert.Equal(t, "-1,000.00", groupThousands("-1000.00"))
	assert.Equal(t, "999", groupThousands("999"))
	assert.Equal(t, "20.00%", formatPercent(decimal.RequireFromString("0.2")))
	assert.Equal(t, "12.50%", formatPercent(mustRate(t, "0.125")))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "2026-03-01", formatDate(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Blue Widget", titleCase("blue widget"))
}

func mustRate(t *testing.T, s string) valueobject.Rate {
	t.Helper()
	r, err := valueobject.NewRateFromString(s)
	require.NoError(t, err)
	return r
}
