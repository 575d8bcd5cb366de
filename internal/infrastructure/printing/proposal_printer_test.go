package printing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RenderResult), args.Error(1)
}

func (m *mockRenderer) Close() error {
	return m.Called().Error(0)
}

func TestProposalPrinter_PrintProposal(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	p := sampleProposal(t)

	t.Run("renders the proposal HTML to PDF", func(t *testing.T) {
		renderer := new(mockRenderer)
		renderer.On("Render", mock.Anything, mock.MatchedBy(func(req *RenderRequest) bool {
			return req.PaperSize == PaperSizeA4 &&
				req.Title == "ACME" &&
				req.FooterHTML != "" &&
				assert.Contains(t, req.HTML, "35.00 USD")
		})).Return(&RenderResult{PDFData: []byte("%PDF"), PageCount: 1}, nil)

		printer := NewProposalPrinter(engine, renderer, nil)
		pdf, err := printer.PrintProposal(context.Background(), p, nil, "")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF"), pdf)
		renderer.AssertExpectations(t)
	})

	t.Run("renderer errors propagate", func(t *testing.T) {
		renderer := new(mockRenderer)
		renderErr := NewRenderError(ErrCodeRenderTimeout, "timed out", nil)
		renderer.On("Render", mock.Anything, mock.Anything).Return(nil, renderErr)

		printer := NewProposalPrinter(engine, renderer, nil)
		_, err := printer.PrintProposal(context.Background(), p, nil, "")
		assert.True(t, errors.Is(err, renderErr))
	})

	t.Run("close releases the renderer", func(t *testing.T) {
		renderer := new(mockRenderer)
		renderer.On("Close").Return(nil)
		require.NoError(t, NewProposalPrinter(engine, renderer, nil).Close())
		renderer.AssertExpectations(t)
	})
}
