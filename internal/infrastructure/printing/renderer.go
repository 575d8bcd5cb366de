package printing

import (
	"context"
	"strings"
	"time"
)

// PaperSize is the output page format
type PaperSize string

const (
	PaperSizeA4     PaperSize = "A4"
	PaperSizeLetter PaperSize = "LETTER"
)

// IsValid reports whether the paper size is known
func (p PaperSize) IsValid() bool {
	return p == PaperSizeA4 || p == PaperSizeLetter
}

// Dimensions returns width and height in millimeters
func (p PaperSize) Dimensions() (width, height float64) {
	if p == PaperSizeLetter {
		return 215.9, 279.4
	}
	return 210, 297
}

// Orientation is portrait or landscape
type Orientation string

const (
	OrientationPortrait  Orientation = "PORTRAIT"
	OrientationLandscape Orientation = "LANDSCAPE"
)

// Margins are page margins in millimeters
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// DefaultMargins returns 15mm on every side
func DefaultMargins() Margins {
	return Margins{Top: 15, Right: 15, Bottom: 15, Left: 15}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML        string
	PaperSize   PaperSize
	Orientation Orientation
	Margins     Margins
	// Title becomes the PDF document title
	Title string
	// FooterHTML is repeated on every page (optional)
	FooterHTML string
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer converts HTML documents to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func validateRequest(req *RenderRequest) error {
	if req == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if !req.PaperSize.IsValid() {
		return NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(req.PaperSize), nil)
	}
	return nil
}
