package csvimport

import (
	"errors"
	"fmt"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
)

// Import error codes
const (
	ErrCodeImportInvalidFile       = "ERR_IMPORT_INVALID_FILE"
	ErrCodeImportEmptyFile         = "ERR_IMPORT_EMPTY_FILE"
	ErrCodeImportFileTooLarge      = "ERR_IMPORT_FILE_TOO_LARGE"
	ErrCodeImportInvalidEncoding   = "ERR_IMPORT_INVALID_ENCODING"
	ErrCodeImportUnsupportedFormat = "ERR_IMPORT_UNSUPPORTED_FORMAT"
	ErrCodeImportCSVParsing        = "ERR_IMPORT_CSV_PARSING"
	ErrCodeImportMissingHeader     = "ERR_IMPORT_MISSING_HEADER"
)

// Common import errors
var (
	// ErrEmptyFile is returned when the file is empty
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("file missing header row")

	// ErrFileTooLarge is returned when the file exceeds maximum size
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// ErrUnsupportedFormat is returned for extensions no decoder handles
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidWorkbook is returned when a spreadsheet cannot be opened
	ErrInvalidWorkbook = errors.New("invalid spreadsheet")
)

// RowError represents an error in a specific row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	}
}

// Code returns the import error code for err, or "" if err is not an import error
func Code(err error) string {
	var rowErr RowError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rowErr):
		return rowErr.Code
	case errors.Is(err, ErrEmptyFile):
		return ErrCodeImportEmptyFile
	case errors.Is(err, ErrInvalidEncoding):
		return ErrCodeImportInvalidEncoding
	case errors.Is(err, ErrMissingHeader):
		return ErrCodeImportMissingHeader
	case errors.Is(err, ErrFileTooLarge):
		return ErrCodeImportFileTooLarge
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrCodeImportUnsupportedFormat
	case errors.Is(err, ErrInvalidWorkbook), errors.Is(err, ErrSheetNotFound):
		return ErrCodeImportInvalidFile
	}
	return ""
}

// AsDomainError converts a decoding failure into an INVALID_INPUT domain error
// carrying the import code. Domain errors and unknown errors pass through.
func AsDomainError(err error) error {
	var de *shared.DomainError
	if err == nil || errors.As(err, &de) {
		return err
	}
	code := Code(err)
	if code == "" {
		return err
	}
	return shared.NewDomainError(shared.CodeInvalidInput, err.Error()).WithDetail("import_code", code)
}
