package csvimport

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported upload format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// FormatOf selects a format from the file extension
func FormatOf(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(fileName))
}

// Decoder turns uploaded file bytes into a Table
type Decoder struct {
	delimiter rune
	sheet     string
	maxRows   int
	maxBytes  int64
}

// DecoderOption configures a Decoder
type DecoderOption func(*Decoder)

// WithCSVDelimiter overrides the delimiter for .csv/.txt files
func WithCSVDelimiter(d rune) DecoderOption {
	return func(dec *Decoder) {
		dec.delimiter = d
	}
}

// WithSheet selects a named workbook sheet instead of the first one
func WithSheet(name string) DecoderOption {
	return func(dec *Decoder) {
		dec.sheet = name
	}
}

// WithRowLimit rejects files with more data rows than n
func WithRowLimit(n int) DecoderOption {
	return func(dec *Decoder) {
		dec.maxRows = n
	}
}

// WithByteLimit rejects files larger than n bytes
func WithByteLimit(n int64) DecoderOption {
	return func(dec *Decoder) {
		dec.maxBytes = n
	}
}

// NewDecoder creates a Decoder
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{delimiter: ','}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode selects a decoder by the file extension and returns the cell matrix
func (d *Decoder) Decode(fileName string, content []byte) (*Table, error) {
	format, err := FormatOf(fileName)
	if err != nil {
		return nil, err
	}
	if d.maxBytes > 0 && int64(len(content)) > d.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(content))
	}

	switch format {
	case FormatXLSX:
		return NewXLSXReader(d.sheet, d.maxRows).ReadTable(content)
	default:
		delimiter := d.delimiter
		if format == FormatTSV {
			delimiter = '\t'
		}
		return DelimitedReader{Comma: delimiter, MaxRows: d.maxRows}.ReadTable(content)
	}
}

// Decode decodes content with default options
func Decode(fileName string, content []byte) (*Table, error) {
	return NewDecoder().Decode(fileName, content)
}
