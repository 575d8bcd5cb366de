package csvimport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowError(t *testing.T) {
	t.Run("Error with column", func(t *testing.T) {
		err := NewRowError(5, "price", ErrCodeImportCSVParsing, "bad quote")
		assert.Equal(t, "row 5, column 'price': bad quote", err.Error())
	})

	t.Run("Error without column", func(t *testing.T) {
		err := NewRowError(10, "", ErrCodeImportCSVParsing, "malformed row")
		assert.Equal(t, "row 10: malformed row", err.Error())
	})
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{nil, ""},
		{ErrEmptyFile, ErrCodeImportEmptyFile},
		{fmt.Errorf("wrapped: %w", ErrInvalidEncoding), ErrCodeImportInvalidEncoding},
		{ErrMissingHeader, ErrCodeImportMissingHeader},
		{ErrFileTooLarge, ErrCodeImportFileTooLarge},
		{ErrUnsupportedFormat, ErrCodeImportUnsupportedFormat},
		{ErrSheetNotFound, ErrCodeImportInvalidFile},
		{NewRowError(2, "", ErrCodeImportCSVParsing, "x"), ErrCodeImportCSVParsing},
		{errors.New("other"), ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, Code(tt.err), "%v", tt.err)
	}
}

func TestAsDomainError(t *testing.T) {
	err := AsDomainError(ErrEmptyFile)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, ErrCodeImportEmptyFile, de.Details["import_code"])

	schema := shared.NewSchemaError([]string{"name"})
	assert.Same(t, schema, AsDomainError(schema))

	other := errors.New("disk on fire")
	assert.Same(t, other, AsDomainError(other))
	assert.NoError(t, AsDomainError(nil))
}
