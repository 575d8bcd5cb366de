package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		err    bool
	}{
		{"catalog.csv", FormatCSV, false},
		{"CATALOG.CSV", FormatCSV, false},
		{"export.txt", FormatCSV, false},
		{"export.tsv", FormatTSV, false},
		{"prices.xlsx", FormatXLSX, false},
		{"prices.xls", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FormatOf(tt.name)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, f)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		table, err := Decode("c.csv", []byte("sku,price\nSKU1,10.00\n"))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"SKU1", "10.00"}}, table.Rows)
	})

	t.Run("tsv", func(t *testing.T) {
		table, err := Decode("c.tsv", []byte("sku\tprice\nSKU1\t10.00\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"sku", "price"}, table.Header)
	})

	t.Run("semicolon csv", func(t *testing.T) {
		table, err := NewDecoder(WithCSVDelimiter(';')).Decode("c.csv", []byte("sku;price\nSKU1;10,00\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"SKU1", "10,00"}, table.Rows[0])
	})

	t.Run("xlsx", func(t *testing.T) {
		content := workbook(t, "Sheet1", [][]any{{"sku", "price"}, {"SKU1", "10.00"}})
		table, err := Decode("c.xlsx", content)
		require.NoError(t, err)
		assert.Equal(t, []string{"SKU1", "10.00"}, table.Rows[0])
	})

	t.Run("byte limit", func(t *testing.T) {
		_, err := NewDecoder(WithByteLimit(4)).Decode("c.csv", []byte("sku,price\n"))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Decode("c.pdf", []byte("%PDF"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}
