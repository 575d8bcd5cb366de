package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// workbook builds an in-memory xlsx with rows written from A1 onward
func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for r, cells := range rows {
		for c, v := range cells {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXReader_ReadTable(t *testing.T) {
	content := workbook(t, "Sheet1", [][]any{
		{nil},
		{"SKU", "Name", "Unit Price", "Notes"},
		{"SKU1", "Widget", 10.5},
		{},
		{"SKU2", "Gadget", "-5", "note", "stray"},
	})

	table, err := NewXLSXReader("", 0).ReadTable(content)
	require.NoError(t, err)

	assert.Equal(t, []string{"SKU", "Name", "Unit Price", "Notes"}, table.Header)
	assert.Equal(t, 2, table.HeaderRow)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []int{3, 4, 5}, table.RowNumbers)

	assert.Equal(t, []string{"SKU1", "Widget", "10.5", ""}, table.Rows[0])
	assert.Equal(t, []string{"", "", "", ""}, table.Rows[1])
	assert.Equal(t, []string{"SKU2", "Gadget", "-5", "note", "stray"}, table.Rows[2])
}

func TestXLSXReader_NamedSheet(t *testing.T) {
	content := workbook(t, "Catalog", [][]any{{"id", "price"}, {"A", "1"}})

	table, err := NewXLSXReader("Catalog", 0).ReadTable(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "price"}, table.Header)

	_, err = NewXLSXReader("Missing", 0).ReadTable(content)
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestXLSXReader_Errors(t *testing.T) {
	t.Run("empty content", func(t *testing.T) {
		_, err := NewXLSXReader("", 0).ReadTable(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := NewXLSXReader("", 0).ReadTable([]byte("sku,price\nA,1"))
		assert.ErrorIs(t, err, ErrInvalidWorkbook)
	})

	t.Run("blank sheet", func(t *testing.T) {
		_, err := NewXLSXReader("", 0).ReadTable(workbook(t, "Sheet1", nil))
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("row limit", func(t *testing.T) {
		content := workbook(t, "Sheet1", [][]any{{"id"}, {"A"}, {"B"}})
		_, err := NewXLSXReader("", 1).ReadTable(content)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})
}
