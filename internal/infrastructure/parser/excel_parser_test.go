package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

var stockHeader = []interface{}{
	"Период", "Артикул", "Номенклатура", "Номенклатура.Код", "Склад",
	"Остаток", "Цена", "Валюта", "Дата установки цены",
}

func buildWorkbook(t *testing.T, rows ...[]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &row))
	}
	return f
}

func workbookBytes(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := buildWorkbook(t, rows...)
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeBytes_StockReport(t *testing.T) {
	data := workbookBytes(t,
		[]interface{}{"Остатки и цены для бота"},
		stockHeader,
		[]interface{}{"01.05.2024 0:00:00", 805015, "Коронка алмазная", "ЦБ-0001", "Склад Алматы", 3, 1250.5, "KZT", "01.05.2024"},
		[]interface{}{"01.05.2024", "3222 3390 07", "Буровая штанга", "ЦБ-0002", "Склад Караганда", 10, "", "KZT", ""},
	)

	records, err := NewExcelParser().DecodeBytes(context.Background(), data, "для бота.xlsx")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "805015", first.Article)
	assert.Equal(t, "Коронка алмазная", first.Name)
	assert.Equal(t, "ЦБ-0001", first.Code)
	assert.Equal(t, "Склад Алматы", first.Warehouse)
	assert.Equal(t, "KZT", first.Currency)
	assert.Equal(t, "2024-05-01", first.Period)
	assert.Equal(t, "2024-05-01", first.PriceDate)
	require.NotNil(t, first.Quantity)
	assert.InDelta(t, 3, *first.Quantity, 0.0001)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 1250.5, *first.Price, 0.0001)

	second := records[1]
	assert.Equal(t, "3222 3390 07", second.Article)
	assert.Nil(t, second.Price)
	assert.Empty(t, second.PriceDate)
}

func TestDecodeBytes_RowWithoutArticleIsKept(t *testing.T) {
	data := workbookBytes(t,
		stockHeader,
		[]interface{}{"01.05.2024", 805015, "Коронка", "ЦБ-0001", "Склад", 1, 100, "KZT", ""},
		[]interface{}{"01.05.2024", "", "Без артикула", "ЦБ-0003", "Склад", 1, 100, "KZT", ""},
		[]interface{}{"nan", "nan", "", "NaN"},
	)

	records, err := NewExcelParser().DecodeBytes(context.Background(), data, "для бота.xlsx")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "805015", records[0].Article)
	assert.Empty(t, records[1].Article)
	assert.Equal(t, "Без артикула", records[1].Name)
}

func TestDecodeBytes_NoArticleColumn(t *testing.T) {
	data := workbookBytes(t,
		[]interface{}{"Номенклатура", "Цена"},
		[]interface{}{"Коронка", 100},
	)

	_, err := NewExcelParser().DecodeBytes(context.Background(), data, "bad.xlsx")
	assert.ErrorIs(t, err, repository.ErrNoArticleColumn)
}

func TestDecodeBytes_HeaderOnly(t *testing.T) {
	data := workbookBytes(t, stockHeader)

	records, err := NewExcelParser().DecodeBytes(context.Background(), data, "empty.xlsx")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeBytes_NotExcel(t *testing.T) {
	_, err := NewExcelParser().DecodeBytes(context.Background(), []byte("not a spreadsheet"), "x.xlsx")
	assert.Error(t, err)
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.xlsx")
	f := buildWorkbook(t, stockHeader, []interface{}{"", "805017", "Долото", "ЦБ-9", "Склад", 2, 99.9, "RUB", ""})
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := NewExcelParser().DecodeFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "805017", records[0].Article)

	_, err = NewExcelParser().DecodeFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestMapColumns(t *testing.T) {
	columns := mapColumns([]string{"Номенклатура.Код", "Номенклатура", "Артикул", "Дата установки цены", "Цена", "Валюта"})

	assert.Equal(t, 0, columns[fieldCode])
	assert.Equal(t, 1, columns[fieldName])
	assert.Equal(t, 2, columns[fieldArticle])
	assert.Equal(t, 3, columns[fieldPriceDate])
	assert.Equal(t, 4, columns[fieldPrice])
	assert.Equal(t, 5, columns[fieldCurrency])
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{in: "1250.5", want: ptr(1250.5)},
		{in: "1 250,50", want: ptr(1250.5)},
		{in: "1,250.50", want: ptr(1250.5)},
		{in: "3", want: ptr(3)},
		{in: "", want: nil},
		{in: "нет", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseNumber(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.0001)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2024-05-01", normalizeDate("01.05.2024", ""))
	assert.Equal(t, "2024-05-01", normalizeDate("01.05.2024 0:00:00", ""))
	assert.Equal(t, "2024-05-01", normalizeDate("2024-05-01", ""))
	assert.Equal(t, "2024-05-01", normalizeDate("45413", "45413"))
	assert.Equal(t, "Май 2024", normalizeDate("Май 2024", "Май 2024"))
	assert.Equal(t, "", normalizeDate("", ""))
}

func ptr(v float64) *float64 { return &v }
