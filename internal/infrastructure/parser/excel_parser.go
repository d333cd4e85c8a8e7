package parser

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

// Header qidiriladigan qatorlar soni (1C eksportida sarlavha qatorlari bo'ladi)
const headerScanRows = 10

type field int

const (
	fieldArticle field = iota
	fieldName
	fieldCode
	fieldWarehouse
	fieldQuantity
	fieldPrice
	fieldCurrency
	fieldPriceDate
	fieldPeriod
)

type excelParser struct{}

// NewExcelParser yangi Excel parser yaratish
func NewExcelParser() repository.TabularDecoder {
	return &excelParser{}
}

// DecodeFile Excel fayldan qatorlarni o'qish
func (e *excelParser) DecodeFile(ctx context.Context, filePath string) ([]entity.ProductRecord, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	return e.parseExcelFile(ctx, f)
}

// DecodeBytes byte array dan o'qish
func (e *excelParser) DecodeBytes(ctx context.Context, data []byte, filename string) ([]entity.ProductRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel %s: %w", filename, err)
	}
	defer f.Close()

	return e.parseExcelFile(ctx, f)
}

func (e *excelParser) parseExcelFile(ctx context.Context, f *excelize.File) ([]entity.ProductRecord, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	sheetName := sheets[0]
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	// Raqamlar formatlanmagan holda kerak (narx, qoldiq)
	rawRows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get raw rows: %w", err)
	}

	headerRow, columns := findHeader(rows)
	if headerRow < 0 {
		return nil, repository.ErrNoArticleColumn
	}
	log.Printf("🗺️ Header row %d, columns: %v", headerRow, columns)

	var records []entity.ProductRecord
	missing := 0

	for i := headerRow + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := rows[i]
		if len(row) == 0 || isEmptyRow(row) {
			continue
		}

		var raw []string
		if i < len(rawRows) {
			raw = rawRows[i]
		}

		rec := entity.ProductRecord{
			Article:   cell(row, columns, fieldArticle),
			Name:      cell(row, columns, fieldName),
			Code:      cell(row, columns, fieldCode),
			Warehouse: cell(row, columns, fieldWarehouse),
			Currency:  cell(row, columns, fieldCurrency),
			Quantity:  parseNumber(cell(raw, columns, fieldQuantity)),
			Price:     parseNumber(cell(raw, columns, fieldPrice)),
			PriceDate: normalizeDate(cell(row, columns, fieldPriceDate), cell(raw, columns, fieldPriceDate)),
			Period:    normalizeDate(cell(row, columns, fieldPeriod), cell(raw, columns, fieldPeriod)),
		}

		// artikulsiz qator o'tkazib yuborilmaydi, Replace uni rad etadi
		if rec.Article == "" {
			missing++
		}

		records = append(records, rec)
	}

	if missing > 0 {
		log.Printf("⚠️ %d rows without article", missing)
	}
	log.Printf("📦 Total records parsed: %d", len(records))

	return records, nil
}

// findHeader artikul ustuni bor birinchi qatorni topish
func findHeader(rows [][]string) (int, map[field]int) {
	limit := headerScanRows
	if limit > len(rows) {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		columns := mapColumns(rows[i])
		if _, ok := columns[fieldArticle]; ok {
			return i, columns
		}
	}
	return -1, nil
}

// mapColumns header qatoridan column mapping yaratish
func mapColumns(header []string) map[field]int {
	columns := make(map[field]int)

	set := func(f field, idx int) {
		if _, exists := columns[f]; !exists {
			columns[f] = idx
		}
	}

	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if name == "" {
			continue
		}

		// Tartib muhim: "номенклатура.код" ham "номенклатура" ni o'z ichiga oladi
		switch {
		case contains(name, "артикул", "article", "sku", "part number"):
			set(fieldArticle, i)
		case contains(name, ".код", "код", "code"):
			set(fieldCode, i)
		case contains(name, "дата установки цены", "дата цены", "price date"):
			set(fieldPriceDate, i)
		case contains(name, "склад", "warehouse"):
			set(fieldWarehouse, i)
		case contains(name, "номенклатура", "наименование", "name", "товар"):
			set(fieldName, i)
		case contains(name, "остаток", "количество", "quantity", "qty", "stock"):
			set(fieldQuantity, i)
		case contains(name, "валюта", "currency"):
			set(fieldCurrency, i)
		case contains(name, "цена", "price"):
			set(fieldPrice, i)
		case contains(name, "период", "period"):
			set(fieldPeriod, i)
		}
	}

	return columns
}

func cell(row []string, columns map[field]int, f field) string {
	idx, ok := columns[f]
	if !ok || idx >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[idx])
	if isNullLike(v) {
		return ""
	}
	return v
}

// isEmptyRow qator bo'sh yoki yo'qligini tekshirish
func isEmptyRow(row []string) bool {
	for _, c := range row {
		if v := strings.TrimSpace(c); v != "" && !isNullLike(v) {
			return false
		}
	}
	return true
}

func isNullLike(s string) bool {
	switch strings.ToLower(s) {
	case "nan", "none", "null", "#n/a":
		return true
	}
	return false
}

// contains tekshirish uchun helper
func contains(str string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(str, keyword) {
			return true
		}
	}
	return false
}

// parseNumber son katakchasini o'qish, bo'sh yoki noto'g'ri bo'lsa nil
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// 1954 yildan oldingi seriya raqamlari sana emas, oddiy son deb hisoblanadi
const minDateSerial = 20000

var dateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2.1.2006 15:04:05",
	"2.1.2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01-02-06",
	"1/2/06 15:04",
	"1/2/06",
	"01/02/2006",
}

// normalizeDate sanani "2006-01-02" ko'rinishiga keltirish (saralash uchun).
// Tanib bo'lmasa formatlangan qiymat qaytadi.
func normalizeDate(formatted, raw string) string {
	if formatted == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, formatted); err == nil {
			return t.Format("2006-01-02")
		}
	}

	// Excel seriya raqami (45413 -> 2024-05-01)
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > minDateSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format("2006-01-02")
		}
	}

	return formatted
}
