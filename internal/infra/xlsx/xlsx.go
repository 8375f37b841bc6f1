// Package xlsx exports estimates to Excel and reads price lists back with excelize.
package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/library"
)

var (
	ErrUnreadable = errors.New("xlsx: file is damaged or not .xlsx")
	ErrNoRows     = errors.New("xlsx: no data rows")
	ErrNoColumns  = errors.New("xlsx: name and price columns not found")
)

const estimateSheet = "Смета"

// FileName is the attachment name for an estimate number.
func FileName(number string) string {
	n := strings.TrimSpace(number)
	if n == "" {
		n = "б-н"
	}
	return fmt.Sprintf("Смета-%s.xlsx", strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(n))
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// Estimate renders the estimate sheet: header, item table, totals.
func Estimate(doc estimate.Document) ([]byte, error) {
	if len(doc.Items) == 0 {
		return nil, estimate.ErrNoValidItems
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), estimateSheet); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	sheet := estimateSheet

	client := doc.ClientInfo
	if strings.TrimSpace(client) == "" {
		client = "Не указан"
	}
	lines := [][]interface{}{
		{fmt.Sprintf("Смета № %s от %s", doc.Number, estimate.FormatDate(doc.Date))},
		{"Клиент / Объект:", client},
		{},
		{"№", "Наименование", "Тип", "Кол-во", "Ед.изм.", "Цена", "Сумма"},
	}
	for i, it := range doc.Items {
		lines = append(lines, []interface{}{
			i + 1, it.Name, it.Type.Label(), it.Quantity, estimate.UnitOrDefault(it.Unit), it.Price, it.Sum(),
		})
	}
	c := doc.Calculation
	lines = append(lines, []interface{}{}, []interface{}{"", "Подытог", "", "", "", "", c.Subtotal})
	if c.DiscountAmount > 0 {
		lines = append(lines, []interface{}{"", "Скидка (" + doc.DiscountLabel() + ")", "", "", "", "", -c.DiscountAmount})
	}
	if c.TaxAmount > 0 {
		lines = append(lines, []interface{}{"", "Налог (" + estimate.FormatQuantity(doc.Tax) + "%)", "", "", "", "", c.TaxAmount})
	}
	lines = append(lines, []interface{}{"", "Итого", "", "", "", "", c.GrandTotal})

	for i, l := range lines {
		if err := setRow(f, sheet, i+1, l); err != nil {
			return nil, fmt.Errorf("xlsx: row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A1", "A1", bold)
		_ = f.SetCellStyle(sheet, "A4", "G4", bold)
		last, _ := excelize.CoordinatesToCellName(7, len(lines))
		first, _ := excelize.CoordinatesToCellName(1, len(lines))
		_ = f.SetCellStyle(sheet, first, last, bold)
	}
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "C", "G", 12)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

var libraryHeader = []interface{}{"name", "price", "unit"}

// Library exports the price list in the layout ReadLibrary accepts.
func Library(items []library.Item) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	if err := setRow(f, sheet, 1, libraryHeader); err != nil {
		return nil, fmt.Errorf("xlsx: header: %w", err)
	}
	for i, it := range items {
		if err := setRow(f, sheet, i+2, []interface{}{it.Name, it.Price, it.Unit}); err != nil {
			return nil, fmt.Errorf("xlsx: row %d: %w", i+2, err)
		}
	}
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

// columnAliases maps header captions to fields; matching is case-insensitive.
var columnAliases = map[string]string{
	"name": "name", "наименование": "name", "название": "name", "позиция": "name",
	"price": "price", "цена": "price", "стоимость": "price",
	"unit": "unit", "ед.изм.": "unit", "ед. изм.": "unit", "ед.": "unit", "единица": "unit",
}

// parseNumber accepts "1 234,50" as well as "1234.5".
func parseNumber(s string) (float64, error) {
	s = strings.NewReplacer(" ", "", " ", "", "₽", "", ",", ".").Replace(strings.TrimSpace(s))
	return strconv.ParseFloat(s, 64)
}

// ReadLibrary reads the first sheet: a header row naming the columns, then
// one item per row. Rows with an unreadable price keep a zero price and an
// empty name, so the library import skips them.
func ReadLibrary(data []byte) ([]library.Item, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnreadable
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, ErrUnreadable
	}
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		if field, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	nameCol, okName := cols["name"]
	priceCol, okPrice := cols["price"]
	if !okName || !okPrice {
		return nil, ErrNoColumns
	}
	unitCol, okUnit := cols["unit"]

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var out []library.Item
	for _, row := range rows[1:] {
		name := cell(row, nameCol)
		if name == "" {
			continue
		}
		it := library.Item{Name: name}
		price, err := parseNumber(cell(row, priceCol))
		if err != nil {
			it.Name = ""
		} else {
			it.Price = price
		}
		if okUnit {
			it.Unit = cell(row, unitCol)
		}
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}
