package xlsx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/library"
)

func TestEstimateSheet(t *testing.T) {
	doc, err := estimate.NewDocument(estimate.Estimate{
		Number: "7", Date: "2024-03-09", Discount: 10, DiscountType: estimate.DiscountPercent, Tax: 20,
		Items: []estimate.Item{
			{Name: "Штукатурка", Quantity: 2, Price: 100, Unit: "м²", Type: estimate.ItemWork},
			{Name: "Грунт", Quantity: 1, Price: 50, Type: estimate.ItemMaterial},
		},
	})
	require.NoError(t, err)

	data, err := Estimate(doc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(estimateSheet)
	require.NoError(t, err)
	assert.Equal(t, "Смета № 7 от 09.03.2024", rows[0][0])
	assert.Equal(t, "Не указан", rows[1][1])
	assert.Equal(t, []string{"1", "Штукатурка", "Работа", "2", "м²", "100", "200"}, rows[4])
	assert.Equal(t, "шт.", rows[5][4])

	last := rows[len(rows)-1]
	assert.Equal(t, "Итого", last[1])
	assert.Equal(t, "270", last[6])
}

func TestEstimateRejectsEmpty(t *testing.T) {
	_, err := Estimate(estimate.Document{})
	assert.ErrorIs(t, err, estimate.ErrNoValidItems)
}

func TestLibraryRoundTrip(t *testing.T) {
	in := []library.Item{
		{Name: "Покраска", Price: 200.5, Unit: "м²"},
		{Name: "Демонтаж", Price: 1500},
	}
	data, err := Library(in)
	require.NoError(t, err)

	out, err := ReadLibrary(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, r := range rows {
		require.NoError(t, setRow(f, sheet, i+1, r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadLibraryRussianHeaders(t *testing.T) {
	data := workbook(t,
		[]interface{}{"Ед.изм.", "Наименование", "Цена"},
		[]interface{}{"шт.", "Установка розетки", "1 250,50"},
		[]interface{}{"", "", "10"},
		[]interface{}{"м", "Кабель", "по запросу"},
	)
	items, err := ReadLibrary(data)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, library.Item{Name: "Установка розетки", Price: 1250.5, Unit: "шт."}, items[0])
	assert.Empty(t, items[1].Name, "unparseable price marks the row for skipping")
}

func TestReadLibraryErrors(t *testing.T) {
	_, err := ReadLibrary([]byte("not a workbook"))
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = ReadLibrary(workbook(t, []interface{}{"name", "price"}))
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = ReadLibrary(workbook(t, []interface{}{"a", "b"}, []interface{}{"x", "1"}))
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Смета-7.xlsx", FileName("7"))
}
