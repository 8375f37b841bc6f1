package estimate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareText(t *testing.T) {
	doc, err := NewDocument(Estimate{
		Number: "12",
		Date:   "2024-05-09",
		Items: []Item{
			{Name: "Укладка плитки", Quantity: 2, Price: 100, Unit: "м2", Type: ItemWork},
			{Name: "Клей", Quantity: 1, Price: 50, Type: ItemMaterial},
			{Name: " ", Quantity: 1, Price: 999, Type: ItemWork},
		},
		Discount:     10,
		DiscountType: DiscountPercent,
		Tax:          20,
	})
	require.NoError(t, err)

	lines := strings.Split(ShareText(doc), "\n")
	require.Equal(t, []string{
		"*Смета № 12 от 09.05.2024*",
		"Клиент: Не указан",
		"",
		"1. Укладка плитки (2 м2) - " + FormatMoney(200),
		"2. Клей (1 шт.) - " + FormatMoney(50),
		"",
		"*Подытог:* " + FormatMoney(1249),
		"*Скидка:* -" + FormatMoney(124.9),
		"*Налог (20%):* +" + FormatMoney(224.82),
		"*Итого:* " + FormatMoney(1348.92),
	}, lines)
}

func TestShareTextOmitsZeroModifiers(t *testing.T) {
	doc, err := NewDocument(Estimate{
		Number:     "1",
		Date:       "2024-01-02",
		ClientInfo: "Сидоров",
		Items:      []Item{{Name: "Демонтаж", Quantity: 1, Price: 1000, Type: ItemWork}},
	})
	require.NoError(t, err)

	text := ShareText(doc)
	assert.Contains(t, text, "Клиент: Сидоров")
	assert.NotContains(t, text, "Скидка")
	assert.NotContains(t, text, "Налог")
	assert.True(t, strings.HasSuffix(text, "*Итого:* "+FormatMoney(1000)))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "09.05.2024", FormatDate("2024-05-09"))
	assert.Equal(t, "вчера", FormatDate("вчера"))
	assert.Equal(t, "1.5", FormatQuantity(1.5))
	assert.Equal(t, "шт.", UnitOrDefault(" "))
	assert.Contains(t, FormatMoney(250), "250")
	assert.Contains(t, FormatMoney(250), "₽")
	assert.Equal(t, "10%", Document{Discount: 10, DiscountType: DiscountPercent}.DiscountLabel())
}
