package estimate

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeReferenceExample(t *testing.T) {
	items := []Item{
		{Name: "Укладка плитки", Quantity: 2, Price: 100, Type: ItemWork},
		{Name: "Клей", Quantity: 1, Price: 50, Type: ItemMaterial},
	}
	got := Compute(items, 10, DiscountPercent, 20)

	assert.Equal(t, Calculation{
		Subtotal:       250,
		MaterialsTotal: 50,
		WorkTotal:      200,
		DiscountAmount: 25,
		AfterDiscount:  225,
		TaxAmount:      45,
		GrandTotal:     270,
	}, got)
}

func TestComputeDiscountTypes(t *testing.T) {
	items := []Item{{Name: "a", Quantity: 4, Price: 25, Type: ItemWork}}

	tests := []struct {
		name     string
		discount float64
		dtype    DiscountType
		tax      float64
		want     float64
	}{
		{"percent", 10, DiscountPercent, 0, 90},
		{"fixed", 15, DiscountFixed, 0, 85},
		{"fixed with tax", 20, DiscountFixed, 10, 88},
		{"no clamp on oversized fixed discount", 150, DiscountFixed, 0, -50},
		{"negative discount raises total", -10, DiscountPercent, 0, 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(items, tt.discount, tt.dtype, tt.tax)
			assert.InDelta(t, tt.want, got.GrandTotal, 1e-9)
		})
	}
}

func TestComputeEmptyAndNonFinite(t *testing.T) {
	assert.Equal(t, Calculation{}, Compute(nil, 10, DiscountPercent, 20))

	items := []Item{
		{Name: "x", Quantity: 2, Price: 10, Type: ItemWork},
		{Name: "y", Quantity: math.Inf(1), Price: 10, Type: ItemWork},
	}
	got := Compute(items, math.NaN(), DiscountPercent, 0)
	assert.Equal(t, 20.0, got.Subtotal)
	assert.Equal(t, 20.0, got.GrandTotal)
}

func randomItems(r *rand.Rand) []Item {
	n := r.Intn(8)
	items := make([]Item, n)
	for i := range items {
		typ := ItemWork
		if r.Intn(2) == 0 {
			typ = ItemMaterial
		}
		items[i] = Item{
			Name:     "item",
			Quantity: float64(r.Intn(20)+1) / 2,
			Price:    float64(r.Intn(100000)) / 100,
			Type:     typ,
		}
	}
	return items
}

func TestComputeSubtotalSplitsByType(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		items := randomItems(r)
		var want float64
		for _, it := range items {
			want += it.Quantity * it.Price
		}
		got := Compute(items, 0, DiscountPercent, 0)
		require.InDelta(t, want, got.Subtotal, 1e-6)
		require.InDelta(t, got.Subtotal, got.MaterialsTotal+got.WorkTotal, 1e-6)
	}
}

func TestGrandTotalMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		items := randomItems(r)
		discount := float64(r.Intn(100))

		prev := Compute(items, discount, DiscountPercent, 0).GrandTotal
		for tax := 1.0; tax <= 30; tax++ {
			cur := Compute(items, discount, DiscountPercent, tax).GrandTotal
			require.GreaterOrEqual(t, cur, prev, "grand total must not fall as tax grows")
			prev = cur
		}

		tax := float64(r.Intn(30))
		prev = Compute(items, 0, DiscountPercent, tax).GrandTotal
		for d := 1.0; d <= 100; d++ {
			cur := Compute(items, d, DiscountPercent, tax).GrandTotal
			require.LessOrEqual(t, cur, prev, "grand total must not grow with discount")
			prev = cur
		}
	}
}

func TestValidItemsExcludedFromExportButCounted(t *testing.T) {
	items := []Item{
		{Name: "   ", Quantity: 1, Price: 500, Type: ItemWork},
		{Name: "Грунтовка", Quantity: 2, Price: 100, Type: ItemMaterial},
		{Name: "Без количества", Quantity: 0, Price: 100, Type: ItemWork},
		{Name: "Отрицательная цена", Quantity: 1, Price: -1, Type: ItemWork},
		{Name: "Бесплатно", Quantity: 1, Price: 0, Type: ItemWork},
	}

	valid := ValidItems(items)
	require.Len(t, valid, 2)
	assert.Equal(t, "Грунтовка", valid[0].Name)
	assert.Equal(t, "Бесплатно", valid[1].Name)

	assert.Equal(t, 699.0, Compute(items, 0, DiscountPercent, 0).Subtotal)
}

func TestShoppingList(t *testing.T) {
	items := []Item{
		{Name: "Клей", Quantity: 2, Price: 300, Unit: "меш.", Type: ItemMaterial},
		{Name: "Укладка", Quantity: 10, Price: 800, Unit: "м2", Type: ItemWork},
		{Name: "клей ", Quantity: 3, Price: 300, Unit: "меш.", Type: ItemMaterial},
		{Name: "Затирка", Quantity: 1, Price: 200, Unit: "кг", Type: ItemMaterial},
		{Name: "", Quantity: 1, Price: 200, Type: ItemMaterial},
	}
	assert.Equal(t, []ShoppingLine{
		{Name: "Клей", Unit: "меш.", Quantity: 5},
		{Name: "Затирка", Unit: "кг", Quantity: 1},
	}, ShoppingList(items))
}
