package estimate

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Calculation holds the derived totals of an item list.
type Calculation struct {
	Subtotal       float64 `json:"subtotal"`
	MaterialsTotal float64 `json:"materialsTotal"`
	WorkTotal      float64 `json:"workTotal"`
	DiscountAmount float64 `json:"discountAmount"`
	AfterDiscount  float64 `json:"afterDiscount"`
	TaxAmount      float64 `json:"taxAmount"`
	GrandTotal     float64 `json:"grandTotal"`
}

var hundred = decimal.NewFromInt(100)

// dec treats non-finite input as zero; decimal cannot represent it.
func dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Compute derives the totals over all items, valid or not. Nothing is clamped:
// a discount above the subtotal yields a negative total.
func Compute(items []Item, discount float64, discountType DiscountType, tax float64) Calculation {
	subtotal, materials, work := decimal.Zero, decimal.Zero, decimal.Zero
	for _, it := range items {
		line := dec(it.Quantity).Mul(dec(it.Price))
		subtotal = subtotal.Add(line)
		switch it.Type {
		case ItemMaterial:
			materials = materials.Add(line)
		case ItemWork:
			work = work.Add(line)
		}
	}

	var discountAmount decimal.Decimal
	if discountType == DiscountFixed {
		discountAmount = dec(discount)
	} else {
		discountAmount = subtotal.Mul(dec(discount)).Div(hundred)
	}
	afterDiscount := subtotal.Sub(discountAmount)
	taxAmount := afterDiscount.Mul(dec(tax)).Div(hundred)

	return Calculation{
		Subtotal:       toFloat(subtotal),
		MaterialsTotal: toFloat(materials),
		WorkTotal:      toFloat(work),
		DiscountAmount: toFloat(discountAmount),
		AfterDiscount:  toFloat(afterDiscount),
		TaxAmount:      toFloat(taxAmount),
		GrandTotal:     toFloat(afterDiscount.Add(taxAmount)),
	}
}

// IsValid reports whether the item goes into exports: a non-blank name,
// positive quantity and non-negative price.
func IsValid(it Item) bool {
	return strings.TrimSpace(it.Name) != "" && it.Quantity > 0 && it.Price >= 0
}

func ValidItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if IsValid(it) {
			out = append(out, it)
		}
	}
	return out
}

// ShoppingLine is one row of the materials purchase list.
type ShoppingLine struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// ShoppingList sums valid material items by name and unit, keeping first-seen order.
func ShoppingList(items []Item) []ShoppingLine {
	out := []ShoppingLine{}
	index := map[string]int{}
	for _, it := range ValidItems(items) {
		if it.Type != ItemMaterial {
			continue
		}
		name := strings.TrimSpace(it.Name)
		key := strings.ToLower(name) + "\x00" + it.Unit
		if i, ok := index[key]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[key] = len(out)
		out = append(out, ShoppingLine{Name: name, Unit: it.Unit, Quantity: it.Quantity})
	}
	return out
}
