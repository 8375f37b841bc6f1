// Package library is the contractor's price list of reusable items.
package library

import "github.com/Spok95/smeta-bot/internal/domain/estimate"

type Item struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit"`
}

// ToItems turns picks into estimate drafts: quantity 1, work type.
// Ids are assigned by the session when the drafts are added.
func ToItems(picks []Item) []estimate.Item {
	out := make([]estimate.Item, 0, len(picks))
	for _, p := range picks {
		out = append(out, estimate.Item{
			Name:     p.Name,
			Quantity: 1,
			Price:    p.Price,
			Unit:     p.Unit,
			Type:     estimate.ItemWork,
		})
	}
	return out
}

// ImportResult counts what Import did with the incoming rows.
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}
