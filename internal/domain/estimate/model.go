package estimate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type ItemType string

const (
	ItemMaterial ItemType = "material"
	ItemWork     ItemType = "work"
)

func (t ItemType) Label() string {
	if t == ItemMaterial {
		return "Материал"
	}
	return "Работа"
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses in display order.
var Statuses = []Status{StatusDraft, StatusSent, StatusApproved, StatusCompleted, StatusCancelled}

var statusLabels = map[Status]string{
	StatusDraft:     "Черновик",
	StatusSent:      "Отправлена",
	StatusApproved:  "Одобрена",
	StatusCompleted: "Завершена",
	StatusCancelled: "Отменена",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// ItemID accepts the fractional ids older clients produced for batch inserts
// (timestamp plus a random fraction) and truncates them.
type ItemID int64

func (id *ItemID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("estimate: item id %s: %w", b, err)
	}
	*id = ItemID(f)
	return nil
}

// amount reads values older clients stored either as JSON numbers or as the
// raw text of an input field ("3", "1,5", ""). Text that is not a number reads as 0.
type amount float64

func (n *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("estimate: amount %s: %w", b, err)
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			f = 0
		}
		*n = amount(f)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("estimate: amount %s: %w", b, err)
	}
	*n = amount(f)
	return nil
}

type Item struct {
	ID       ItemID   `json:"id"`
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Price    float64  `json:"price"`
	Unit     string   `json:"unit"`
	Image    *string  `json:"image"` // data URL
	Type     ItemType `json:"type"`
}

func (it Item) Sum() float64 { return it.Quantity * it.Price }

func (it *Item) UnmarshalJSON(b []byte) error {
	type plain Item
	aux := struct {
		*plain
		Quantity amount `json:"quantity"`
		Price    amount `json:"price"`
	}{plain: (*plain)(it), Quantity: amount(it.Quantity), Price: amount(it.Price)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	it.Quantity, it.Price = float64(aux.Quantity), float64(aux.Price)
	return nil
}

type Estimate struct {
	ID           int64        `json:"id"`
	Items        []Item       `json:"items"`
	ClientInfo   string       `json:"clientInfo"`
	Number       string       `json:"number"`
	Date         string       `json:"date"`
	Status       Status       `json:"status"`
	Discount     float64      `json:"discount"`
	DiscountType DiscountType `json:"discountType"`
	Tax          float64      `json:"tax"`
	ProjectID    *int64       `json:"projectId"`
	LastModified int64        `json:"lastModified"`
}

func (e *Estimate) UnmarshalJSON(b []byte) error {
	type plain Estimate
	aux := struct {
		*plain
		Discount amount `json:"discount"`
		Tax      amount `json:"tax"`
	}{plain: (*plain)(e), Discount: amount(e.Discount), Tax: amount(e.Tax)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Discount, e.Tax = float64(aux.Discount), float64(aux.Tax)
	return nil
}

// Calculation of the estimate as stored.
func (e Estimate) Calculation() Calculation {
	return Compute(e.Items, e.Discount, e.DiscountType, e.Tax)
}

// Collection is the estimatesData document.
type Collection struct {
	Estimates        []Estimate `json:"estimates"`
	ActiveEstimateID *int64     `json:"activeEstimateId"`
}

func (c Collection) Find(id int64) (Estimate, bool) {
	for _, e := range c.Estimates {
		if e.ID == id {
			return e, true
		}
	}
	return Estimate{}, false
}

// Active returns the estimate the active id points at, if any.
func (c Collection) Active() (Estimate, bool) {
	if c.ActiveEstimateID == nil {
		return Estimate{}, false
	}
	return c.Find(*c.ActiveEstimateID)
}

func (c Collection) ForProject(projectID int64) []Estimate {
	out := []Estimate{}
	for _, e := range c.Estimates {
		if e.ProjectID != nil && *e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out
}

// Template is a reusable set of items and modifiers; lastModified identifies it.
type Template struct {
	Items        []Item       `json:"items"`
	Discount     float64      `json:"discount"`
	DiscountType DiscountType `json:"discountType"`
	Tax          float64      `json:"tax"`
	LastModified int64        `json:"lastModified"`
}

func (t *Template) UnmarshalJSON(b []byte) error {
	type plain Template
	aux := struct {
		*plain
		Discount amount `json:"discount"`
		Tax      amount `json:"tax"`
	}{plain: (*plain)(t), Discount: amount(t.Discount), Tax: amount(t.Tax)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.Discount, t.Tax = float64(aux.Discount), float64(aux.Tax)
	return nil
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		if it.Image != nil {
			img := *it.Image
			it.Image = &img
		}
		out[i] = it
	}
	return out
}

func sameProject(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

var (
	_ json.Unmarshaler = (*ItemID)(nil)
	_ json.Unmarshaler = (*amount)(nil)
	_ json.Unmarshaler = (*Item)(nil)
	_ json.Unmarshaler = (*Estimate)(nil)
	_ json.Unmarshaler = (*Template)(nil)
)
