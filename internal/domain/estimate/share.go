package estimate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Document is what every export adapter consumes: only valid items, with
// totals computed over the whole estimate.
type Document struct {
	Number       string
	Date         string
	ClientInfo   string
	Items        []Item
	Calculation  Calculation
	Discount     float64
	DiscountType DiscountType
	Tax          float64
}

// NewDocument fails with ErrNoValidItems when nothing can be exported.
func NewDocument(e Estimate) (Document, error) {
	valid := ValidItems(e.Items)
	if len(valid) == 0 {
		return Document{}, ErrNoValidItems
	}
	return Document{
		Number:       e.Number,
		Date:         e.Date,
		ClientInfo:   e.ClientInfo,
		Items:        valid,
		Calculation:  e.Calculation(),
		Discount:     e.Discount,
		DiscountType: e.DiscountType,
		Tax:          e.Tax,
	}, nil
}

// FormatMoney renders a ruble amount the ru-RU way, without forced kopecks.
func FormatMoney(v float64) string {
	p := message.NewPrinter(language.Russian)
	return p.Sprintf("%v ₽", number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatDate turns YYYY-MM-DD into DD.MM.YYYY; other input is returned as is.
func FormatDate(d string) string {
	t, err := time.Parse(time.DateOnly, d)
	if err != nil {
		return d
	}
	return t.Format("02.01.2006")
}

func FormatQuantity(q float64) string { return strconv.FormatFloat(q, 'f', -1, 64) }

func UnitOrDefault(u string) string {
	if strings.TrimSpace(u) == "" {
		return "шт."
	}
	return u
}

// DiscountLabel is "10%" or a money amount, depending on the discount type.
func (d Document) DiscountLabel() string {
	if d.DiscountType == DiscountFixed {
		return FormatMoney(d.Discount)
	}
	return FormatQuantity(d.Discount) + "%"
}

// ShareText renders the estimate as the Markdown message sent to chats.
func ShareText(d Document) string {
	var sb strings.Builder
	client := d.ClientInfo
	if strings.TrimSpace(client) == "" {
		client = "Не указан"
	}
	fmt.Fprintf(&sb, "*Смета № %s от %s*\nКлиент: %s\n\n", d.Number, FormatDate(d.Date), client)
	for i, it := range d.Items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s (%s %s) - %s", i+1, it.Name, FormatQuantity(it.Quantity), UnitOrDefault(it.Unit), FormatMoney(it.Sum()))
	}
	fmt.Fprintf(&sb, "\n\n*Подытог:* %s", FormatMoney(d.Calculation.Subtotal))
	if d.Calculation.DiscountAmount > 0 {
		fmt.Fprintf(&sb, "\n*Скидка:* -%s", FormatMoney(d.Calculation.DiscountAmount))
	}
	if d.Calculation.TaxAmount > 0 {
		fmt.Fprintf(&sb, "\n*Налог (%s%%):* +%s", FormatQuantity(d.Tax), FormatMoney(d.Calculation.TaxAmount))
	}
	fmt.Fprintf(&sb, "\n*Итого:* %s", FormatMoney(d.Calculation.GrandTotal))
	return sb.String()
}
