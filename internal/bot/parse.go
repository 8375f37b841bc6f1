package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
)

var (
	errNotNumber = errors.New("не число")
	errItemName  = errors.New("не указано наименование")
)

// callbackData is "prefix:action:arg"; arg may itself contain colons.
type callbackData struct {
	Prefix string
	Action string
	Arg    string
}

func parseCallback(s string) callbackData {
	parts := strings.SplitN(s, ":", 3)
	var cd callbackData
	cd.Prefix = parts[0]
	if len(parts) > 1 {
		cd.Action = parts[1]
	}
	if len(parts) > 2 {
		cd.Arg = parts[2]
	}
	return cd
}

func (c callbackData) ID() (int64, bool) {
	id, err := strconv.ParseInt(c.Arg, 10, 64)
	return id, err == nil
}

func callback(prefix, action string, arg any) string {
	return fmt.Sprintf("%s:%s:%v", prefix, action, arg)
}

// parseNumber accepts "1 250,50", "1250.5", "300₽" and "20%".
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, suffix := range []string{"руб.", "руб", "р.", "р", "₽", "%"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}
	s = strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(s)
	if s == "" {
		return 0, errNotNumber
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotNumber
	}
	return v, nil
}

// parseDiscount: "10%" или "10" это процент, "500₽", "500 р" это сумма.
func parseDiscount(s string) (float64, estimate.DiscountType, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	kind := estimate.DiscountPercent
	if strings.HasSuffix(t, "₽") || strings.HasSuffix(t, "р") || strings.HasSuffix(t, "р.") ||
		strings.HasSuffix(t, "руб") || strings.HasSuffix(t, "руб.") {
		kind = estimate.DiscountFixed
	}
	v, err := parseNumber(t)
	if err != nil {
		return 0, "", err
	}
	return v, kind, nil
}

func parseItemType(s string) (estimate.ItemType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "м", "мат", "материал", "материалы", "material", "m":
		return estimate.ItemMaterial, true
	case "р", "раб", "работа", "работы", "work", "w":
		return estimate.ItemWork, true
	}
	return "", false
}

// parseItemLine reads one item:
//
//	Наименование
//	Наименование; кол-во; цена
//	Наименование; кол-во; ед.; цена
//	Наименование; кол-во; ед.; цена; м
//
// The last form marks a material.
func parseItemLine(line string) (estimate.Item, error) {
	fields := strings.Split(strings.ReplaceAll(line, "|", ";"), ";")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	it := estimate.Item{Quantity: 1, Type: estimate.ItemWork}
	if fields[0] == "" {
		return it, errItemName
	}
	it.Name = fields[0]

	var qty, unit, price, kind string
	switch len(fields) {
	case 1:
	case 2:
		qty = fields[1]
	case 3:
		qty, price = fields[1], fields[2]
	case 4:
		qty, unit, price = fields[1], fields[2], fields[3]
	default:
		qty, unit, price, kind = fields[1], fields[2], fields[3], fields[4]
	}
	var err error
	if qty != "" {
		if it.Quantity, err = parseNumber(qty); err != nil {
			return it, fmt.Errorf("количество %q: %w", qty, err)
		}
	}
	if price != "" {
		if it.Price, err = parseNumber(price); err != nil {
			return it, fmt.Errorf("цена %q: %w", price, err)
		}
	}
	it.Unit = unit
	if kind != "" {
		t, ok := parseItemType(kind)
		if !ok {
			return it, fmt.Errorf("тип %q: ожидается «м» (материал) или «р» (работа)", kind)
		}
		it.Type = t
	}
	return it, nil
}

// parseItemLines reads one item per non-empty line; bad lines are reported
// by their 1-based number.
func parseItemLines(text string) ([]estimate.Item, map[int]error) {
	var items []estimate.Item
	bad := map[int]error{}
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		it, err := parseItemLine(line)
		if err != nil {
			bad[i+1] = err
			continue
		}
		items = append(items, it)
	}
	return items, bad
}

// parseLibraryLine reads "Наименование; цена[; ед.]".
func parseLibraryLine(line string) (string, float64, string, error) {
	fields := strings.Split(line, ";")
	if len(fields) < 2 {
		return "", 0, "", errors.New("нужно «Наименование; цена; ед.»")
	}
	name := strings.TrimSpace(fields[0])
	price, err := parseNumber(fields[1])
	if err != nil {
		return "", 0, "", fmt.Errorf("цена: %w", err)
	}
	unit := ""
	if len(fields) > 2 {
		unit = strings.TrimSpace(fields[2])
	}
	return name, price, unit, nil
}
