package bot

import (
	"fmt"
	"strings"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/finance"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/library"
	"github.com/Spok95/smeta-bot/internal/domain/notes"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
	"github.com/Spok95/smeta-bot/internal/domain/scratchpad"
	"github.com/Spok95/smeta-bot/internal/domain/stages"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
)

const itemHelp = "Отправьте позиции, по одной в строке:\n" +
	"Наименование; кол-во; ед.; цена\n" +
	"Для материала добавьте «; м» в конце.\n" +
	"Например: Покраска стен; 40; м²; 250"

func money(v float64) string { return estimate.FormatMoney(v) }

// formText renders the estimate being edited. Items that will not get into
// exports are marked.
func formText(f estimate.Form, calc estimate.Calculation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Смета № %s от %s · %s\n", f.Number, estimate.FormatDate(f.Date), f.Status.Label())
	client := strings.TrimSpace(f.ClientInfo)
	if client == "" {
		client = "не указан"
	}
	fmt.Fprintf(&sb, "Клиент / объект: %s\n\n", client)

	if len(f.Items) == 0 {
		sb.WriteString("Позиций пока нет.\n")
	}
	for i, it := range f.Items {
		mark := ""
		if !estimate.IsValid(it) {
			mark = "⚠️ "
		}
		name := it.Name
		if strings.TrimSpace(name) == "" {
			name = "(без названия)"
		}
		img := ""
		if it.Image != nil {
			img = " 🖼"
		}
		fmt.Fprintf(&sb, "%s%d. %s%s [%s]\n    %s %s × %s = %s\n", mark, i+1, name, img, it.Type.Label(),
			estimate.FormatQuantity(it.Quantity), estimate.UnitOrDefault(it.Unit), money(it.Price), money(it.Sum()))
	}

	fmt.Fprintf(&sb, "\nРаботы: %s\nМатериалы: %s\nПодытог: %s\n", money(calc.WorkTotal), money(calc.MaterialsTotal), money(calc.Subtotal))
	if calc.DiscountAmount != 0 {
		label := estimate.FormatQuantity(f.Discount) + "%"
		if f.DiscountType == estimate.DiscountFixed {
			label = money(f.Discount)
		}
		fmt.Fprintf(&sb, "Скидка (%s): -%s\n", label, money(calc.DiscountAmount))
	}
	if calc.TaxAmount != 0 {
		fmt.Fprintf(&sb, "Налог (%s%%): +%s\n", estimate.FormatQuantity(f.Tax), money(calc.TaxAmount))
	}
	fmt.Fprintf(&sb, "Итого: %s", money(calc.GrandTotal))
	if f.Dirty {
		sb.WriteString("\n\n✏️ Есть несохранённые изменения (/save)")
	}
	return sb.String()
}

func estimateLine(e estimate.Estimate) string {
	client := strings.TrimSpace(e.ClientInfo)
	if client == "" {
		client = "без клиента"
	}
	if r := []rune(client); len(r) > 24 {
		client = string(r[:24]) + "…"
	}
	return fmt.Sprintf("№ %s · %s · %s · %s", e.Number, client, e.Status.Label(), money(e.Calculation().GrandTotal))
}

func listText(c estimate.Collection) string {
	if len(c.Estimates) == 0 {
		return "Сохранённых смет нет. Начните с /new."
	}
	var sb strings.Builder
	sb.WriteString("📂 Мои сметы:\n")
	for _, e := range c.Estimates {
		active := "  "
		if c.ActiveEstimateID != nil && *c.ActiveEstimateID == e.ID {
			active = "▶️"
		}
		fmt.Fprintf(&sb, "%s %s\n", active, estimateLine(e))
	}
	return sb.String()
}

func templatesText(list []estimate.Template) string {
	if len(list) == 0 {
		return "Шаблонов нет. Сохраните смету как шаблон командой /template."
	}
	var sb strings.Builder
	sb.WriteString("📑 Шаблоны:\n")
	for i, t := range list {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, templateTitle(t))
	}
	return sb.String()
}

func templateTitle(t estimate.Template) string {
	names := make([]string, 0, 2)
	for _, it := range t.Items {
		if strings.TrimSpace(it.Name) != "" {
			names = append(names, it.Name)
		}
		if len(names) == 2 {
			break
		}
	}
	title := strings.Join(names, ", ")
	if title == "" {
		title = "без позиций"
	}
	return fmt.Sprintf("%s (%d поз.)", title, len(t.Items))
}

func projectsText(list []projects.Project) string {
	if len(list) == 0 {
		return "Проектов нет. Добавьте: /projects Название проекта"
	}
	var sb strings.Builder
	sb.WriteString("📁 Проекты:\n")
	for _, p := range list {
		mark := "🔨"
		if p.Status == projects.StatusCompleted {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s %s", mark, p.Name)
		if p.Client != "" {
			fmt.Fprintf(&sb, " · %s", p.Client)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

type projectCard struct {
	Project   projects.Project
	Estimates []estimate.Estimate
	Summary   finance.Summary
	Stages    []stages.Stage
	Notes     []notes.Note
}

func projectText(c projectCard) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📁 %s\n", c.Project.Name)
	if c.Project.Client != "" {
		fmt.Fprintf(&sb, "Клиент: %s\n", c.Project.Client)
	}
	if c.Project.Address != "" {
		fmt.Fprintf(&sb, "Адрес: %s\n", c.Project.Address)
	}
	var total float64
	for _, e := range c.Estimates {
		total += e.Calculation().GrandTotal
	}
	fmt.Fprintf(&sb, "\nСметы: %d на %s\n", len(c.Estimates), money(total))
	for _, e := range c.Estimates {
		fmt.Fprintf(&sb, "  • %s\n", estimateLine(e))
	}
	fmt.Fprintf(&sb, "Оплачено: %s · Расходы: %s · Прибыль: %s\n", money(c.Summary.Income), money(c.Summary.Expenses), money(c.Summary.Profit))
	if len(c.Stages) > 0 {
		fmt.Fprintf(&sb, "Этапы: %d, выполнено %.0f%%\n", len(c.Stages), stages.Progress(c.Stages))
	}
	if len(c.Notes) > 0 {
		sb.WriteString("\nЗаметки:\n")
		for _, n := range c.Notes {
			fmt.Fprintf(&sb, "  📝 %s\n", n.Text)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

var filterTitles = map[tasks.Filter]string{
	tasks.FilterAll:       "Все",
	tasks.FilterToday:     "Сегодня",
	tasks.FilterWeek:      "Неделя",
	tasks.FilterOverdue:   "Просрочено",
	tasks.FilterCompleted: "Выполнено",
}

func tasksText(groups []tasks.Group, f tasks.Filter) string {
	if len(groups) == 0 {
		return fmt.Sprintf("✅ Задачи (%s): пусто.", filterTitles[f])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Задачи (%s)\n", filterTitles[f])
	n := 0
	for _, g := range groups {
		fmt.Fprintf(&sb, "\n%s:\n", g.Name)
		for _, t := range g.Tasks {
			n++
			box := "⬜"
			if t.Completed {
				box = "☑️"
			}
			fmt.Fprintf(&sb, "%s %d. %s", box, n, t.Text)
			if p := t.PriorityOrDefault(); p == tasks.PriorityHigh {
				fmt.Fprintf(&sb, " ❗")
			}
			if t.DueDate != "" {
				fmt.Fprintf(&sb, " · %s", estimate.FormatDate(t.DueDate))
			}
			sb.WriteByte('\n')
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func libraryText(items []library.Item, query string) string {
	if len(items) == 0 {
		if query != "" {
			return fmt.Sprintf("В справочнике ничего не найдено по запросу «%s».", query)
		}
		return "Справочник пуст. Добавьте позицию кнопкой ниже или загрузите Excel."
	}
	var sb strings.Builder
	sb.WriteString("📚 Справочник (нажмите, чтобы добавить в смету):\n")
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %s · %s/%s\n", i+1, it.Name, money(it.Price), estimate.UnitOrDefault(it.Unit))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func scratchText(items []scratchpad.Item) string {
	if len(items) == 0 {
		return "🗒 Блокнот пуст. Добавьте запись: /note текст"
	}
	var sb strings.Builder
	sb.WriteString("🗒 Блокнот:\n")
	for i, it := range items {
		box := "⬜"
		if it.Completed {
			box = "☑️"
		}
		fmt.Fprintf(&sb, "%s %d. %s\n", box, i+1, it.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func toolsText(tools []inventory.Tool) string {
	if len(tools) == 0 {
		return "🧰 Инструмента в учёте нет. Добавьте: /tools Название"
	}
	var sb strings.Builder
	sb.WriteString("🧰 Инструмент:\n")
	for _, loc := range inventory.Locations(tools) {
		var here []string
		for _, t := range tools {
			if t.Location == loc {
				here = append(here, t.Name)
			}
		}
		if len(here) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n📍 %s:\n", loc)
		for _, name := range here {
			fmt.Fprintf(&sb, "  • %s\n", name)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func shoppingText(items []estimate.Item) string {
	lines := estimate.ShoppingList(items)
	if len(lines) == 0 {
		return "В смете нет материалов."
	}
	var sb strings.Builder
	sb.WriteString("🛒 Список покупок:\n")
	for _, l := range lines {
		fmt.Fprintf(&sb, "• %s: %s %s\n", l.Name, estimate.FormatQuantity(l.Quantity), estimate.UnitOrDefault(l.Unit))
	}
	return strings.TrimRight(sb.String(), "\n")
}
