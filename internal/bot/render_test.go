package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
)

func TestFormTextMarksInvalidItemsAndTotals(t *testing.T) {
	f := estimate.Form{
		Number:       "7",
		Date:         "2024-03-01",
		Status:       estimate.StatusDraft,
		DiscountType: estimate.DiscountPercent,
		Discount:     10,
		Tax:          20,
		Dirty:        true,
		Items: []estimate.Item{
			{ID: 1, Name: "Покраска", Quantity: 10, Price: 100, Type: estimate.ItemWork},
			{ID: 2, Name: "", Quantity: 1, Type: estimate.ItemWork},
		},
	}
	calc := estimate.Compute(f.Items, f.Discount, f.DiscountType, f.Tax)
	text := formText(f, calc)

	assert.Contains(t, text, "Смета № 7 от 01.03.2024 · Черновик")
	assert.Contains(t, text, "Клиент / объект: не указан")
	assert.Contains(t, text, "1. Покраска [Работа]")
	assert.Contains(t, text, "⚠️ 2. (без названия)")
	assert.NotContains(t, text, "⚠️ 1.")
	assert.Contains(t, text, "Скидка (10%): -"+estimate.FormatMoney(100))
	assert.Contains(t, text, "Налог (20%): +"+estimate.FormatMoney(180))
	assert.Contains(t, text, "Итого: "+estimate.FormatMoney(1080))
	assert.Contains(t, text, "несохранённые изменения")
}

func TestFormTextFixedDiscountAndClean(t *testing.T) {
	f := estimate.Form{
		Number:       "1",
		Date:         "2024-03-01",
		Status:       estimate.StatusSent,
		DiscountType: estimate.DiscountFixed,
		Discount:     50,
		ClientInfo:   "Иванов, ул. Мира 5",
		Items:        []estimate.Item{{ID: 1, Name: "Клей", Quantity: 2, Price: 300, Type: estimate.ItemMaterial}},
	}
	text := formText(f, estimate.Compute(f.Items, f.Discount, f.DiscountType, f.Tax))

	assert.Contains(t, text, "Иванов, ул. Мира 5")
	assert.Contains(t, text, "Скидка ("+estimate.FormatMoney(50)+")")
	assert.NotContains(t, text, "Налог")
	assert.NotContains(t, text, "несохранённые")
}

func TestListTextMarksActive(t *testing.T) {
	active := int64(2)
	c := estimate.Collection{
		Estimates: []estimate.Estimate{
			{ID: 2, Number: "2", ClientInfo: "Очень длинное название клиента и объекта", Status: estimate.StatusApproved},
			{ID: 1, Number: "1", Status: estimate.StatusDraft},
		},
		ActiveEstimateID: &active,
	}
	lines := strings.Split(strings.TrimSpace(listText(c)), "\n")

	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "▶️ № 2"))
	assert.Contains(t, lines[1], "…")
	assert.Contains(t, lines[1], "Одобрена")
	assert.Contains(t, lines[2], "без клиента")
	assert.Equal(t, "Сохранённых смет нет. Начните с /new.", listText(estimate.Collection{}))
}

func TestTemplateTitle(t *testing.T) {
	tpl := estimate.Template{Items: []estimate.Item{{Name: ""}, {Name: "Стяжка"}, {Name: "Грунт"}, {Name: "Плитка"}}}
	assert.Equal(t, "Стяжка, Грунт (4 поз.)", templateTitle(tpl))
	assert.Equal(t, "без позиций (0 поз.)", templateTitle(estimate.Template{}))
}

func TestTasksText(t *testing.T) {
	groups := []tasks.Group{
		{Name: tasks.GroupToday, Tasks: []tasks.Task{{ID: 1, Text: "Купить грунт", DueDate: "2024-03-01", Priority: tasks.PriorityHigh}}},
		{Name: tasks.GroupNoDate, Tasks: []tasks.Task{{ID: 2, Text: "Позвонить клиенту"}}},
	}
	text := tasksText(groups, tasks.FilterAll)

	assert.Contains(t, text, "Задачи (Все)")
	assert.Contains(t, text, "Сегодня:\n⬜ 1. Купить грунт ❗ · 01.03.2024")
	assert.Contains(t, text, "Без срока:\n⬜ 2. Позвонить клиенту")
	assert.Equal(t, "✅ Задачи (Просрочено): пусто.", tasksText(nil, tasks.FilterOverdue))
}

func TestToolsTextGroupsByLocation(t *testing.T) {
	tools := []inventory.Tool{
		{ID: 1, Name: "Перфоратор", Location: "Объект на Ленина"},
		{ID: 2, Name: "Уровень", Location: inventory.DefaultLocation},
		{ID: 3, Name: "Шуруповёрт", Location: "Объект на Ленина"},
	}
	text := toolsText(tools)

	base := strings.Index(text, "📍 "+inventory.DefaultLocation)
	site := strings.Index(text, "📍 Объект на Ленина")
	assert.True(t, base >= 0 && site > base, "base goes first")
	assert.Contains(t, text, "  • Перфоратор\n  • Шуруповёрт")
}

func TestShoppingText(t *testing.T) {
	items := []estimate.Item{
		{Name: "Клей", Quantity: 2, Unit: "мешок", Price: 450, Type: estimate.ItemMaterial},
		{Name: "клей", Quantity: 1, Unit: "мешок", Price: 450, Type: estimate.ItemMaterial},
		{Name: "Укладка", Quantity: 10, Price: 800, Type: estimate.ItemWork},
	}
	assert.Equal(t, "🛒 Список покупок:\n• Клей: 3 мешок", shoppingText(items))
	assert.Equal(t, "В смете нет материалов.", shoppingText(items[2:]))
}
