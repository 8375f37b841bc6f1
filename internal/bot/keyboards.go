package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/library"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
	"github.com/Spok95/smeta-bot/internal/domain/scratchpad"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
	"github.com/Spok95/smeta-bot/internal/infra/webapp"
)

// Telegram allows at most 100 inline buttons per message.
const maxListButtons = 30

// Кнопки нижней панели.
const (
	btnEstimate  = "📋 Смета"
	btnList      = "📂 Мои сметы"
	btnTemplates = "📑 Шаблоны"
	btnLibrary   = "📚 Справочник"
	btnProjects  = "📁 Проекты"
	btnTasks     = "✅ Задачи"
	btnTools     = "🧰 Инструмент"
	btnScratch   = "🗒 Блокнот"
)

var menuCommands = map[string]string{
	btnEstimate:  "show",
	btnList:      "list",
	btnTemplates: "templates",
	btnLibrary:   "library",
	btnProjects:  "projects",
	btnTasks:     "tasks",
	btnTools:     "tools",
	btnScratch:   "notes",
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnEstimate), tgbotapi.NewKeyboardButton(btnList)},
			{tgbotapi.NewKeyboardButton(btnTemplates), tgbotapi.NewKeyboardButton(btnLibrary)},
			{tgbotapi.NewKeyboardButton(btnProjects), tgbotapi.NewKeyboardButton(btnTasks)},
			{tgbotapi.NewKeyboardButton(btnTools), tgbotapi.NewKeyboardButton(btnScratch)},
		},
	}
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func confirmKeyboard(token string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("✅ Да", callback("cf", "yes", token)),
			button("✖️ Нет", callback("cf", "no", token)),
		),
	)
}

func backRow(text, data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button("⬅️ "+text, data))
}

func formKeyboard(f estimate.Form, aiEnabled bool, links *webapp.Links) tgbotapi.InlineKeyboardMarkup {
	add := tgbotapi.NewInlineKeyboardRow(
		button("➕ Позиции", "est:add:"),
		button("📚 Справочник", "lib:list:"),
	)
	if aiEnabled {
		add = append(add, button("✨ ИИ", "est:ai:"))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{add}
	if len(f.Items) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("✏️ Изменить позиции", "est:items:"),
			button("🛒 Покупки", "est:shop:"),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			button("👤 Клиент", "est:client:"),
			button("№ Номер", "est:number:"),
			button("💸 Скидка", "est:discount:"),
			button("🧾 Налог", "est:tax:"),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("💾 Сохранить", "est:save:"),
			button("🆕 Новая", "est:new:"),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("📄 PDF", "ex:pdf:"),
			button("📊 Excel", "ex:xlsx:"),
			button("📤 Текст", "ex:share:"),
			button("✉️ Email", "ex:email:"),
		),
	)
	if f.ActiveID != nil {
		id := *f.ActiveID
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("🏷 Статус", callback("est", "status", id)),
			button("📑 В шаблоны", callback("est", "tpl", id)),
			button("🗑 Удалить", callback("est", "rm", id)),
		))
		if links.Enabled() {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("🌐 Открыть в приложении", links.Estimate(id)),
			))
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func itemsKeyboard(items []estimate.Item) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, it := range items {
		if i == maxListButtons {
			break
		}
		name := it.Name
		if name == "" {
			name = "(без названия)"
		}
		row := tgbotapi.NewInlineKeyboardRow(button(fmt.Sprintf("✏️ %d. %s", i+1, name), callback("it", "edit", it.ID)))
		if i > 0 {
			row = append(row, button("⬆️", callback("it", "up", it.ID)))
		}
		if it.Image != nil {
			row = append(row, button("🚫🖼", callback("it", "noimg", it.ID)))
		} else {
			row = append(row, button("🖼", callback("it", "img", it.ID)))
		}
		row = append(row, button("🗑", callback("it", "del", it.ID)))
		rows = append(rows, row)
	}
	rows = append(rows, backRow("К смете", "est:show:"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func listKeyboard(c estimate.Collection) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, e := range c.Estimates {
		if i == maxListButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("№ "+e.Number+" · "+money(e.Calculation().GrandTotal), callback("est", "open", e.ID)),
			button("🗑", callback("est", "rm", e.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("🆕 Новая смета", "est:new:")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func statusKeyboard(id int64, current estimate.Status) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, st := range estimate.Statuses {
		label := st.Label()
		if st == current {
			label = "• " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, callback("st", string(st), id))))
	}
	rows = append(rows, backRow("К смете", "est:show:"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func templatesKeyboard(list []estimate.Template) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, t := range list {
		if i == maxListButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("%d. %s", i+1, templateTitle(t)), callback("tpl", "use", t.LastModified)),
			button("🗑", callback("tpl", "del", t.LastModified)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func projectsKeyboard(list []projects.Project) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, p := range list {
		if i == maxListButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(p.Name, callback("prj", "open", p.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("➕ Новый проект", "prj:add:")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func projectKeyboard(p projects.Project, links *webapp.Links) tgbotapi.InlineKeyboardMarkup {
	status := button("✅ Завершить", callback("prj", "done", p.ID))
	if p.Status == projects.StatusCompleted {
		status = button("🔨 Возобновить", callback("prj", "done", p.ID))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			button("🆕 Смета", callback("prj", "est", p.ID)),
			button("📝 Заметка", callback("prj", "note", p.ID)),
			button("📄 Акт", callback("prj", "act", p.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(status, button("🗑 Удалить", callback("prj", "del", p.ID))),
	}
	if links.Enabled() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🌐 Открыть в приложении", links.Project(p.ID)),
		))
	}
	rows = append(rows, backRow("К проектам", "prj:list:"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var filterOrder = []tasks.Filter{tasks.FilterAll, tasks.FilterToday, tasks.FilterWeek, tasks.FilterOverdue, tasks.FilterCompleted}

func tasksKeyboard(groups []tasks.Group, current tasks.Filter) tgbotapi.InlineKeyboardMarkup {
	filters := make([]tgbotapi.InlineKeyboardButton, 0, len(filterOrder))
	for _, f := range filterOrder {
		label := filterTitles[f]
		if f == current {
			label = "• " + label
		}
		filters = append(filters, button(label, callback("tsk", "f", f)))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{filters}
	n := 0
	for _, g := range groups {
		for _, t := range g.Tasks {
			n++
			if n > maxListButtons {
				break
			}
			done := button(fmt.Sprintf("☑️ %d", n), callback("tsk", "done", t.ID))
			if t.Completed {
				done = button(fmt.Sprintf("↩️ %d", n), callback("tsk", "done", t.ID))
			}
			row := tgbotapi.NewInlineKeyboardRow(done)
			if !t.Completed {
				row = append(row, button("⏭ Завтра", callback("tsk", "later", t.ID)))
			}
			row = append(row, button("🗑", callback("tsk", "del", t.ID)))
			rows = append(rows, row)
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("➕ Задача", "tsk:add:")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func libraryKeyboard(items []library.Item) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, it := range items {
		if i == maxListButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("➕ %s · %s", it.Name, money(it.Price)), callback("lib", "pick", it.ID)),
			button("🗑", callback("lib", "del", it.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("➕ Добавить", "lib:add:"),
		button("📥 Импорт", "lib:import:"),
		button("📤 Экспорт", "lib:export:"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func scratchKeyboard(items []scratchpad.Item) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, it := range items {
		if i == maxListButtons {
			break
		}
		mark := "☑️"
		if it.Completed {
			mark = "↩️"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("%s %d", mark, i+1), callback("sp", "tg", it.ID)),
			button("🗑", callback("sp", "del", it.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("➕ Запись", "sp:add:")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func toolsKeyboard(tools []inventory.Tool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, t := range tools {
		if i == maxListButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("🚚 "+t.Name, callback("inv", "mv", t.ID)),
			button("🗑", callback("inv", "del", t.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("➕ Инструмент", "inv:add:")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// moveKeyboard offers the known locations; the index refers to
// inventory.Locations at the time of the answer.
func moveKeyboard(toolID int64, locations []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, loc := range locations {
		if i == maxListButtons {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("📍 "+loc, callback("inv", "to", fmt.Sprintf("%d:%d", toolID, i)))))
	}
	rows = append(rows, backRow("К инструменту", "inv:list:"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
