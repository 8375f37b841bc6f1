package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/smeta-bot/internal/dialog"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
)

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	owner := cb.From.ID
	cd := parseCallback(cb.Data)
	b.answerCallback(cb, "", false)
	b.closeOverlay(ctx, chatID)

	switch cd.Prefix {
	case "est":
		b.onEstimateCallback(ctx, chatID, owner, cd)
	case "ex":
		b.runCommand(ctx, chatID, owner, cd.Action, "")
	case "it":
		b.onItemCallback(ctx, chatID, owner, cd)
	case "st":
		s := b.session(ctx, chatID, owner)
		id, ok := cd.ID()
		if !ok {
			return
		}
		if err := s.SetStatus(ctx, id, estimate.Status(cd.Action)); err != nil {
			b.fail(ctx, chatID, "set status", err)
			return
		}
		b.showForm(ctx, chatID, s)
	case "tpl":
		b.onTemplateCallback(ctx, chatID, owner, cd)
	case "lib":
		b.onLibraryCallback(ctx, chatID, owner, cd)
	case "prj":
		b.onProjectCallback(ctx, chatID, owner, cd)
	case "tsk":
		b.onTaskCallback(ctx, chatID, owner, cd)
	case "sp":
		b.onScratchCallback(ctx, chatID, owner, cd)
	case "inv":
		b.onToolCallback(ctx, chatID, owner, cd)
	default:
		b.log.Warn("unknown callback", "data", cb.Data)
	}
}

func (b *Bot) onEstimateCallback(ctx context.Context, chatID, owner int64, cd callbackData) {
	s := b.session(ctx, chatID, owner)
	switch cd.Action {
	case "show":
		b.showForm(ctx, chatID, s)
	case "add":
		b.ask(ctx, chatID, dialog.OverlayItemAdd, nil, itemHelp)
	case "items":
		f := s.Snapshot()
		b.replyKB(ctx, chatID, "Выберите позицию:", itemsKeyboard(f.Items))
	case "shop":
		b.reply(ctx, chatID, shoppingText(s.Snapshot().Items))
	case "open":
		if id, ok := cd.ID(); ok {
			b.loadEstimate(ctx, chatID, s, id)
		}
	case "rm":
		if id, ok := cd.ID(); ok {
			b.deleteEstimate(ctx, chatID, s, id)
		}
	case "status":
		if id, ok := cd.ID(); ok {
			b.replyKB(ctx, chatID, "Выберите статус сметы:", statusKeyboard(id, s.Snapshot().Status))
		}
	case "tpl":
		if id, ok := cd.ID(); ok {
			b.saveTemplate(ctx, chatID, s, id)
		}
	case "ai":
		b.runCommand(ctx, chatID, owner, "suggest", "")
	default:
		// client, number, discount, tax, save, new, list совпадают с командами
		b.runCommand(ctx, chatID, owner, cd.Action, "")
	}
}

func (b *Bot) onItemCallback(ctx context.Context, chatID, owner int64, cd callbackData) {
	s := b.session(ctx, chatID, owner)
	raw, ok := cd.ID()
	if !ok {
		return
	}
	id := estimate.ItemID(raw)
	switch cd.Action {
	case "edit":
		for _, it := range s.Snapshot().Items {
			if it.ID == id {
				b.ask(ctx, chatID, dialog.OverlayItemEdit, dialog.Payload{"item_id": raw},
					"Сейчас: "+itemLine(it)+"\nОтправьте позицию заново в том же формате.")
				return
			}
		}
		b.reply(ctx, chatID, "Позиция уже удалена.")
	case "del":
		s.RemoveItem(id)
		b.replyKB(ctx, chatID, "Позиция удалена.", itemsKeyboard(s.Snapshot().Items))
	case "up":
		items := s.Snapshot().Items
		for i, it := range items {
			if it.ID == id && i > 0 {
				s.MoveItem(i, i-1)
				break
			}
		}
		b.replyKB(ctx, chatID, "Порядок изменён.", itemsKeyboard(s.Snapshot().Items))
	case "img":
		b.ask(ctx, chatID, dialog.OverlayItemImage, dialog.Payload{"item_id": raw}, "Отправьте фото для позиции.")
	case "noimg":
		s.ClearItemImage(id)
		b.replyKB(ctx, chatID, "Фото убрано.", itemsKeyboard(s.Snapshot().Items))
	}
}

// itemLine renders an item back in the input format.
func itemLine(it estimate.Item) string {
	kind := "р"
	if it.Type == estimate.ItemMaterial {
		kind = "м"
	}
	return strings.Join([]string{
		it.Name,
		estimate.FormatQuantity(it.Quantity),
		it.Unit,
		strconv.FormatFloat(it.Price, 'f', -1, 64),
		kind,
	}, "; ")
}

func (b *Bot) onTemplateCallback(ctx context.Context, chatID, owner int64, cd callbackData) {
	s := b.session(ctx, chatID, owner)
	lm, ok := cd.ID()
	if !ok {
		return
	}
	switch cd.Action {
	case "use":
		done, err := s.NewFromTemplate(ctx, lm)
		if err != nil {
			b.fail(ctx, chatID, "template", err)
			return
		}
		if done {
			b.showForm(ctx, chatID, s)
		}
	case "del":
		done, err := s.DeleteTemplate(ctx, lm)
		if err != nil {
			b.fail(ctx, chatID, "delete template", err)
			return
		}
		if done {
			b.showTemplates(ctx, chatID, owner)
		}
	}
}

func (b *Bot) onLibraryCallback(ctx context.Context, chatID, owner int64, cd callbackData) {
	switch cd.Action {
	case "list":
		b.showLibrary(ctx, chatID, owner, "")
	case "pick":
		if id, ok := cd.ID(); ok {
			b.pickLibrary(ctx, chatID, owner, b.session(ctx, chatID, owner), id)
		}
	case "del":
		if id, ok := cd.ID(); ok {
			if err := b.Library.Delete(ctx, owner, id); err != nil {
				b.fail(ctx, chatID, "library delete", err)
				return
			}
			b.showLibrary(ctx, chatID, owner, "")
		}
	case "add":
		b.ask(ctx, chatID, dialog.OverlayLibraryAdd, nil, "Введите позицию: Наименование; цена; ед.")
	case "import":
		b.ask(ctx, chatID, dialog.OverlayLibraryFile, nil,
			"Отправьте файл .xlsx: колонки «Наименование», «Цена», «Ед. изм.» в первой строке.")
	case "export":
		b.exportLibrary(ctx, chatID, owner)
	}
}

func (b *Bot) onProjectCallback(ctx context.Context, chatID, owner int64, cd callbackData) {
	s := b.session(ctx, chatID, owner)
	if cd.Action == "list" {
		b.showProjects(ctx, chatID, owner, "")
		return
	}
	if cd.Action == "add" {
		b.ask(ctx, chatID, dialog.OverlayProjectName, nil, "Введите проект: Название; клиент; адрес")
		return
	}
	id, ok := cd.ID()
	if !ok {
		return
	}
	switch cd.Action {
	case "open":
		b.showProject(ctx, chatID, owner, id, s)
	case "est":
		b.newEstimate(ctx, chatID, s, &id)
	case "note":
		b.ask(ctx, chatID, dialog.OverlayNoteText, dialog.Payload{"project_id": id}, "Введите заметку по проекту:")
	case "act":
		b.sendAct(ctx, chatID, owner, id, "")
	case "done":
		b.toggleProject(ctx, chatID, owner, id, s)
	case "del":
		b.deleteProject(ctx, chatID, owner, id, s)
	}
}

func (b *Bot) onTaskCallback(ctx context.Context, chatID, owner int64, cd callbackData) {
	switch cd.Action {
	case "f":
		f, ok := tasks.ParseFilter(cd.Arg)
		if ok {
			b.showTasks(ctx, chatID, owner, f)
		}
		return
	case "add":
		b.ask(ctx, chatID, dialog.OverlayTaskText, nil, "Введите текст задачи:")
		return
	}
	id, ok := cd.ID()
	if !ok {
		return
	}
	var err error
	switch cd.Action {
	case "done":
		_, err = b.Tasks.Toggle(ctx, owner, id)
	case "later":
		_, err = b.Tasks.Postpone(ctx, owner, id)
	case "del":
		err = b.Tasks.Delete(ctx, owner, id)
	}
	if err != nil {
		b.fail(ctx, chatID, "task "+cd.Action, err)
		return
	}
	b.showTasks(ctx, chatID, owner, tasks.FilterAll)
}

func (b *Bot) onScratchCallback(ctx context.Context, chatID, owner int64, cd callbackData) {
	if cd.Action == "add" {
		b.ask(ctx, chatID, dialog.OverlayScratchpad, nil, "Введите запись для блокнота:")
		return
	}
	id, ok := cd.ID()
	if !ok {
		return
	}
	var err error
	switch cd.Action {
	case "tg":
		_, err = b.Scratch.Toggle(ctx, owner, id)
	case "del":
		err = b.Scratch.Delete(ctx, owner, id)
	}
	if err != nil {
		b.fail(ctx, chatID, "scratchpad "+cd.Action, err)
		return
	}
	b.showScratch(ctx, chatID, owner)
}

func (b *Bot) onToolCallback(ctx context.Context, chatID, owner int64, cd callbackData) {
	switch cd.Action {
	case "list":
		b.showTools(ctx, chatID, owner)
	case "add":
		b.ask(ctx, chatID, dialog.OverlayToolName, nil, "Введите название инструмента:")
	case "mv":
		id, ok := cd.ID()
		if !ok {
			return
		}
		t, err := b.Inventory.Tool(ctx, owner, id)
		if err != nil {
			b.fail(ctx, chatID, "tool", err)
			return
		}
		if err := b.states.Set(ctx, chatID, dialog.OverlayToolMove, dialog.Payload{"tool_id": id}); err != nil {
			b.fail(ctx, chatID, "set dialog", err)
			return
		}
		b.replyKB(ctx, chatID, "Куда переместить «"+t.Name+"» (сейчас: "+t.Location+")? Выберите место или напишите новое.",
			moveKeyboard(id, inventory.Locations(b.Inventory.Tools(ctx, owner))))
	case "to":
		rawID, rawIdx, _ := strings.Cut(cd.Arg, ":")
		id, err1 := strconv.ParseInt(rawID, 10, 64)
		idx, err2 := strconv.Atoi(rawIdx)
		locations := inventory.Locations(b.Inventory.Tools(ctx, owner))
		if err1 != nil || err2 != nil || idx < 0 || idx >= len(locations) {
			b.reply(ctx, chatID, "Список мест изменился, откройте инструмент заново.")
			return
		}
		b.moveTool(ctx, chatID, owner, id, locations[idx])
	case "del":
		if id, ok := cd.ID(); ok {
			if err := b.Inventory.Delete(ctx, owner, id); err != nil {
				b.fail(ctx, chatID, "tool delete", err)
				return
			}
			b.showTools(ctx, chatID, owner)
		}
	}
}
