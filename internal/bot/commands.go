package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/smeta-bot/internal/dialog"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
	"github.com/Spok95/smeta-bot/internal/infra/ai"
	"github.com/Spok95/smeta-bot/internal/infra/mailer"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	b.runCommand(ctx, msg.Chat.ID, msg.From.ID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
}

// runCommand is shared by slash commands and the reply keyboard.
func (b *Bot) runCommand(ctx context.Context, chatID, owner int64, cmd, args string) {
	// любая команда закрывает открытый ввод
	b.closeOverlay(ctx, chatID)
	s := b.session(ctx, chatID, owner)

	switch cmd {
	case "start":
		b.welcome(ctx, chatID)
		b.showForm(ctx, chatID, s)

	case "help":
		b.reply(ctx, chatID, helpText)

	case "cancel":
		b.reply(ctx, chatID, "Отменено.")

	case "show":
		b.showForm(ctx, chatID, s)

	case "new":
		b.newEstimate(ctx, chatID, s, nil)

	case "list":
		b.showList(ctx, chatID, s)

	case "items":
		if args != "" {
			b.addItems(ctx, chatID, s, args)
			return
		}
		b.ask(ctx, chatID, dialog.OverlayItemAdd, nil, itemHelp)

	case "save":
		b.saveForm(ctx, chatID, s)

	case "client":
		if args == "" {
			b.ask(ctx, chatID, dialog.OverlayClient, nil, "Введите клиента и адрес объекта:")
			return
		}
		s.SetClientInfo(args)
		b.showForm(ctx, chatID, s)

	case "number":
		if args == "" {
			b.ask(ctx, chatID, dialog.OverlayNumber, nil, "Введите номер сметы:")
			return
		}
		s.SetNumber(args)
		b.showForm(ctx, chatID, s)

	case "discount":
		if args == "" {
			b.ask(ctx, chatID, dialog.OverlayDiscount, nil, "Введите скидку: 10% или 5000₽. 0 убирает скидку.")
			return
		}
		b.setDiscount(ctx, chatID, s, args)

	case "tax":
		if args == "" {
			b.ask(ctx, chatID, dialog.OverlayTax, nil, "Введите налог в процентах, например 20. 0 убирает налог.")
			return
		}
		b.setTax(ctx, chatID, s, args)

	case "status":
		id, ok := b.activeID(ctx, chatID, s)
		if !ok {
			return
		}
		b.replyKB(ctx, chatID, "Выберите статус сметы:", statusKeyboard(id, s.Snapshot().Status))

	case "delete":
		if id, ok := b.activeID(ctx, chatID, s); ok {
			b.deleteEstimate(ctx, chatID, s, id)
		}

	case "template":
		if id, ok := b.activeID(ctx, chatID, s); ok {
			b.saveTemplate(ctx, chatID, s, id)
		}

	case "templates":
		b.showTemplates(ctx, chatID, owner)

	case "shopping":
		b.reply(ctx, chatID, shoppingText(s.Snapshot().Items))

	case "act":
		f := s.Snapshot()
		if f.ProjectID == nil {
			b.reply(ctx, chatID, "Акт составляется по проекту. Привяжите смету к проекту или откройте проект в /projects.")
			return
		}
		b.sendAct(ctx, chatID, owner, *f.ProjectID, args)

	case "pdf", "xlsx", "share":
		b.export(ctx, chatID, owner, s, cmd, "")

	case "email":
		if !b.Mailer.Enabled() {
			b.fail(ctx, chatID, "email", mailer.ErrDisabled)
			return
		}
		if args == "" {
			b.ask(ctx, chatID, dialog.OverlayEmail, nil, "Введите адрес почты клиента:")
			return
		}
		b.export(ctx, chatID, owner, s, "email", args)

	case "suggest":
		if !b.AI.Enabled() {
			b.fail(ctx, chatID, "suggest", ai.ErrDisabled)
			return
		}
		if args == "" {
			b.ask(ctx, chatID, dialog.OverlaySuggest, nil, "Опишите работы, например: «покраска стен в комнате 18 м²»:")
			return
		}
		b.suggest(ctx, chatID, s, args)

	case "library":
		b.showLibrary(ctx, chatID, owner, args)

	case "backup":
		b.sendBackup(ctx, chatID, owner)

	case "restore":
		b.ask(ctx, chatID, dialog.OverlayRestoreFile, nil, "Отправьте файл резервной копии (.json).")

	case "projects":
		if args != "" {
			b.addProject(ctx, chatID, owner, s, args)
			return
		}
		b.showProjects(ctx, chatID, owner, "")

	case "tasks":
		f, ok := tasks.ParseFilter(strings.ToLower(args))
		if !ok {
			b.reply(ctx, chatID, "Фильтры: all, today, week, overdue, completed.")
			return
		}
		b.showTasks(ctx, chatID, owner, f)

	case "task":
		if args == "" {
			b.ask(ctx, chatID, dialog.OverlayTaskText, nil, "Введите текст задачи:")
			return
		}
		b.addTask(ctx, chatID, owner, args)

	case "notes":
		b.showScratch(ctx, chatID, owner)

	case "note":
		if args == "" {
			b.ask(ctx, chatID, dialog.OverlayScratchpad, nil, "Введите запись для блокнота:")
			return
		}
		b.addScratch(ctx, chatID, owner, args)

	case "tools":
		if args != "" {
			b.addTool(ctx, chatID, owner, args)
			return
		}
		b.showTools(ctx, chatID, owner)

	case "theme":
		b.toggleTheme(ctx, chatID, owner)

	default:
		b.reply(ctx, chatID, "Не знаю такую команду. Наберите /help")
	}
}

// activeID returns the saved estimate being edited; a new form has none yet.
func (b *Bot) activeID(ctx context.Context, chatID int64, s *estimate.Session) (int64, bool) {
	f := s.Snapshot()
	if f.ActiveID == nil {
		b.reply(ctx, chatID, "Сначала сохраните смету (/save).")
		return 0, false
	}
	return *f.ActiveID, true
}

func (b *Bot) newEstimate(ctx context.Context, chatID int64, s *estimate.Session, projectID *int64) {
	done, err := s.New(ctx, projectID)
	if err != nil {
		b.fail(ctx, chatID, "new estimate", err)
		return
	}
	if done {
		b.showForm(ctx, chatID, s)
	}
}

func (b *Bot) loadEstimate(ctx context.Context, chatID int64, s *estimate.Session, id int64) {
	done, err := s.Load(ctx, id)
	if err != nil {
		b.fail(ctx, chatID, "load estimate", err)
		return
	}
	if done {
		b.showForm(ctx, chatID, s)
	}
}

func (b *Bot) deleteEstimate(ctx context.Context, chatID int64, s *estimate.Session, id int64) {
	done, err := s.Delete(ctx, id)
	if errors.Is(err, estimate.ErrNotFound) {
		b.fail(ctx, chatID, "delete estimate", err)
		return
	}
	if done && err == nil {
		b.reply(ctx, chatID, "🗑 Смета удалена.")
		b.showList(ctx, chatID, s)
	}
}

func (b *Bot) saveTemplate(ctx context.Context, chatID int64, s *estimate.Session, id int64) {
	if _, err := s.SaveAsTemplate(ctx, id); err != nil {
		b.fail(ctx, chatID, "save template", err)
	}
}

func (b *Bot) setDiscount(ctx context.Context, chatID int64, s *estimate.Session, text string) bool {
	v, kind, err := parseDiscount(text)
	if err != nil {
		b.reply(ctx, chatID, "Не понял скидку. Пример: 10% или 5000₽.")
		return false
	}
	s.SetDiscount(v, kind)
	b.showForm(ctx, chatID, s)
	return true
}

func (b *Bot) setTax(ctx context.Context, chatID int64, s *estimate.Session, text string) bool {
	v, err := parseNumber(text)
	if err != nil {
		b.reply(ctx, chatID, "Налог должен быть числом, например 20.")
		return false
	}
	s.SetTax(v)
	b.showForm(ctx, chatID, s)
	return true
}

func (b *Bot) addTask(ctx context.Context, chatID, owner int64, text string) {
	t, err := b.Tasks.Add(ctx, owner, text)
	if err != nil {
		b.fail(ctx, chatID, "task add", err)
		return
	}
	b.reply(ctx, chatID, "✅ Задача добавлена: "+t.Text)
	b.showTasks(ctx, chatID, owner, tasks.FilterAll)
}

func (b *Bot) addScratch(ctx context.Context, chatID, owner int64, text string) {
	if _, err := b.Scratch.Add(ctx, owner, text); err != nil {
		b.fail(ctx, chatID, "scratchpad add", err)
		return
	}
	b.showScratch(ctx, chatID, owner)
}

func (b *Bot) addTool(ctx context.Context, chatID, owner int64, name string) {
	t, err := b.Inventory.Add(ctx, owner, inventory.Tool{Name: name})
	if err != nil {
		b.fail(ctx, chatID, "tool add", err)
		return
	}
	b.reply(ctx, chatID, "🧰 "+t.Name+" добавлен, место: "+t.Location)
	b.showTools(ctx, chatID, owner)
}
