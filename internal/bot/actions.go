package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/smeta-bot/internal/dialog"
	"github.com/Spok95/smeta-bot/internal/domain/act"
	"github.com/Spok95/smeta-bot/internal/domain/backup"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/library"
	"github.com/Spok95/smeta-bot/internal/domain/notes"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
	"github.com/Spok95/smeta-bot/internal/domain/scratchpad"
	"github.com/Spok95/smeta-bot/internal/domain/settings"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
	"github.com/Spok95/smeta-bot/internal/infra/ai"
	"github.com/Spok95/smeta-bot/internal/infra/mailer"
	"github.com/Spok95/smeta-bot/internal/infra/pdf"
	"github.com/Spok95/smeta-bot/internal/infra/xlsx"
)

// Сообщения пользователю по известным ошибкам домена.
var userErrors = []struct {
	err  error
	text string
}{
	{estimate.ErrNoValidItems, "В смете нет ни одной заполненной позиции (нужны название, количество и цена)."},
	{estimate.ErrNotFound, "Смета не найдена."},
	{act.ErrNothingToCertify, "В проекте нет смет с суммой для акта."},
	{projects.ErrNotFound, "Проект не найден."},
	{projects.ErrNameRequired, "Укажите название проекта."},
	{tasks.ErrNotFound, "Задача не найдена."},
	{tasks.ErrEmptyText, "Текст задачи пуст."},
	{library.ErrNotFound, "Позиция справочника не найдена."},
	{library.ErrNameRequired, "Укажите наименование."},
	{library.ErrBadPrice, "Цена должна быть неотрицательным числом."},
	{scratchpad.ErrNotFound, "Запись не найдена."},
	{scratchpad.ErrEmptyText, "Запись пуста."},
	{inventory.ErrNotFound, "Инструмент не найден."},
	{inventory.ErrNameRequired, "Укажите название инструмента."},
	{inventory.ErrSameLocation, "Инструмент уже там."},
	{notes.ErrEmpty, "Заметка пуста."},
	{backup.ErrMalformed, "Это не файл резервной копии."},
	{xlsx.ErrUnreadable, "Файл повреждён или это не .xlsx."},
	{xlsx.ErrNoRows, "В файле нет строк с данными."},
	{xlsx.ErrNoColumns, "Не найдены колонки «Наименование» и «Цена»."},
	{mailer.ErrDisabled, "Отправка почты не настроена."},
	{mailer.ErrBadRecipient, "Некорректный адрес почты."},
	{ai.ErrDisabled, "Подбор позиций через ИИ не настроен."},
	{ai.ErrEmptyQuery, "Опишите работы, которые нужно выполнить."},
	{ai.ErrBadReply, "ИИ ответил непонятно, попробуйте переформулировать."},
}

func userError(err error) string {
	for _, ue := range userErrors {
		if errors.Is(err, ue.err) {
			return ue.text
		}
	}
	return "Что-то пошло не так, попробуйте ещё раз."
}

// fail reports err to the chat; unexpected errors are logged.
func (b *Bot) fail(ctx context.Context, chatID int64, op string, err error) {
	text := userError(err)
	if strings.HasPrefix(text, "Что-то") {
		b.log.Error(op+" failed", "chat_id", chatID, "err", err)
	}
	b.reply(ctx, chatID, "⚠️ "+text)
}

// ask opens an overlay and shows its prompt.
func (b *Bot) ask(ctx context.Context, chatID int64, o dialog.Overlay, p dialog.Payload, prompt string) {
	if err := b.states.Set(ctx, chatID, o, p); err != nil {
		b.fail(ctx, chatID, "set dialog", err)
		return
	}
	b.reply(ctx, chatID, prompt+"\n\n/cancel — отмена")
}

func (b *Bot) closeOverlay(ctx context.Context, chatID int64) {
	if err := b.states.Reset(ctx, chatID); err != nil {
		b.log.Warn("reset dialog failed", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) showForm(ctx context.Context, chatID int64, s *estimate.Session) {
	f := s.Snapshot()
	b.replyKB(ctx, chatID, formText(f, s.Totals()), formKeyboard(f, b.AI.Enabled(), b.Links))
}

func (b *Bot) showList(ctx context.Context, chatID int64, s *estimate.Session) {
	c := s.Collection()
	b.replyKB(ctx, chatID, listText(c), listKeyboard(c))
}

func (b *Bot) showTemplates(ctx context.Context, chatID, owner int64) {
	list := b.Estimates.Templates(ctx, owner)
	b.replyKB(ctx, chatID, templatesText(list), templatesKeyboard(list))
}

func (b *Bot) saveForm(ctx context.Context, chatID int64, s *estimate.Session) {
	saved, err := s.Save(ctx)
	switch {
	case err != nil:
		// сессия уже показала предупреждение
	case !saved:
		b.reply(ctx, chatID, "Изменений нет, сохранять нечего.")
	default:
		b.reply(ctx, chatID, "💾 Смета № "+s.Snapshot().Number+" сохранена.")
	}
}

// export sends the form in the given format. to is used by "email" only.
func (b *Bot) export(ctx context.Context, chatID, owner int64, s *estimate.Session, format, to string) {
	err := b.exportForm(ctx, chatID, owner, s, format, to)
	b.Metrics.Export(format, err)
	if err != nil {
		b.fail(ctx, chatID, "export "+format, err)
	}
}

func (b *Bot) exportForm(ctx context.Context, chatID, owner int64, s *estimate.Session, format, to string) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	switch format {
	case "share":
		b.reply(ctx, chatID, estimate.ShareText(doc))
		return nil
	case "xlsx":
		data, err := xlsx.Estimate(doc)
		if err != nil {
			return err
		}
		return b.sendFile(ctx, chatID, xlsx.FileName(doc.Number), data, "Смета № "+doc.Number)
	case "pdf":
		data, err := b.renderPDF(ctx, owner, doc)
		if err != nil {
			return err
		}
		return b.sendFile(ctx, chatID, pdf.FileName(doc.Number), data, "Смета № "+doc.Number)
	case "email":
		if !b.Mailer.Enabled() {
			return mailer.ErrDisabled
		}
		data, err := b.renderPDF(ctx, owner, doc)
		if err != nil {
			return err
		}
		company := b.Profile.Get(ctx, owner)
		if err := b.Mailer.Send(ctx, to, company.Name, doc, mailer.Attachment{FileName: pdf.FileName(doc.Number), Content: data}); err != nil {
			return err
		}
		b.reply(ctx, chatID, "✉️ Смета отправлена на "+to)
		return nil
	}
	return fmt.Errorf("unknown export format %q", format)
}

func (b *Bot) renderPDF(ctx context.Context, owner int64, doc estimate.Document) ([]byte, error) {
	if b.PDF == nil {
		return nil, errors.New("pdf generator is not configured")
	}
	return b.PDF.Generate(doc, b.Profile.Get(ctx, owner))
}

// suggest asks the model for items and appends them to the form.
func (b *Bot) suggest(ctx context.Context, chatID int64, s *estimate.Session, job string) {
	b.reply(ctx, chatID, "✨ Подбираю позиции…")
	drafts, err := b.AI.Suggest(ctx, job)
	if err != nil {
		b.fail(ctx, chatID, "suggest", err)
		return
	}
	if len(drafts) == 0 {
		b.reply(ctx, chatID, "ИИ не предложил ни одной позиции.")
		return
	}
	added := s.AddItems(drafts)
	b.reply(ctx, chatID, fmt.Sprintf("Добавлено позиций: %d. Проверьте цены перед отправкой клиенту.", len(added)))
	b.showForm(ctx, chatID, s)
}

func (b *Bot) addItems(ctx context.Context, chatID int64, s *estimate.Session, text string) {
	items, bad := parseItemLines(text)
	if len(items) > 0 {
		s.AddItems(items)
	}
	if len(bad) > 0 {
		var sb strings.Builder
		sb.WriteString("Не удалось разобрать строки:\n")
		for n, err := range bad {
			fmt.Fprintf(&sb, "• строка %d: %v\n", n, err)
		}
		sb.WriteString("\n" + itemHelp)
		b.reply(ctx, chatID, sb.String())
	}
	if len(items) > 0 {
		b.showForm(ctx, chatID, s)
	}
}

func (b *Bot) showLibrary(ctx context.Context, chatID, owner int64, query string) {
	items := b.Library.List(ctx, owner)
	if query != "" {
		items = b.Library.Search(ctx, owner, query)
	}
	b.replyKB(ctx, chatID, libraryText(items, query), libraryKeyboard(items))
}

func (b *Bot) pickLibrary(ctx context.Context, chatID, owner int64, s *estimate.Session, id int64) {
	picks, err := b.Library.Pick(ctx, owner, id)
	if err != nil {
		b.fail(ctx, chatID, "library pick", err)
		return
	}
	s.AddItems(library.ToItems(picks))
	b.reply(ctx, chatID, "➕ "+picks[0].Name+" добавлено в смету.")
}

func (b *Bot) exportLibrary(ctx context.Context, chatID, owner int64) {
	data, err := xlsx.Library(b.Library.List(ctx, owner))
	if err != nil {
		b.fail(ctx, chatID, "library export", err)
		return
	}
	if err := b.sendFile(ctx, chatID, "library.xlsx", data, "Справочник"); err != nil {
		b.fail(ctx, chatID, "library export", err)
	}
}

func (b *Bot) importLibrary(ctx context.Context, chatID, owner int64, data []byte) {
	rows, err := xlsx.ReadLibrary(data)
	if err != nil {
		b.fail(ctx, chatID, "library import", err)
		return
	}
	res, err := b.Library.Import(ctx, owner, rows)
	if err != nil {
		b.fail(ctx, chatID, "library import", err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("📥 Импорт завершён: добавлено %d, обновлено %d, пропущено %d.", res.Added, res.Updated, res.Skipped))
}

func (b *Bot) sendBackup(ctx context.Context, chatID, owner int64) {
	bundle, err := b.Backup.Export(ctx, owner)
	if err != nil {
		b.fail(ctx, chatID, "backup export", err)
		return
	}
	data, err := backup.Marshal(bundle)
	if err != nil {
		b.fail(ctx, chatID, "backup export", err)
		return
	}
	name := backup.FileName(b.Estimates.Now())
	if err := b.sendFile(ctx, chatID, name, data, "Резервная копия всех данных. Для восстановления: /restore"); err != nil {
		b.fail(ctx, chatID, "backup export", err)
	}
}

// restore replaces the user's data with the bundle after confirmation and
// reopens the session on the restored collection.
func (b *Bot) restore(ctx context.Context, chatID, owner int64, s *estimate.Session, data []byte) {
	bundle, err := backup.Parse(data)
	if err != nil {
		b.fail(ctx, chatID, "backup parse", err)
		return
	}
	bridge := &chatBridge{bot: b, chatID: chatID}
	ok, err := bridge.Confirm(ctx, "Восстановить данные из файла? Текущие сметы, проекты и справочник будут заменены.")
	if err != nil || !ok {
		b.reply(ctx, chatID, "Восстановление отменено.")
		return
	}
	if err := b.Backup.Restore(ctx, owner, bundle); err != nil {
		b.fail(ctx, chatID, "backup restore", err)
		return
	}
	s.Open(ctx)
	b.reply(ctx, chatID, "♻️ Данные восстановлены.")
	b.showForm(ctx, chatID, s)
}

func (b *Bot) showProjects(ctx context.Context, chatID, owner int64, query string) {
	list := b.Projects.Search(ctx, owner, "", query)
	b.replyKB(ctx, chatID, projectsText(list), projectsKeyboard(list))
}

func (b *Bot) showProject(ctx context.Context, chatID, owner, id int64, s *estimate.Session) {
	p, err := b.Projects.Get(ctx, owner, id)
	if err != nil {
		b.fail(ctx, chatID, "project", err)
		return
	}
	card := projectCard{
		Project:   p,
		Estimates: s.Collection().ForProject(id),
		Summary:   b.Finance.Summary(ctx, owner, id),
		Stages:    b.Stages.ForProject(ctx, owner, id),
		Notes:     b.Notes.ForProject(ctx, owner, id),
	}
	b.replyKB(ctx, chatID, projectText(card), projectKeyboard(p, b.Links))
}

// sendAct renders the certificate of completed works for a project.
func (b *Bot) sendAct(ctx context.Context, chatID, owner, projectID int64, number string) {
	err := b.renderAct(ctx, chatID, owner, projectID, number)
	b.Metrics.Export("act", err)
	if err != nil {
		b.fail(ctx, chatID, "act", err)
	}
}

func (b *Bot) renderAct(ctx context.Context, chatID, owner, projectID int64, number string) error {
	p, err := b.Projects.Get(ctx, owner, projectID)
	if err != nil {
		return err
	}
	date := b.Estimates.Now().Format(time.DateOnly)
	a, err := act.Build(p, b.Estimates.LoadAll(ctx, owner).Estimates, number, date)
	if err != nil {
		return err
	}
	if b.PDF == nil {
		return errors.New("pdf generator is not configured")
	}
	data, err := b.PDF.GenerateAct(a, b.Profile.Get(ctx, owner))
	if err != nil {
		return err
	}
	caption := fmt.Sprintf("Акт № %s на %s\n%s", a.Number, estimate.FormatMoney(a.Total), a.TotalInWords)
	return b.sendFile(ctx, chatID, pdf.ActFileName(a.Number), data, caption)
}

// addProject reads "Название; клиент; адрес".
func (b *Bot) addProject(ctx context.Context, chatID, owner int64, s *estimate.Session, text string) {
	fields := strings.Split(text, ";")
	p := projects.Project{Name: fields[0]}
	if len(fields) > 1 {
		p.Client = fields[1]
	}
	if len(fields) > 2 {
		p.Address = strings.Join(fields[2:], ";")
	}
	p, err := b.Projects.Save(ctx, owner, p)
	if err != nil {
		b.fail(ctx, chatID, "project save", err)
		return
	}
	b.reply(ctx, chatID, "📁 Проект «"+p.Name+"» создан.")
	b.showProject(ctx, chatID, owner, p.ID, s)
}

func (b *Bot) toggleProject(ctx context.Context, chatID, owner, id int64, s *estimate.Session) {
	p, err := b.Projects.Get(ctx, owner, id)
	if err != nil {
		b.fail(ctx, chatID, "project", err)
		return
	}
	next := projects.StatusCompleted
	if p.Status == projects.StatusCompleted {
		next = projects.StatusInProgress
	}
	if err := b.Projects.SetStatus(ctx, owner, id, next); err != nil {
		b.fail(ctx, chatID, "project status", err)
		return
	}
	b.showProject(ctx, chatID, owner, id, s)
}

// deleteProject removes the project with everything bound to it.
func (b *Bot) deleteProject(ctx context.Context, chatID, owner, id int64, s *estimate.Session) {
	p, err := b.Projects.Get(ctx, owner, id)
	if err != nil {
		b.fail(ctx, chatID, "project", err)
		return
	}
	bridge := &chatBridge{bot: b, chatID: chatID}
	ok, err := bridge.Confirm(ctx, "Удалить проект «"+p.Name+"» вместе с его сметами, финансами, фото и заметками?")
	if err != nil || !ok {
		return
	}
	if err := b.Projects.Delete(ctx, owner, id); err != nil {
		b.fail(ctx, chatID, "project delete", err)
		return
	}
	s.Refresh(ctx)
	b.reply(ctx, chatID, "🗑 Проект удалён.")
	b.showProjects(ctx, chatID, owner, "")
}

func (b *Bot) addNote(ctx context.Context, chatID, owner, projectID int64, s *estimate.Session, text string) {
	if _, err := b.Notes.Save(ctx, owner, projectID, 0, text); err != nil {
		b.fail(ctx, chatID, "note save", err)
		return
	}
	b.showProject(ctx, chatID, owner, projectID, s)
}

func (b *Bot) showTasks(ctx context.Context, chatID, owner int64, f tasks.Filter) {
	groups := b.Tasks.Filtered(ctx, owner, f)
	b.replyKB(ctx, chatID, tasksText(groups, f), tasksKeyboard(groups, f))
}

func (b *Bot) showScratch(ctx context.Context, chatID, owner int64) {
	items, err := b.Scratch.Items(ctx, owner)
	if err != nil {
		b.fail(ctx, chatID, "scratchpad", err)
		return
	}
	b.replyKB(ctx, chatID, scratchText(items), scratchKeyboard(items))
}

func (b *Bot) showTools(ctx context.Context, chatID, owner int64) {
	tools := b.Inventory.Tools(ctx, owner)
	b.replyKB(ctx, chatID, toolsText(tools), toolsKeyboard(tools))
}

func (b *Bot) moveTool(ctx context.Context, chatID, owner, id int64, to string) {
	t, err := b.Inventory.Move(ctx, owner, id, to, "")
	if err != nil {
		b.fail(ctx, chatID, "tool move", err)
		return
	}
	b.reply(ctx, chatID, "🚚 "+t.Name+" → "+t.Location)
	b.showTools(ctx, chatID, owner)
}

func (b *Bot) toggleTheme(ctx context.Context, chatID, owner int64) {
	t, err := b.Settings.ToggleTheme(ctx, owner)
	if err != nil {
		b.fail(ctx, chatID, "theme", err)
		return
	}
	name := "тёмная"
	if t == settings.ThemeLight {
		name = "светлая"
	}
	b.reply(ctx, chatID, "🎨 Тема приложения: "+name)
}

func (b *Bot) welcome(ctx context.Context, chatID int64) {
	text := "Привет! Я веду сметы для ремонта и строительства.\n\n" +
		"Отправьте позиции строками, и они попадут в текущую смету. " +
		"Кнопки внизу открывают сметы, шаблоны, справочник цен, проекты и задачи.\n\n/help — все команды"
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = mainMenu()
	_, _ = b.send(ctx, m)
}

const helpText = `Смета:
/new — новая смета
/items — добавить позиции
/client текст — клиент и объект
/number № — номер сметы
/discount 10% или 500₽ — скидка
/tax 20 — налог, %
/save — сохранить
/status — статус сметы
/delete — удалить смету
/shopping — список материалов
/act [№] — акт выполненных работ по проекту сметы

Выгрузка:
/pdf, /xlsx, /share — файл или текст
/email адрес — отправить PDF на почту
/suggest описание — подбор позиций через ИИ

Разделы:
/list — мои сметы
/template — сохранить как шаблон, /templates — шаблоны
/library [поиск] — справочник
/projects [название] — проекты
/tasks [today|week|overdue|completed] — задачи, /task текст — новая
/notes — блокнот, /note текст — запись
/tools [название] — инструмент
/backup, /restore — резервная копия
/theme — тема приложения
/cancel — отменить ввод`
