package bot

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/smeta-bot/internal/dialog"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/library"
	"github.com/Spok95/smeta-bot/internal/infra/dataurl"
)

// Максимальный размер загружаемого файла.
const maxUpload = 20 << 20

// onText routes a plain message: a menu button, the open overlay, or new
// items for the current estimate.
func (b *Bot) onText(ctx context.Context, msg *tgbotapi.Message) {
	chatID, owner := msg.Chat.ID, msg.From.ID
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if cmd, ok := menuCommands[text]; ok {
		b.runCommand(ctx, chatID, owner, cmd, "")
		return
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.fail(ctx, chatID, "get dialog", err)
		return
	}
	s := b.session(ctx, chatID, owner)
	if !st.Overlay.AwaitsText() {
		if st.Overlay.AwaitsFile() {
			b.reply(ctx, chatID, "Жду файл. /cancel — отмена.")
			return
		}
		b.addItems(ctx, chatID, s, text)
		return
	}

	// оверлей закрывается, только если ввод принят
	done := true
	switch st.Overlay {
	case dialog.OverlayItemAdd:
		b.addItems(ctx, chatID, s, text)
	case dialog.OverlayItemEdit:
		done = b.editItem(ctx, chatID, s, st.Payload, text)
	case dialog.OverlayClient:
		s.SetClientInfo(text)
		b.showForm(ctx, chatID, s)
	case dialog.OverlayNumber:
		s.SetNumber(text)
		b.showForm(ctx, chatID, s)
	case dialog.OverlayDiscount:
		done = b.setDiscount(ctx, chatID, s, text)
	case dialog.OverlayTax:
		done = b.setTax(ctx, chatID, s, text)
	case dialog.OverlaySuggest:
		b.closeOverlay(ctx, chatID)
		b.suggest(ctx, chatID, s, text)
		return
	case dialog.OverlayEmail:
		b.closeOverlay(ctx, chatID)
		b.export(ctx, chatID, owner, s, "email", text)
		return
	case dialog.OverlayLibraryAdd:
		done = b.addLibraryItem(ctx, chatID, owner, text)
	case dialog.OverlayProjectName:
		b.addProject(ctx, chatID, owner, s, text)
	case dialog.OverlayTaskText:
		b.addTask(ctx, chatID, owner, text)
	case dialog.OverlayNoteText:
		pid, ok := dialog.GetInt64(st.Payload, "project_id")
		if ok {
			b.addNote(ctx, chatID, owner, pid, s, text)
		}
	case dialog.OverlayScratchpad:
		b.addScratch(ctx, chatID, owner, text)
	case dialog.OverlayToolName:
		b.addTool(ctx, chatID, owner, text)
	case dialog.OverlayToolMove:
		if id, ok := dialog.GetInt64(st.Payload, "tool_id"); ok {
			b.moveTool(ctx, chatID, owner, id, text)
		}
	}
	if done {
		b.closeOverlay(ctx, chatID)
	}
}

func (b *Bot) editItem(ctx context.Context, chatID int64, s *estimate.Session, p dialog.Payload, text string) bool {
	raw, ok := dialog.GetInt64(p, "item_id")
	if !ok {
		return true
	}
	parsed, err := parseItemLine(text)
	if err != nil {
		b.reply(ctx, chatID, "Не понял позицию: "+err.Error()+"\n\n"+itemHelp)
		return false
	}
	found := s.EditItem(estimate.ItemID(raw), func(it *estimate.Item) {
		it.Name, it.Quantity, it.Unit, it.Price, it.Type = parsed.Name, parsed.Quantity, parsed.Unit, parsed.Price, parsed.Type
	})
	if !found {
		b.reply(ctx, chatID, "Позиция уже удалена.")
		return true
	}
	b.showForm(ctx, chatID, s)
	return true
}

func (b *Bot) addLibraryItem(ctx context.Context, chatID, owner int64, text string) bool {
	name, price, unit, err := parseLibraryLine(text)
	if err != nil {
		b.reply(ctx, chatID, "Не понял позицию: "+err.Error())
		return false
	}
	if _, err := b.Library.Add(ctx, owner, library.Item{Name: name, Price: price, Unit: unit}); err != nil {
		b.fail(ctx, chatID, "library add", err)
		return false
	}
	b.showLibrary(ctx, chatID, owner, "")
	return true
}

// onFile handles uploads: a backup to restore, a price list to import, or a
// photo for an item. A photo captioned with an item's number goes to that item.
func (b *Bot) onFile(ctx context.Context, msg *tgbotapi.Message) {
	chatID, owner := msg.Chat.ID, msg.From.ID
	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.fail(ctx, chatID, "get dialog", err)
		return
	}
	s := b.session(ctx, chatID, owner)

	fileID, size := "", 0
	switch {
	case msg.Document != nil:
		fileID, size = msg.Document.FileID, msg.Document.FileSize
	case len(msg.Photo) > 0:
		// последний размер самый крупный
		ph := msg.Photo[len(msg.Photo)-1]
		fileID, size = ph.FileID, ph.FileSize
	}
	if size > maxUpload {
		b.reply(ctx, chatID, "Файл слишком большой.")
		return
	}

	target, hasTarget := b.imageTarget(st, s, msg.Caption)
	if !st.Overlay.AwaitsFile() && !hasTarget {
		b.reply(ctx, chatID, "Не знаю, что делать с файлом. Для восстановления копии сначала /restore, для справочника нажмите «Импорт».")
		return
	}

	data, err := b.downloadTelegramFile(ctx, fileID)
	if err != nil {
		b.fail(ctx, chatID, "download file", err)
		return
	}

	switch {
	case st.Overlay == dialog.OverlayRestoreFile:
		b.closeOverlay(ctx, chatID)
		b.restore(ctx, chatID, owner, s, data)
	case st.Overlay == dialog.OverlayLibraryFile:
		b.closeOverlay(ctx, chatID)
		b.importLibrary(ctx, chatID, owner, data)
	default:
		mime := http.DetectContentType(data)
		if !dataurl.IsImage(mime) {
			b.reply(ctx, chatID, "Нужна картинка PNG или JPEG.")
			return
		}
		b.closeOverlay(ctx, chatID)
		s.SetItemImage(target, dataurl.Encode(mime, data))
		b.reply(ctx, chatID, "🖼 Фото добавлено к позиции.")
		b.showForm(ctx, chatID, s)
	}
}

// imageTarget finds the item a photo belongs to: the one the overlay waits
// for, else the item whose 1-based number is the caption.
func (b *Bot) imageTarget(st *dialog.Item, s *estimate.Session, caption string) (estimate.ItemID, bool) {
	if st.Overlay == dialog.OverlayItemImage {
		id, ok := dialog.GetInt64(st.Payload, "item_id")
		return estimate.ItemID(id), ok
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(caption), "#")))
	if err != nil {
		return 0, false
	}
	items := s.Snapshot().Items
	if n < 1 || n > len(items) {
		return 0, false
	}
	return items[n-1].ID, true
}
