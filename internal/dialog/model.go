package dialog

// Overlay is the single thing a chat is waiting for. Only one overlay is open
// at a time; opening another replaces it.
type Overlay string

const (
	OverlayNone Overlay = "none"

	// Смета
	OverlayItemAdd   Overlay = "item_add"  // ввод строки позиции
	OverlayItemEdit  Overlay = "item_edit" // payload: item_id
	OverlayClient    Overlay = "client"
	OverlayNumber    Overlay = "number"
	OverlayDiscount  Overlay = "discount"
	OverlayTax       Overlay = "tax"
	OverlaySuggest   Overlay = "suggest"    // описание работ для ИИ
	OverlayEmail     Overlay = "email"      // адрес для отправки PDF
	OverlayItemImage Overlay = "item_image" // payload: item_id, ждём фото

	// Файлы
	OverlayRestoreFile Overlay = "restore_file" // ожидание JSON-бэкапа
	OverlayLibraryFile Overlay = "library_file" // ожидание Excel со справочником

	// Прочие разделы
	OverlayLibraryAdd  Overlay = "library_add"
	OverlayProjectName Overlay = "project_name"
	OverlayTaskText    Overlay = "task_text"
	OverlayNoteText    Overlay = "note_text" // payload: project_id
	OverlayScratchpad  Overlay = "scratchpad"
	OverlayToolName    Overlay = "tool_name"
	OverlayToolMove    Overlay = "tool_move" // payload: tool_id
)

// AwaitsText reports whether the overlay consumes the next plain message.
func (o Overlay) AwaitsText() bool {
	switch o {
	case OverlayNone, OverlayRestoreFile, OverlayLibraryFile, OverlayItemImage:
		return false
	}
	return o != ""
}

// AwaitsFile reports whether the overlay consumes the next uploaded document.
func (o Overlay) AwaitsFile() bool {
	return o == OverlayRestoreFile || o == OverlayLibraryFile || o == OverlayItemImage
}

type Payload map[string]any

type Item struct {
	ChatID  int64   `json:"-"`
	Overlay Overlay `json:"overlay"`
	Payload Payload `json:"payload"`
}
