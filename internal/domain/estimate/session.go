package estimate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/smeta-bot/internal/host"
)

// Confirmation prompts shown before unsaved changes are dropped.
const (
	PromptNew          = "У вас есть несохраненные изменения. Вы уверены, что хотите создать новую смету?"
	PromptLoad         = "У вас есть несохраненные изменения. Загрузить другую смету?"
	PromptDelete       = "Вы уверены, что хотите удалить эту смету?"
	PromptDeleteTpl    = "Вы уверены, что хотите удалить этот шаблон?"
	PromptLeave        = "У вас есть несохраненные изменения. Уйти без сохранения?"
	alertSaveFailed    = "Не удалось сохранить смету. Проверьте хранилище и попробуйте ещё раз."
	alertDeleteFailed  = "Не удалось удалить смету."
	alertStatusFailed  = "Не удалось изменить статус."
	alertTemplateSaved = "Шаблон сохранен!"
)

// Form is the estimate being edited.
type Form struct {
	ActiveID     *int64       `json:"activeEstimateId"`
	ProjectID    *int64       `json:"projectId"`
	Items        []Item       `json:"items"`
	ClientInfo   string       `json:"clientInfo"`
	Number       string       `json:"number"`
	Date         string       `json:"date"`
	Status       Status       `json:"status"`
	Discount     float64      `json:"discount"`
	DiscountType DiscountType `json:"discountType"`
	Tax          float64      `json:"tax"`
	Dirty        bool         `json:"isDirty"`
}

// Session is one owner's editing session: the loaded collection plus the
// form. It is not safe for concurrent use; callers serialize per owner.
type Session struct {
	owner  int64
	store  *Store
	host   host.Bridge
	log    *slog.Logger
	col    Collection
	form   Form
	lastID int64
}

func NewSession(owner int64, store *Store, bridge host.Bridge, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		owner: owner,
		store: store,
		host:  bridge,
		log:   log.With("owner", owner),
		col:   Collection{Estimates: []Estimate{}},
	}
}

// Open loads the collection and populates the form from the saved active
// estimate, else the first one, else a blank estimate.
func (s *Session) Open(ctx context.Context) {
	s.col = s.store.LoadAll(ctx, s.owner)
	active, ok := s.col.Active()
	if !ok && len(s.col.Estimates) > 0 {
		active, ok = s.col.Estimates[0], true
	}
	if ok {
		s.Populate(&active, s.col.Estimates, nil)
		return
	}
	s.Populate(nil, s.col.Estimates, nil)
}

// Refresh rereads the collection written by other surfaces. A clean form
// follows its stored record, or the fallback when that record is gone; a
// dirty form and a blank new one are kept as they are.
func (s *Session) Refresh(ctx context.Context) {
	active := s.col.ActiveEstimateID
	s.col = s.store.LoadAll(ctx, s.owner)
	s.col.ActiveEstimateID = active
	if s.form.Dirty || active == nil {
		return
	}
	if e, ok := s.col.Find(*active); ok {
		s.Populate(&e, s.col.Estimates, nil)
		return
	}
	s.Populate(pickFallback(s.col.Estimates, s.form.ProjectID), s.col.Estimates, nil)
}

func (s *Session) now() time.Time { return s.store.Now() }

func (s *Session) today() string { return s.now().Format(time.DateOnly) }

// Populate loads the estimate into the form, or a blank estimate when e is
// nil. projectID applies to blank estimates only. Dirty is cleared last.
func (s *Session) Populate(e *Estimate, existing []Estimate, projectID *int64) {
	if e == nil {
		s.form = Form{
			ProjectID:    projectID,
			Items:        []Item{{ID: s.nextItemID(), Quantity: 1, Type: ItemWork}},
			Number:       NextNumber(existing),
			Date:         s.today(),
			Status:       StatusDraft,
			DiscountType: DiscountPercent,
		}
		s.col.ActiveEstimateID = nil
	} else {
		s.form = Form{
			ProjectID:    e.ProjectID,
			Items:        cloneItems(e.Items),
			ClientInfo:   e.ClientInfo,
			Number:       e.Number,
			Date:         e.Date,
			Status:       e.Status,
			Discount:     e.Discount,
			DiscountType: e.DiscountType,
			Tax:          e.Tax,
		}
		if s.form.Number == "" {
			s.form.Number = NextNumber(existing)
		}
		if s.form.Date == "" {
			s.form.Date = s.today()
		}
		if s.form.Status == "" {
			s.form.Status = StatusDraft
		}
		if s.form.DiscountType == "" {
			s.form.DiscountType = DiscountPercent
		}
		id := e.ID
		s.col.ActiveEstimateID = &id
	}
	s.form.Dirty = false
}

// Snapshot returns a copy of the form with the current active id.
func (s *Session) Snapshot() Form {
	f := s.form
	f.Items = cloneItems(s.form.Items)
	f.ActiveID = s.col.ActiveEstimateID
	return f
}

func (s *Session) Collection() Collection { return s.col }

func (s *Session) Dirty() bool { return s.form.Dirty }

// Totals is the calculation of the form, over all items.
func (s *Session) Totals() Calculation {
	return Compute(s.form.Items, s.form.Discount, s.form.DiscountType, s.form.Tax)
}

// Document prepares the form for export.
func (s *Session) Document() (Document, error) {
	return NewDocument(s.estimate(0, 0))
}

func (s *Session) estimate(id, lastModified int64) Estimate {
	return Estimate{
		ID:           id,
		Items:        cloneItems(s.form.Items),
		ClientInfo:   s.form.ClientInfo,
		Number:       s.form.Number,
		Date:         s.form.Date,
		Status:       s.form.Status,
		Discount:     s.form.Discount,
		DiscountType: s.form.DiscountType,
		Tax:          s.form.Tax,
		ProjectID:    s.form.ProjectID,
		LastModified: lastModified,
	}
}

// nextItemID hands out timestamp ids that never repeat within the session.
func (s *Session) nextItemID() ItemID {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return ItemID(id)
}

func (s *Session) touch() { s.form.Dirty = true }

// AddItem appends a blank work item.
func (s *Session) AddItem() Item {
	it := Item{ID: s.nextItemID(), Quantity: 1, Type: ItemWork}
	s.form.Items = append(s.form.Items, it)
	s.touch()
	return it
}

// AddItems appends drafts (AI suggestions, library picks) with fresh ids.
// Drafts without a type become work items.
func (s *Session) AddItems(drafts []Item) []Item {
	added := make([]Item, 0, len(drafts))
	for _, d := range drafts {
		d.ID = s.nextItemID()
		if d.Type == "" {
			d.Type = ItemWork
		}
		added = append(added, d)
	}
	if len(added) == 0 {
		return added
	}
	s.form.Items = append(s.form.Items, added...)
	s.touch()
	return added
}

func (s *Session) indexOf(id ItemID) int {
	for i, it := range s.form.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) RemoveItem(id ItemID) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.form.Items = append(s.form.Items[:i], s.form.Items[i+1:]...)
	s.touch()
	return true
}

// EditItem applies fn to the item. Values are not validated here.
func (s *Session) EditItem(id ItemID, fn func(*Item)) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	fn(&s.form.Items[i])
	s.form.Items[i].ID = id
	s.touch()
	return true
}

// MoveItem moves the item at position from to position to.
func (s *Session) MoveItem(from, to int) bool {
	n := len(s.form.Items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	it := s.form.Items[from]
	items := append(s.form.Items[:from:from], s.form.Items[from+1:]...)
	items = append(items[:to], append([]Item{it}, items[to:]...)...)
	s.form.Items = items
	s.touch()
	return true
}

func (s *Session) SetItemImage(id ItemID, dataURL string) bool {
	return s.EditItem(id, func(it *Item) { it.Image = &dataURL })
}

func (s *Session) ClearItemImage(id ItemID) bool {
	return s.EditItem(id, func(it *Item) { it.Image = nil })
}

func (s *Session) SetClientInfo(v string) { s.form.ClientInfo = v; s.touch() }
func (s *Session) SetNumber(v string)     { s.form.Number = v; s.touch() }
func (s *Session) SetDate(v string)       { s.form.Date = v; s.touch() }
func (s *Session) SetTax(v float64)       { s.form.Tax = v; s.touch() }
func (s *Session) SetProject(id *int64)   { s.form.ProjectID = id; s.touch() }

func (s *Session) SetDiscount(v float64, t DiscountType) {
	s.form.Discount = v
	s.form.DiscountType = t
	s.touch()
}

// Save persists the form. It is a no-op returning false when nothing changed.
// The record is merged into the stored collection, so estimates written by
// other surfaces since the last read survive. On a failed write the user is
// alerted, the in-memory collection keeps the new record and the form stays
// dirty so a later Save can retry.
func (s *Session) Save(ctx context.Context) (bool, error) {
	if !s.form.Dirty {
		return false, nil
	}
	var id int64
	if s.col.ActiveEstimateID != nil {
		id = *s.col.ActiveEstimateID
	}

	next, saved, err := s.store.Upsert(ctx, s.owner, s.estimate(id, 0))
	s.col = next
	if err != nil {
		s.log.Error("save estimate failed", "estimate_id", saved.ID, "err", err)
		s.host.Alert(ctx, alertSaveFailed)
		return false, err
	}
	s.form.Dirty = false
	s.host.Haptic(ctx, host.HapticSuccess)
	return true, nil
}

// DiscardOrConfirm runs action at once when the form is clean. Otherwise it
// waits for the user's answer and runs action only after a yes.
func (s *Session) DiscardOrConfirm(ctx context.Context, prompt string, action func()) (bool, error) {
	if s.form.Dirty {
		ok, err := s.host.Confirm(ctx, prompt)
		if err != nil {
			return false, fmt.Errorf("estimate: confirm: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	action()
	return true, nil
}

// New starts a blank estimate, optionally bound to a project.
func (s *Session) New(ctx context.Context, projectID *int64) (bool, error) {
	return s.DiscardOrConfirm(ctx, PromptNew, func() {
		s.Populate(nil, s.col.Estimates, projectID)
	})
}

func (s *Session) Load(ctx context.Context, id int64) (bool, error) {
	e, ok := s.col.Find(id)
	if !ok {
		return false, ErrNotFound
	}
	return s.DiscardOrConfirm(ctx, PromptLoad, func() {
		s.Populate(&e, s.col.Estimates, nil)
	})
}

// NewFromTemplate starts a new estimate from a template's items and modifiers.
// The result is marked dirty so it can be saved right away.
func (s *Session) NewFromTemplate(ctx context.Context, lastModified int64) (bool, error) {
	var tpl *Template
	for _, t := range s.store.Templates(ctx, s.owner) {
		if t.LastModified == lastModified {
			t := t
			tpl = &t
			break
		}
	}
	if tpl == nil {
		return false, ErrNotFound
	}
	return s.DiscardOrConfirm(ctx, PromptNew, func() {
		s.Populate(nil, s.col.Estimates, nil)
		s.form.Items = nil
		s.AddItems(cloneItems(tpl.Items))
		s.form.Discount = tpl.Discount
		s.form.DiscountType = tpl.DiscountType
		if s.form.DiscountType == "" {
			s.form.DiscountType = DiscountPercent
		}
		s.form.Tax = tpl.Tax
		s.touch()
	})
}

// Delete removes an estimate after confirmation. Deleting the active one
// repopulates the form with the fallback estimate or a blank one.
func (s *Session) Delete(ctx context.Context, id int64) (bool, error) {
	removed, ok := s.col.Find(id)
	if !ok {
		return false, ErrNotFound
	}
	ok, err := s.host.Confirm(ctx, PromptDelete)
	if err != nil {
		return false, fmt.Errorf("estimate: confirm: %w", err)
	}
	if !ok {
		return false, nil
	}
	s.host.Haptic(ctx, host.HapticWarning)

	active := s.col.ActiveEstimateID
	wasActive := active != nil && *active == id
	next, _, err := s.store.Remove(ctx, s.owner, id)
	if errors.Is(err, ErrNotFound) {
		// already removed elsewhere
		err = nil
	}
	s.col = next
	s.col.ActiveEstimateID = active
	if wasActive {
		s.Populate(pickFallback(next.Estimates, removed.ProjectID), next.Estimates, nil)
	}
	if err != nil {
		s.log.Error("delete estimate failed", "estimate_id", id, "err", err)
		s.host.Alert(ctx, alertDeleteFailed)
		return true, err
	}
	return true, nil
}

// SetStatus changes a saved estimate's status; the form follows when it is the active one.
func (s *Session) SetStatus(ctx context.Context, id int64, status Status) error {
	next, err := s.store.SetStatus(ctx, s.owner, id, status)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidStatus) {
		return err
	}
	active := s.col.ActiveEstimateID
	s.col = next
	s.col.ActiveEstimateID = active
	if active != nil && *active == id {
		s.form.Status = status
	}
	if err != nil {
		s.host.Alert(ctx, alertStatusFailed)
		return err
	}
	return nil
}

func (s *Session) SaveAsTemplate(ctx context.Context, id int64) (Template, error) {
	t, err := s.store.SaveAsTemplate(ctx, s.owner, id)
	if err != nil {
		return t, err
	}
	s.host.Alert(ctx, alertTemplateSaved)
	s.host.Haptic(ctx, host.HapticSuccess)
	return t, nil
}

func (s *Session) DeleteTemplate(ctx context.Context, lastModified int64) (bool, error) {
	ok, err := s.host.Confirm(ctx, PromptDeleteTpl)
	if err != nil || !ok {
		return false, err
	}
	if _, err := s.store.DeleteTemplate(ctx, s.owner, lastModified); err != nil {
		return true, err
	}
	return true, nil
}
