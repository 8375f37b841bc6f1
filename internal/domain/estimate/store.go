package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

var (
	ErrNotFound      = errors.New("estimate: not found")
	ErrNoValidItems  = errors.New("estimate: no valid items")
	ErrInvalidStatus = errors.New("estimate: unknown status")
)

// MigrationCounter is told how many records a load upgraded.
type MigrationCounter interface {
	EstimatesMigrated(n int)
}

// SaveCounter is told about every successful upsert.
type SaveCounter interface {
	EstimateSaved()
}

// Store is the durable estimate collection of every owner. Each mutation
// rereads the stored collection under the document lock, derives the next
// one and rewrites the whole document. On a failed write the next collection
// is still returned together with the error.
type Store struct {
	docs      *kv.Docs
	templates *kv.List[Template]
	log       *slog.Logger
	now       func() time.Time
	migrated  MigrationCounter
	saves     SaveCounter
}

func NewStore(docs *kv.Docs, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		docs:      docs,
		templates: kv.NewList(docs, kv.KeyTemplates, func(t Template) int64 { return t.LastModified }),
		log:       log,
		now:       time.Now,
	}
}

func (s *Store) CountMigrations(c MigrationCounter) { s.migrated = c }

func (s *Store) CountSaves(c SaveCounter) { s.saves = c }

// SetClock replaces time.Now; used by tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Now() time.Time { return s.now() }

type storedCollection struct {
	Estimates        []json.RawMessage `json:"estimates"`
	ActiveEstimateID *int64            `json:"activeEstimateId"`
}

// LoadAll reads the collection and upgrades legacy records, writing the
// upgraded collection back once. Unreadable data is logged and loads as empty.
func (s *Store) LoadAll(ctx context.Context, owner int64) Collection {
	unlock := s.docs.Lock(owner, kv.KeyEstimates)
	defer unlock()
	return s.load(ctx, owner)
}

// load is LoadAll for callers that already hold the document lock.
func (s *Store) load(ctx context.Context, owner int64) Collection {
	empty := Collection{Estimates: []Estimate{}}
	var stored storedCollection
	if !kv.Read(ctx, s.docs, owner, kv.KeyEstimates, &stored) {
		return empty
	}
	estimates, changed, err := Upgrade(stored.Estimates)
	if err != nil {
		s.log.Warn("estimates payload is malformed, starting empty", "owner", owner, "err", err)
		return empty
	}
	c := Collection{Estimates: estimates, ActiveEstimateID: stored.ActiveEstimateID}
	if changed {
		if s.migrated != nil {
			s.migrated.EstimatesMigrated(len(estimates))
		}
		if err := s.write(ctx, owner, c); err != nil {
			s.log.Error("rewrite of migrated estimates failed", "owner", owner, "err", err)
		} else {
			s.log.Info("estimates migrated", "owner", owner, "count", len(estimates))
		}
	}
	return c
}

func (s *Store) write(ctx context.Context, owner int64, c Collection) error {
	if c.Estimates == nil {
		c.Estimates = []Estimate{}
	}
	if err := kv.Write(ctx, s.docs, owner, kv.KeyEstimates, c); err != nil {
		return fmt.Errorf("estimate: persist: %w", err)
	}
	return nil
}

// update reads the stored collection, applies fn and writes the result while
// holding the document lock. When fn fails nothing is written and the stored
// collection is returned.
func (s *Store) update(ctx context.Context, owner int64, fn func(Collection) (Collection, error)) (Collection, error) {
	unlock := s.docs.Lock(owner, kv.KeyEstimates)
	defer unlock()

	cur := s.load(ctx, owner)
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	return next, s.write(ctx, owner, next)
}

// Upsert stamps e against the stored collection, replaces the estimate with
// the same id or prepends it, and makes it active. The stamped record is
// returned next to the collection.
func (s *Store) Upsert(ctx context.Context, owner int64, e Estimate) (Collection, Estimate, error) {
	next, err := s.update(ctx, owner, func(c Collection) (Collection, error) {
		e.ID, e.LastModified = Stamp(c, e.ID, s.now().UnixMilli())
		return upsert(c, e), nil
	})
	if err == nil && s.saves != nil {
		s.saves.EstimateSaved()
	}
	return next, e, err
}

func upsert(c Collection, e Estimate) Collection {
	next := make([]Estimate, 0, len(c.Estimates)+1)
	replaced := false
	for _, cur := range c.Estimates {
		if cur.ID == e.ID {
			next = append(next, e)
			replaced = true
			continue
		}
		next = append(next, cur)
	}
	if !replaced {
		next = append([]Estimate{e}, next...)
	}
	id := e.ID
	return Collection{Estimates: next, ActiveEstimateID: &id}
}

// Stamp picks the id and lastModified of a record about to be saved. A new
// record (id 0) gets its creation time, moved above every existing id.
// lastModified is the current time, moved above the stored value.
func Stamp(c Collection, id, now int64) (int64, int64) {
	lastModified := now
	if id == 0 {
		id = now
		for _, e := range c.Estimates {
			if e.ID >= id {
				id = e.ID + 1
			}
		}
		return id, lastModified
	}
	if prev, ok := c.Find(id); ok && prev.LastModified >= lastModified {
		lastModified = prev.LastModified + 1
	}
	return id, lastModified
}

// stampItems gives items without an id a timestamp id above every id in the list.
func stampItems(items []Item, now int64) {
	next := ItemID(now)
	for _, it := range items {
		if it.ID >= next {
			next = it.ID + 1
		}
	}
	for i := range items {
		if items[i].ID == 0 {
			items[i].ID = next
			next++
		}
	}
}

// Save is the stateless counterpart of Session.Save used by the API: the
// record comes complete from the client. Defaults are filled, identity is
// stamped and the record becomes active.
func (s *Store) Save(ctx context.Context, owner int64, e Estimate) (Collection, Estimate, error) {
	if e.Status == "" {
		e.Status = StatusDraft
	}
	if !e.Status.Valid() {
		return s.LoadAll(ctx, owner), Estimate{}, fmt.Errorf("%w %q", ErrInvalidStatus, e.Status)
	}
	if e.Items == nil {
		e.Items = []Item{}
	}
	e.Items = cloneItems(e.Items)
	for i := range e.Items {
		if e.Items[i].Type == "" {
			e.Items[i].Type = ItemWork
		}
	}
	if e.DiscountType != DiscountFixed {
		e.DiscountType = DiscountPercent
	}
	if e.Date == "" {
		e.Date = s.now().Format(time.DateOnly)
	}
	next, err := s.update(ctx, owner, func(c Collection) (Collection, error) {
		now := s.now().UnixMilli()
		e.ID, e.LastModified = Stamp(c, e.ID, now)
		stampItems(e.Items, now)
		if e.Number == "" {
			e.Number = NextNumber(c.Estimates)
		}
		return upsert(c, e), nil
	})
	if err == nil && s.saves != nil {
		s.saves.EstimateSaved()
	}
	return next, e, err
}

// Remove deletes an estimate. When it was the active one the replacement is
// the first estimate of the same project, else the first estimate, else none;
// the replacement is returned so the form can be repopulated.
func (s *Store) Remove(ctx context.Context, owner int64, id int64) (Collection, *Estimate, error) {
	var fallback *Estimate
	next, err := s.update(ctx, owner, func(c Collection) (Collection, error) {
		removed, ok := c.Find(id)
		if !ok {
			return c, ErrNotFound
		}
		rest := make([]Estimate, 0, len(c.Estimates))
		for _, e := range c.Estimates {
			if e.ID != id {
				rest = append(rest, e)
			}
		}
		out := Collection{Estimates: rest, ActiveEstimateID: c.ActiveEstimateID}
		if c.ActiveEstimateID != nil && *c.ActiveEstimateID == id {
			out.ActiveEstimateID = nil
			fallback = pickFallback(rest, removed.ProjectID)
			if fallback != nil {
				fid := fallback.ID
				out.ActiveEstimateID = &fid
			}
		}
		return out, nil
	})
	return next, fallback, err
}

func pickFallback(estimates []Estimate, projectID *int64) *Estimate {
	for i := range estimates {
		if sameProject(estimates[i].ProjectID, projectID) {
			e := estimates[i]
			return &e
		}
	}
	if len(estimates) > 0 {
		e := estimates[0]
		return &e
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, owner int64, id int64, status Status) (Collection, error) {
	if !status.Valid() {
		return s.LoadAll(ctx, owner), fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	return s.update(ctx, owner, func(c Collection) (Collection, error) {
		if _, ok := c.Find(id); !ok {
			return c, ErrNotFound
		}
		next := make([]Estimate, len(c.Estimates))
		for i, e := range c.Estimates {
			if e.ID == id {
				e.Status = status
			}
			next[i] = e
		}
		return Collection{Estimates: next, ActiveEstimateID: c.ActiveEstimateID}, nil
	})
}

// RemoveProject drops every estimate of a project. An active estimate among
// them leaves the collection without an active id.
func (s *Store) RemoveProject(ctx context.Context, owner int64, projectID int64) error {
	_, err := s.update(ctx, owner, func(c Collection) (Collection, error) {
		next := make([]Estimate, 0, len(c.Estimates))
		for _, e := range c.Estimates {
			if e.ProjectID != nil && *e.ProjectID == projectID {
				continue
			}
			next = append(next, e)
		}
		out := Collection{Estimates: next, ActiveEstimateID: c.ActiveEstimateID}
		if _, ok := out.Active(); !ok {
			out.ActiveEstimateID = nil
		}
		return out, nil
	})
	return err
}

// Replace writes a whole collection, used by restore.
func (s *Store) Replace(ctx context.Context, owner int64, c Collection) error {
	unlock := s.docs.Lock(owner, kv.KeyEstimates)
	defer unlock()
	return s.write(ctx, owner, c)
}

func (s *Store) Templates(ctx context.Context, owner int64) []Template {
	return s.templates.All(ctx, owner)
}

// SaveAsTemplate appends a template built from the stored estimate's items and modifiers.
func (s *Store) SaveAsTemplate(ctx context.Context, owner int64, id int64) (Template, error) {
	e, ok := s.LoadAll(ctx, owner).Find(id)
	if !ok {
		return Template{}, ErrNotFound
	}
	var t Template
	_, err := s.templates.Update(ctx, owner, func(list []Template) ([]Template, error) {
		t = Template{
			Items:        cloneItems(e.Items),
			Discount:     e.Discount,
			DiscountType: e.DiscountType,
			Tax:          e.Tax,
			LastModified: s.templates.NextID(list, s.now()),
		}
		return append(list, t), nil
	})
	if err != nil {
		return t, fmt.Errorf("estimate: persist template: %w", err)
	}
	return t, nil
}

func (s *Store) DeleteTemplate(ctx context.Context, owner int64, lastModified int64) ([]Template, error) {
	return s.templates.Remove(ctx, owner, lastModified)
}

func (s *Store) ReplaceTemplates(ctx context.Context, owner int64, list []Template) error {
	return s.templates.Set(ctx, owner, list)
}
