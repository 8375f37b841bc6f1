// Package scratchpad is a quick checklist. Older data kept it as one plain
// text blob; such data is turned into a single unchecked item on first read.
package scratchpad

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

type Item struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

var (
	ErrNotFound  = errors.New("scratchpad: item not found")
	ErrEmptyText = errors.New("scratchpad: text is empty")
)

type Service struct {
	docs *kv.Docs
	list *kv.List[Item]
	now  func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		docs: docs,
		list: kv.NewList(docs, kv.KeyScratchpad, func(i Item) int64 { return i.ID }),
		now:  time.Now,
	}
}

// legacy decodes a non-array document: a JSON string or raw text.
func legacy(raw []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || strings.HasPrefix(trimmed, "[") {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	if json.Valid(raw) {
		// число, объект и т.п.: не наш формат
		return "", false
	}
	return trimmed, true
}

func (s *Service) migrate(ctx context.Context, owner int64) error {
	unlock := s.docs.Lock(owner, kv.KeyScratchpad)
	defer unlock()

	raw, ok := s.docs.Raw(ctx, owner, kv.KeyScratchpad)
	if !ok {
		return nil
	}
	text, ok := legacy(raw)
	if !ok {
		return nil
	}
	return kv.Write(ctx, s.docs, owner, kv.KeyScratchpad, []Item{{ID: s.now().UnixMilli(), Text: text}})
}

func (s *Service) Items(ctx context.Context, owner int64) ([]Item, error) {
	if err := s.migrate(ctx, owner); err != nil {
		return nil, err
	}
	return s.list.All(ctx, owner), nil
}

// Add appends: the checklist keeps insertion order.
func (s *Service) Add(ctx context.Context, owner int64, text string) (Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}, ErrEmptyText
	}
	if err := s.migrate(ctx, owner); err != nil {
		return Item{}, err
	}
	it := Item{Text: text}
	_, err := s.list.Update(ctx, owner, func(items []Item) ([]Item, error) {
		it.ID = s.list.NextID(items, s.now())
		return append(items, it), nil
	})
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) Toggle(ctx context.Context, owner, id int64) (Item, error) {
	if err := s.migrate(ctx, owner); err != nil {
		return Item{}, err
	}
	var out Item
	_, err := s.list.Update(ctx, owner, func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].Completed = !items[i].Completed
				out = items[i]
				return items, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Item{}, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	if err := s.migrate(ctx, owner); err != nil {
		return err
	}
	_, err := s.list.Remove(ctx, owner, id)
	return err
}

func (s *Service) Replace(ctx context.Context, owner int64, items []Item) error {
	return s.list.Set(ctx, owner, items)
}
