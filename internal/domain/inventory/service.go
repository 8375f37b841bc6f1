package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

var (
	ErrNotFound     = errors.New("inventory: tool not found")
	ErrNameRequired = errors.New("inventory: name is required")
	ErrSameLocation = errors.New("inventory: tool is already there")
	ErrEmptyNote    = errors.New("inventory: note is empty")
)

type Service struct {
	tools *kv.List[Tool]
	notes *kv.List[Note]
	now   func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		tools: kv.NewList(docs, kv.KeyInventoryItems, func(t Tool) int64 { return t.ID }),
		notes: kv.NewList(docs, kv.KeyInventoryNotes, func(n Note) int64 { return n.ID }),
		now:   time.Now,
	}
}

/* Инструменты */

func (s *Service) Tools(ctx context.Context, owner int64) []Tool { return s.tools.All(ctx, owner) }

func (s *Service) Tool(ctx context.Context, owner, id int64) (Tool, error) {
	t, ok := s.tools.Find(ctx, owner, id)
	if !ok {
		return Tool{}, ErrNotFound
	}
	return t, nil
}

func (s *Service) Add(ctx context.Context, owner int64, t Tool) (Tool, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return Tool{}, ErrNameRequired
	}
	t.Location = strings.TrimSpace(t.Location)
	if t.Location == "" {
		t.Location = DefaultLocation
	}
	if t.Condition == "" {
		t.Condition = ConditionGood
	}
	if t.MovementHistory == nil {
		t.MovementHistory = []Movement{}
	}
	_, err := s.tools.Update(ctx, owner, func(items []Tool) ([]Tool, error) {
		t.ID = s.tools.NextID(items, s.now())
		return append([]Tool{t}, items...), nil
	})
	if err != nil {
		return Tool{}, err
	}
	return t, nil
}

// Update rewrites name, photo and condition. Location changes go through Move.
func (s *Service) Update(ctx context.Context, owner int64, t Tool) (Tool, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return Tool{}, ErrNameRequired
	}
	var out Tool
	_, err := s.tools.Update(ctx, owner, func(items []Tool) ([]Tool, error) {
		for i := range items {
			if items[i].ID == t.ID {
				items[i].Name = t.Name
				items[i].Photo = t.Photo
				if t.Condition != "" {
					items[i].Condition = t.Condition
				}
				out = items[i]
				return items, nil
			}
		}
		return nil, ErrNotFound
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	_, err := s.tools.Remove(ctx, owner, id)
	return err
}

// Move переносит инструмент и дописывает запись в историю перемещений.
func (s *Service) Move(ctx context.Context, owner, id int64, to, notes string) (Tool, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		to = DefaultLocation
	}
	var out Tool
	_, err := s.tools.Update(ctx, owner, func(items []Tool) ([]Tool, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if items[i].Location == to {
				return nil, ErrSameLocation
			}
			items[i].MovementHistory = append(items[i].MovementHistory, Movement{
				Date:  s.now().UTC().Format(time.RFC3339),
				From:  items[i].Location,
				To:    to,
				Notes: strings.TrimSpace(notes),
			})
			items[i].Location = to
			out = items[i]
			return items, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Tool{}, err
	}
	return out, nil
}

// Locations returns distinct current locations, the base first.
func Locations(tools []Tool) []string {
	out := []string{DefaultLocation}
	seen := map[string]bool{DefaultLocation: true}
	for _, t := range tools {
		if !seen[t.Location] {
			seen[t.Location] = true
			out = append(out, t.Location)
		}
	}
	return out
}

func (s *Service) ReplaceTools(ctx context.Context, owner int64, items []Tool) error {
	return s.tools.Set(ctx, owner, items)
}

/* Заметки */

func (s *Service) Notes(ctx context.Context, owner int64) []Note { return s.notes.All(ctx, owner) }

func (s *Service) AddNote(ctx context.Context, owner int64, text string) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, ErrEmptyNote
	}
	n := Note{Text: text, Date: s.now().UTC().Format(time.RFC3339)}
	_, err := s.notes.Update(ctx, owner, func(items []Note) ([]Note, error) {
		n.ID = s.notes.NextID(items, s.now())
		return append([]Note{n}, items...), nil
	})
	return n, err
}

func (s *Service) DeleteNote(ctx context.Context, owner, id int64) error {
	_, err := s.notes.Remove(ctx, owner, id)
	return err
}

func (s *Service) ReplaceNotes(ctx context.Context, owner int64, items []Note) error {
	return s.notes.Set(ctx, owner, items)
}
