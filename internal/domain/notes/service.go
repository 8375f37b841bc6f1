// Package notes keeps free-form notes of a project.
package notes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

type Note struct {
	ID           int64  `json:"id"`
	ProjectID    int64  `json:"projectId"`
	Text         string `json:"text"`
	LastModified int64  `json:"lastModified"`
}

var (
	ErrNotFound = errors.New("notes: not found")
	ErrEmpty    = errors.New("notes: text is empty")
)

type Service struct {
	list *kv.List[Note]
	now  func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		list: kv.NewList(docs, kv.KeyNotes, func(n Note) int64 { return n.ID }),
		now:  time.Now,
	}
}

// Save creates a note (id zero) or rewrites the text of an existing one.
func (s *Service) Save(ctx context.Context, owner, projectID, id int64, text string) (Note, error) {
	if strings.TrimSpace(text) == "" {
		return Note{}, ErrEmpty
	}
	var out Note
	_, err := s.list.Update(ctx, owner, func(items []Note) ([]Note, error) {
		now := s.now().UnixMilli()
		if id == 0 {
			out = Note{ID: s.list.NextID(items, s.now()), ProjectID: projectID, Text: text, LastModified: now}
			return append([]Note{out}, items...), nil
		}
		for i := range items {
			if items[i].ID == id {
				items[i].Text = text
				items[i].LastModified = now
				out = items[i]
				return items, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Note{}, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	_, err := s.list.Remove(ctx, owner, id)
	return err
}

func (s *Service) ForProject(ctx context.Context, owner, projectID int64) []Note {
	out := []Note{}
	for _, n := range s.list.All(ctx, owner) {
		if n.ProjectID == projectID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Service) RemoveProject(ctx context.Context, owner, projectID int64) error {
	_, err := s.list.RemoveWhere(ctx, owner, func(n Note) bool { return n.ProjectID == projectID })
	return err
}

func (s *Service) All(ctx context.Context, owner int64) []Note { return s.list.All(ctx, owner) }

func (s *Service) Replace(ctx context.Context, owner int64, items []Note) error {
	return s.list.Set(ctx, owner, items)
}
