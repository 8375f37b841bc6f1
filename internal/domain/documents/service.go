// Package documents keeps uploaded files: per project and global ones.
package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

var ErrInvalid = errors.New("documents: name and file are required")

type Document struct {
	ID        int64  `json:"id"`
	ProjectID *int64 `json:"projectId,omitempty"`
	Name      string `json:"name"`
	DataURL   string `json:"dataUrl"`
	Date      string `json:"date"`
}

type Service struct {
	project *kv.List[Document]
	global  *kv.List[Document]
	now     func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	id := func(d Document) int64 { return d.ID }
	return &Service{
		project: kv.NewList(docs, kv.KeyProjectDocuments, id),
		global:  kv.NewList(docs, kv.KeyGlobalDocuments, id),
		now:     time.Now,
	}
}

func (s *Service) add(ctx context.Context, l *kv.List[Document], owner int64, d Document) (Document, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" || d.DataURL == "" {
		return Document{}, ErrInvalid
	}
	d.Date = s.now().UTC().Format(time.RFC3339)
	_, err := l.Update(ctx, owner, func(items []Document) ([]Document, error) {
		d.ID = l.NextID(items, s.now())
		return append([]Document{d}, items...), nil
	})
	return d, err
}

func (s *Service) AddToProject(ctx context.Context, owner, projectID int64, name, dataURL string) (Document, error) {
	return s.add(ctx, s.project, owner, Document{ProjectID: &projectID, Name: name, DataURL: dataURL})
}

func (s *Service) AddGlobal(ctx context.Context, owner int64, name, dataURL string) (Document, error) {
	return s.add(ctx, s.global, owner, Document{Name: name, DataURL: dataURL})
}

func (s *Service) ForProject(ctx context.Context, owner, projectID int64) []Document {
	out := []Document{}
	for _, d := range s.project.All(ctx, owner) {
		if d.ProjectID != nil && *d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out
}

func (s *Service) Global(ctx context.Context, owner int64) []Document {
	return s.global.All(ctx, owner)
}

func (s *Service) DeleteProjectDocument(ctx context.Context, owner, id int64) error {
	_, err := s.project.Remove(ctx, owner, id)
	return err
}

func (s *Service) DeleteGlobal(ctx context.Context, owner, id int64) error {
	_, err := s.global.Remove(ctx, owner, id)
	return err
}

func (s *Service) RemoveProject(ctx context.Context, owner, projectID int64) error {
	_, err := s.project.RemoveWhere(ctx, owner, func(d Document) bool {
		return d.ProjectID != nil && *d.ProjectID == projectID
	})
	return err
}

func (s *Service) AllProject(ctx context.Context, owner int64) []Document {
	return s.project.All(ctx, owner)
}

func (s *Service) ReplaceProject(ctx context.Context, owner int64, items []Document) error {
	return s.project.Set(ctx, owner, items)
}

func (s *Service) ReplaceGlobal(ctx context.Context, owner int64, items []Document) error {
	return s.global.Set(ctx, owner, items)
}
