package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

var (
	ErrNotFound     = errors.New("projects: not found")
	ErrNameRequired = errors.New("projects: name is required")
)

// Cascade removes the records of one project from another collection.
type Cascade func(ctx context.Context, owner, projectID int64) error

type Service struct {
	list    *kv.List[Project]
	now     func() time.Time
	cascade []Cascade
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		list: kv.NewList(docs, kv.KeyProjects, func(p Project) int64 { return p.ID }),
		now:  time.Now,
	}
}

// OnDelete registers collections cleaned up when a project is deleted.
func (s *Service) OnDelete(c ...Cascade) { s.cascade = append(s.cascade, c...) }

func (s *Service) List(ctx context.Context, owner int64) []Project {
	return s.list.All(ctx, owner)
}

func (s *Service) Get(ctx context.Context, owner, id int64) (Project, error) {
	p, ok := s.list.Find(ctx, owner, id)
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

// Search filters by status (empty matches all) and a case-insensitive query
// over name, client and address.
func (s *Service) Search(ctx context.Context, owner int64, status Status, query string) []Project {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Project{}
	for _, p := range s.list.All(ctx, owner) {
		if status != "" && p.Status != status {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Client), q) ||
			strings.Contains(strings.ToLower(p.Address), q) {
			out = append(out, p)
		}
	}
	return out
}

// Save creates a project when ID is zero (prepended, in progress) or replaces an existing one.
func (s *Service) Save(ctx context.Context, owner int64, p Project) (Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Client = strings.TrimSpace(p.Client)
	p.Address = strings.TrimSpace(p.Address)
	if p.Name == "" {
		return Project{}, ErrNameRequired
	}
	_, err := s.list.Update(ctx, owner, func(items []Project) ([]Project, error) {
		if p.ID == 0 {
			p.ID = s.list.NextID(items, s.now())
			p.Status = StatusInProgress
			return append([]Project{p}, items...), nil
		}
		for i := range items {
			if items[i].ID == p.ID {
				if p.Status == "" {
					p.Status = items[i].Status
				}
				items[i] = p
				return items, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *Service) SetStatus(ctx context.Context, owner, id int64, status Status) error {
	p, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	p.Status = status
	_, err = s.Save(ctx, owner, p)
	return err
}

// Delete removes the project and then every record that belongs to it.
// Cleanup continues past a failing collection; the errors are joined.
func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if _, err := s.list.Remove(ctx, owner, id); err != nil {
		return fmt.Errorf("projects: delete: %w", err)
	}
	var errs []error
	for _, c := range s.cascade {
		if err := c(ctx, owner, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) Replace(ctx context.Context, owner int64, items []Project) error {
	return s.list.Set(ctx, owner, items)
}
