// Package stages tracks the work stages of a project.
package stages

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Stage struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"projectId"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    Status `json:"status"`
}

var (
	ErrNotFound     = errors.New("stages: not found")
	ErrNameRequired = errors.New("stages: name is required")
)

type Service struct {
	list *kv.List[Stage]
	now  func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		list: kv.NewList(docs, kv.KeyWorkStages, func(s Stage) int64 { return s.ID }),
		now:  time.Now,
	}
}

// Save creates the stage when ID is zero, otherwise updates it in place.
func (s *Service) Save(ctx context.Context, owner, projectID int64, st Stage) (Stage, error) {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return Stage{}, ErrNameRequired
	}
	if st.Status == "" {
		st.Status = StatusNotStarted
	}
	st.ProjectID = projectID
	_, err := s.list.Update(ctx, owner, func(items []Stage) ([]Stage, error) {
		if st.ID == 0 {
			st.ID = s.list.NextID(items, s.now())
			return append([]Stage{st}, items...), nil
		}
		for i := range items {
			if items[i].ID == st.ID {
				items[i] = st
				return items, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Stage{}, err
	}
	return st, nil
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	_, err := s.list.Remove(ctx, owner, id)
	return err
}

func (s *Service) ForProject(ctx context.Context, owner, projectID int64) []Stage {
	out := []Stage{}
	for _, st := range s.list.All(ctx, owner) {
		if st.ProjectID == projectID {
			out = append(out, st)
		}
	}
	return out
}

// Progress is the share of completed stages, 0..1.
func Progress(stages []Stage) float64 {
	if len(stages) == 0 {
		return 0
	}
	done := 0
	for _, st := range stages {
		if st.Status == StatusCompleted {
			done++
		}
	}
	return float64(done) / float64(len(stages))
}

func (s *Service) RemoveProject(ctx context.Context, owner, projectID int64) error {
	_, err := s.list.RemoveWhere(ctx, owner, func(st Stage) bool { return st.ProjectID == projectID })
	return err
}

func (s *Service) All(ctx context.Context, owner int64) []Stage { return s.list.All(ctx, owner) }

func (s *Service) Replace(ctx context.Context, owner int64, items []Stage) error {
	return s.list.Set(ctx, owner, items)
}
