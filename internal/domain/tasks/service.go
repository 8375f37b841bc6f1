package tasks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

var (
	ErrNotFound  = errors.New("tasks: not found")
	ErrEmptyText = errors.New("tasks: text is empty")
)

type Service struct {
	list *kv.List[Task]
	now  func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		list: kv.NewList(docs, kv.KeyTasks, func(t Task) int64 { return t.ID }),
		now:  time.Now,
	}
}

func (s *Service) Today() time.Time { return day(s.now()) }

func (s *Service) List(ctx context.Context, owner int64) []Task { return s.list.All(ctx, owner) }

func (s *Service) Get(ctx context.Context, owner, id int64) (Task, error) {
	t, ok := s.list.Find(ctx, owner, id)
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

// Add создаёт задачу на сегодня с приоритетом по умолчанию.
func (s *Service) Add(ctx context.Context, owner int64, text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	t := Task{Text: text, DueDate: s.now().Format(dateLayout), Priority: PriorityMedium}
	_, err := s.list.Update(ctx, owner, func(items []Task) ([]Task, error) {
		t.ID = s.list.NextID(items, s.now())
		return append([]Task{t}, items...), nil
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// Save replaces the task with the same id or prepends it as new.
func (s *Service) Save(ctx context.Context, owner int64, t Task) (Task, error) {
	t.Text = strings.TrimSpace(t.Text)
	if t.Text == "" {
		return Task{}, ErrEmptyText
	}
	t.Priority = t.PriorityOrDefault()
	tags := t.Tags[:0:0]
	for _, tag := range t.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	t.Tags = tags
	_, err := s.list.Update(ctx, owner, func(items []Task) ([]Task, error) {
		for i := range items {
			if t.ID != 0 && items[i].ID == t.ID {
				items[i] = t
				return items, nil
			}
		}
		if t.ID == 0 {
			t.ID = s.list.NextID(items, s.now())
		}
		return append([]Task{t}, items...), nil
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *Service) modify(ctx context.Context, owner, id int64, fn func(*Task) error) (Task, error) {
	var out Task
	_, err := s.list.Update(ctx, owner, func(items []Task) ([]Task, error) {
		for i := range items {
			if items[i].ID == id {
				if err := fn(&items[i]); err != nil {
					return nil, err
				}
				out = items[i]
				return items, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Task{}, err
	}
	return out, nil
}

func (s *Service) Toggle(ctx context.Context, owner, id int64) (Task, error) {
	return s.modify(ctx, owner, id, func(t *Task) error {
		t.Completed = !t.Completed
		return nil
	})
}

// Postpone moves the due date one day past max(due date, today).
func (s *Service) Postpone(ctx context.Context, owner, id int64) (Task, error) {
	return s.modify(ctx, owner, id, func(t *Task) error {
		base := s.Today()
		if d, ok := due(*t); ok && d.After(base) {
			base = d
		}
		t.DueDate = base.AddDate(0, 0, 1).Format(dateLayout)
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	_, err := s.list.Remove(ctx, owner, id)
	return err
}

/* Подзадачи */

func (s *Service) AddSubtask(ctx context.Context, owner, taskID int64, text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	return s.modify(ctx, owner, taskID, func(t *Task) error {
		id := s.now().UnixMilli()
		for _, st := range t.Subtasks {
			if st.ID >= id {
				id = st.ID + 1
			}
		}
		t.Subtasks = append(t.Subtasks, Subtask{ID: id, Text: text})
		return nil
	})
}

func (s *Service) ToggleSubtask(ctx context.Context, owner, taskID, subID int64) (Task, error) {
	return s.modify(ctx, owner, taskID, func(t *Task) error {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subID {
				t.Subtasks[i].Completed = !t.Subtasks[i].Completed
				return nil
			}
		}
		return ErrNotFound
	})
}

func (s *Service) DeleteSubtask(ctx context.Context, owner, taskID, subID int64) (Task, error) {
	return s.modify(ctx, owner, taskID, func(t *Task) error {
		out := t.Subtasks[:0]
		for _, st := range t.Subtasks {
			if st.ID != subID {
				out = append(out, st)
			}
		}
		t.Subtasks = out
		return nil
	})
}

func (s *Service) SetComments(ctx context.Context, owner, taskID int64, text string) (Task, error) {
	return s.modify(ctx, owner, taskID, func(t *Task) error {
		t.Comments = text
		return nil
	})
}

func (s *Service) Filtered(ctx context.Context, owner int64, f Filter) []Group {
	return GroupBy(s.list.All(ctx, owner), f, s.now())
}

func (s *Service) Replace(ctx context.Context, owner int64, items []Task) error {
	return s.list.Set(ctx, owner, items)
}
