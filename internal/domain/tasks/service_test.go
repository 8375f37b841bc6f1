package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *Service {
	s := NewService(kv.NewDocs(kv.NewMemory(), nil))
	s.now = func() time.Time { return wednesday }
	return s
}

func TestAddToggleDelete(t *testing.T) {
	ctx := context.Background()
	s := newService()

	_, err := s.Add(ctx, 1, "  ")
	require.ErrorIs(t, err, ErrEmptyText)

	a, err := s.Add(ctx, 1, "Позвонить заказчику")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-15", a.DueDate)
	assert.Equal(t, PriorityMedium, a.Priority)
	assert.False(t, a.Completed)

	b, err := s.Add(ctx, 1, "Купить плитку")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, b.ID, s.List(ctx, 1)[0].ID)

	toggled, err := s.Toggle(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	require.NoError(t, s.Delete(ctx, 1, a.ID))
	_, err = s.Get(ctx, 1, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Toggle(ctx, 1, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReplacesOrPrepends(t *testing.T) {
	ctx := context.Background()
	s := newService()
	a, err := s.Add(ctx, 1, "a")
	require.NoError(t, err)

	a.Text = "a2"
	a.Priority = ""
	a.Tags = []string{" кухня ", "", "срочно"}
	saved, err := s.Save(ctx, 1, a)
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, saved.Priority)
	assert.Equal(t, []string{"кухня", "срочно"}, saved.Tags)
	require.Len(t, s.List(ctx, 1), 1)

	fresh, err := s.Save(ctx, 1, Task{Text: "b", Priority: PriorityHigh})
	require.NoError(t, err)
	list := s.List(ctx, 1)
	require.Len(t, list, 2)
	assert.Equal(t, fresh.ID, list[0].ID)
}

func TestSubtasks(t *testing.T) {
	ctx := context.Background()
	s := newService()
	task, err := s.Add(ctx, 1, "Ремонт ванной")
	require.NoError(t, err)

	task, err = s.AddSubtask(ctx, 1, task.ID, "Снять плитку")
	require.NoError(t, err)
	task, err = s.AddSubtask(ctx, 1, task.ID, "Выровнять стены")
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 2)
	assert.NotEqual(t, task.Subtasks[0].ID, task.Subtasks[1].ID)

	first := task.Subtasks[0].ID
	task, err = s.ToggleSubtask(ctx, 1, task.ID, first)
	require.NoError(t, err)
	assert.True(t, task.Subtasks[0].Completed)

	_, err = s.ToggleSubtask(ctx, 1, task.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	task, err = s.DeleteSubtask(ctx, 1, task.ID, first)
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 1)
	assert.Equal(t, "Выровнять стены", task.Subtasks[0].Text)

	task, err = s.SetComments(ctx, 1, task.ID, "материалы на объекте")
	require.NoError(t, err)
	assert.Equal(t, "материалы на объекте", task.Comments)
}

func TestPostpone(t *testing.T) {
	ctx := context.Background()
	s := newService()

	old, err := s.Save(ctx, 1, Task{Text: "old", DueDate: "2024-05-01"})
	require.NoError(t, err)
	old, err = s.Postpone(ctx, 1, old.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-16", old.DueDate)

	future, err := s.Save(ctx, 1, Task{Text: "future", DueDate: "2024-06-01"})
	require.NoError(t, err)
	future, err = s.Postpone(ctx, 1, future.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-02", future.DueDate)
}
