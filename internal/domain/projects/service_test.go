package projects

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndSearch(t *testing.T) {
	ctx := context.Background()
	s := NewService(kv.NewDocs(kv.NewMemory(), nil))

	_, err := s.Save(ctx, 1, Project{Name: "  "})
	require.ErrorIs(t, err, ErrNameRequired)

	a, err := s.Save(ctx, 1, Project{Name: " Квартира на Лесной ", Client: "Иванов", Address: "ул. Лесная, 5"})
	require.NoError(t, err)
	assert.Equal(t, "Квартира на Лесной", a.Name)
	assert.Equal(t, StatusInProgress, a.Status)

	b, err := s.Save(ctx, 1, Project{Name: "Дача", Client: "Петров"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, []Project{b, a}, s.List(ctx, 1), "new projects go first")

	require.NoError(t, s.SetStatus(ctx, 1, b.ID, StatusCompleted))

	assert.Len(t, s.Search(ctx, 1, "", "лесн"), 1)
	assert.Len(t, s.Search(ctx, 1, "", "ПЕТРОВ"), 1)
	assert.Len(t, s.Search(ctx, 1, StatusInProgress, ""), 1)
	assert.Empty(t, s.Search(ctx, 1, StatusCompleted, "лесн"))

	_, err = s.Save(ctx, 1, Project{ID: 404, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewService(kv.NewDocs(kv.NewMemory(), nil))
	p, err := s.Save(ctx, 1, Project{Name: "Офис"})
	require.NoError(t, err)

	var cleaned []int64
	boom := errors.New("boom")
	s.OnDelete(
		func(_ context.Context, _ int64, id int64) error { cleaned = append(cleaned, id); return nil },
		func(context.Context, int64, int64) error { return boom },
		func(_ context.Context, _ int64, id int64) error { cleaned = append(cleaned, id); return nil },
	)

	err = s.Delete(ctx, 1, p.ID)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int64{p.ID, p.ID}, cleaned, "a failing cleanup does not stop the rest")
	assert.Empty(t, s.List(ctx, 1))

	assert.ErrorIs(t, s.Delete(ctx, 1, p.ID), ErrNotFound)
}
