package stages

import (
	"context"
	"testing"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStages(t *testing.T) {
	ctx := context.Background()
	s := NewService(kv.NewDocs(kv.NewMemory(), nil))

	_, err := s.Save(ctx, 1, 2, Stage{})
	require.ErrorIs(t, err, ErrNameRequired)

	demo, err := s.Save(ctx, 1, 2, Stage{Name: "Демонтаж", StartDate: "2024-04-01", EndDate: "2024-04-03"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, demo.Status)
	_, err = s.Save(ctx, 1, 2, Stage{Name: "Электрика"})
	require.NoError(t, err)

	demo.Status = StatusCompleted
	_, err = s.Save(ctx, 1, 2, demo)
	require.NoError(t, err)

	list := s.ForProject(ctx, 1, 2)
	require.Len(t, list, 2)
	assert.Equal(t, 0.5, Progress(list))
	assert.Zero(t, Progress(nil))

	_, err = s.Save(ctx, 1, 2, Stage{ID: 1, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.RemoveProject(ctx, 1, 2))
	assert.Empty(t, s.All(ctx, 1))
}
