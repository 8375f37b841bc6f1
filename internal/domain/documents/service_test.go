package documents

import (
	"context"
	"testing"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectAndGlobalDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewService(kv.NewDocs(kv.NewMemory(), nil))

	_, err := s.AddGlobal(ctx, 1, "", "data:application/pdf;base64,AA==")
	require.ErrorIs(t, err, ErrInvalid)

	d, err := s.AddToProject(ctx, 1, 9, "Договор.pdf", "data:application/pdf;base64,AA==")
	require.NoError(t, err)
	require.NotNil(t, d.ProjectID)
	_, err = s.AddGlobal(ctx, 1, "Прайс.pdf", "data:application/pdf;base64,AA==")
	require.NoError(t, err)

	assert.Len(t, s.ForProject(ctx, 1, 9), 1)
	assert.Len(t, s.Global(ctx, 1), 1)

	require.NoError(t, s.RemoveProject(ctx, 1, 9))
	assert.Empty(t, s.ForProject(ctx, 1, 9))
	assert.Len(t, s.Global(ctx, 1), 1, "global documents survive project deletion")

	require.NoError(t, s.DeleteGlobal(ctx, 1, s.Global(ctx, 1)[0].ID))
	assert.Empty(t, s.Global(ctx, 1))
}
