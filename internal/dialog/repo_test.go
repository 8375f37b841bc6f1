package dialog

import (
	"context"
	"testing"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewRepo(kv.NewDocs(kv.NewMemory(), nil))

	it, err := r.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, OverlayNone, it.Overlay)
	assert.NotNil(t, it.Payload)

	require.NoError(t, r.Set(ctx, 10, OverlayItemEdit, Payload{"item_id": int64(1700000000000), "field": "price"}))
	it, err = r.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, OverlayItemEdit, it.Overlay)
	assert.Equal(t, int64(10), it.ChatID)

	id, ok := GetInt64(it.Payload, "item_id")
	require.True(t, ok)
	assert.Equal(t, int64(1700000000000), id)
	field, ok := GetString(it.Payload, "field")
	require.True(t, ok)
	assert.Equal(t, "price", field)

	require.NoError(t, r.Reset(ctx, 10))
	it, err = r.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, OverlayNone, it.Overlay)
}

func TestOverlayKinds(t *testing.T) {
	assert.False(t, OverlayNone.AwaitsText())
	assert.True(t, OverlayClient.AwaitsText())
	assert.False(t, OverlayRestoreFile.AwaitsText())
	assert.True(t, OverlayRestoreFile.AwaitsFile())
	assert.False(t, OverlayTax.AwaitsFile())
}
