package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type countingErrors struct{ ops []string }

func (c *countingErrors) StorageError(op string) { c.ops = append(c.ops, op) }

type failingStore struct{ *Memory }

func (failingStore) Put(context.Context, int64, Key, []byte) error {
	return errors.New("quota exceeded")
}

func newRows(t *testing.T) (*List[row], *Memory) {
	t.Helper()
	mem := NewMemory()
	return NewList(NewDocs(mem, nil), KeyNotes, func(r row) int64 { return r.ID }), mem
}

func TestListCRUD(t *testing.T) {
	ctx := context.Background()
	l, _ := newRows(t)

	assert.Empty(t, l.All(ctx, 1))

	_, err := l.Append(ctx, 1, row{ID: 1, Name: "a"})
	require.NoError(t, err)
	_, err = l.Prepend(ctx, 1, row{ID: 2, Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, []row{{2, "b"}, {1, "a"}}, l.All(ctx, 1))

	found, err := l.Replace(ctx, 1, row{ID: 1, Name: "a2"})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = l.Replace(ctx, 1, row{ID: 9})
	require.NoError(t, err)
	assert.False(t, found)

	got, ok := l.Find(ctx, 1, 1)
	require.True(t, ok)
	assert.Equal(t, "a2", got.Name)

	items, err := l.Remove(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []row{{1, "a2"}}, items)

	assert.Empty(t, l.All(ctx, 2), "owners are isolated")
}

func TestListUpdateErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	l, _ := newRows(t)
	_, err := l.Append(ctx, 1, row{ID: 1})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = l.Update(ctx, 1, func([]row) ([]row, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Len(t, l.All(ctx, 1), 1)
}

func TestListMalformedReadsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Put(ctx, 1, KeyNotes, []byte(`{not json`)))

	counter := &countingErrors{}
	docs := NewDocs(mem, nil)
	docs.CountErrors(counter)
	l := NewList(docs, KeyNotes, func(r row) int64 { return r.ID })

	assert.Empty(t, l.All(ctx, 1))
	assert.Equal(t, []string{"parse"}, counter.ops)
}

func TestListWriteFailure(t *testing.T) {
	ctx := context.Background()
	docs := NewDocs(failingStore{NewMemory()}, nil)
	l := NewList(docs, KeyNotes, func(r row) int64 { return r.ID })

	items, err := l.Append(ctx, 1, row{ID: 1})
	require.Error(t, err)
	assert.Len(t, items, 1, "the mutated list is still returned")
}

func TestNextID(t *testing.T) {
	l, _ := newRows(t)
	now := time.UnixMilli(1000)

	assert.Equal(t, int64(1000), l.NextID(nil, now))
	assert.Equal(t, int64(1001), l.NextID([]row{{ID: 1000}}, now))
	assert.Equal(t, int64(5001), l.NextID([]row{{ID: 5000}, {ID: 3}}, now))
}

func TestDocsPutRawRejectsInvalidJSON(t *testing.T) {
	docs := NewDocs(NewMemory(), nil)
	require.Error(t, docs.PutRaw(context.Background(), 1, KeyTheme, []byte("dark")))
	require.NoError(t, docs.PutRaw(context.Background(), 1, KeyTheme, []byte(`"dark"`)))
}
