package finance

import (
	"context"
	"testing"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()
	s := NewService(kv.NewDocs(kv.NewMemory(), nil))

	_, err := s.Add(ctx, 1, 5, Entry{Type: TypeExpense, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidEntry)
	_, err = s.Add(ctx, 1, 5, Entry{Type: "gift", Amount: 10})
	require.ErrorIs(t, err, ErrInvalidEntry)

	_, err = s.Add(ctx, 1, 5, Entry{Type: TypePayment, Amount: 100000.10, Description: "Аванс"})
	require.NoError(t, err)
	exp, err := s.Add(ctx, 1, 5, Entry{Type: TypeExpense, Amount: 35000.05, Description: "Плитка", Category: "материалы"})
	require.NoError(t, err)
	_, err = s.Add(ctx, 1, 6, Entry{Type: TypeExpense, Amount: 1})
	require.NoError(t, err)

	assert.NotEmpty(t, exp.Date)
	assert.Len(t, s.ForProject(ctx, 1, 5), 2)
	assert.Equal(t, Summary{Income: 100000.10, Expenses: 35000.05, Profit: 65000.05}, s.Summary(ctx, 1, 5))

	require.NoError(t, s.Delete(ctx, 1, exp.ID))
	assert.Equal(t, 100000.10, s.Summary(ctx, 1, 5).Profit)

	require.NoError(t, s.RemoveProject(ctx, 1, 5))
	assert.Empty(t, s.ForProject(ctx, 1, 5))
	assert.Len(t, s.All(ctx, 1), 1)
}
