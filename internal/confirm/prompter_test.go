package confirm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shown struct {
	token string
	text  string
}

func newTestPrompter() (*Prompter, chan shown) {
	ch := make(chan shown, 4)
	p := New(func(_ context.Context, _ int64, token, text string) error {
		ch <- shown{token: token, text: text}
		return nil
	})
	return p, ch
}

type result struct {
	ok  bool
	err error
}

func ask(p *Prompter, ctx context.Context, chatID int64, text string) chan result {
	out := make(chan result, 1)
	go func() {
		ok, err := p.Ask(ctx, chatID, text)
		out <- result{ok, err}
	}()
	return out
}

func wait(t *testing.T, ch chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("Ask did not return")
		return result{}
	}
}

func TestAskResolves(t *testing.T) {
	p, shownCh := newTestPrompter()
	res := ask(p, context.Background(), 1, "Удалить смету?")

	q := <-shownCh
	assert.Equal(t, "Удалить смету?", q.text)
	assert.Equal(t, []string{"Удалить смету?"}, p.Open(1))

	handled, err := p.Resolve(1, q.token, true)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, result{ok: true}, wait(t, res))
	assert.Empty(t, p.Open(1))
}

func TestNestedQuestionsResolveTopFirst(t *testing.T) {
	p, shownCh := newTestPrompter()
	outer := ask(p, context.Background(), 1, "outer")
	qOuter := <-shownCh
	inner := ask(p, context.Background(), 1, "inner")
	qInner := <-shownCh

	_, err := p.Resolve(1, qOuter.token, true)
	assert.ErrorIs(t, err, ErrNotTop)

	handled, err := p.Resolve(1, qInner.token, false)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, result{ok: false}, wait(t, inner))

	handled, err = p.Resolve(1, qOuter.token, true)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, result{ok: true}, wait(t, outer))
}

func TestStaleTokenIgnored(t *testing.T) {
	p, _ := newTestPrompter()
	handled, err := p.Resolve(1, "deadbeef", true)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestAskCancelled(t *testing.T) {
	p, shownCh := newTestPrompter()
	ctx, cancel := context.WithCancel(context.Background())
	res := ask(p, ctx, 1, "q")
	<-shownCh
	cancel()

	r := wait(t, res)
	assert.False(t, r.ok)
	assert.ErrorIs(t, r.err, context.Canceled)
}

func TestCancelAllAnswersNo(t *testing.T) {
	p, shownCh := newTestPrompter()
	res := ask(p, context.Background(), 3, "q")
	<-shownCh
	p.CancelAll(3)
	assert.Equal(t, result{ok: false}, wait(t, res))
}

func TestSendFailure(t *testing.T) {
	boom := errors.New("blocked by user")
	p := New(func(context.Context, int64, string, string) error { return boom })
	ok, err := p.Ask(context.Background(), 1, "q")
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, p.Open(1))
}
