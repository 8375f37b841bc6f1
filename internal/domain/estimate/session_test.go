package estimate

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/smeta-bot/internal/host"
	"github.com/Spok95/smeta-bot/internal/host/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Session, *hosttest.Recorder, *countingStore) {
	t.Helper()
	store, backend := newTestStore(t)
	rec := &hosttest.Recorder{}
	s := NewSession(1, store, rec, nil)
	s.Open(context.Background())
	return s, rec, backend
}

func TestOpenBlank(t *testing.T) {
	s, _, _ := newTestSession(t)
	f := s.Snapshot()

	assert.Nil(t, f.ActiveID)
	assert.False(t, f.Dirty)
	assert.Equal(t, "1", f.Number)
	assert.Equal(t, "2024-03-01", f.Date)
	assert.Equal(t, StatusDraft, f.Status)
	assert.Equal(t, DiscountPercent, f.DiscountType)
	require.Len(t, f.Items, 1)
	assert.Equal(t, Item{ID: f.Items[0].ID, Quantity: 1, Type: ItemWork}, f.Items[0])
}

func TestOpenPicksSavedActiveThenFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Replace(ctx, 1, Collection{
		Estimates:        []Estimate{{ID: 10, Number: "1"}, {ID: 20, Number: "2", ClientInfo: "активная"}},
		ActiveEstimateID: ptr(20),
	}))

	s := NewSession(1, store, host.Nop{}, nil)
	s.Open(ctx)
	assert.Equal(t, "активная", s.Snapshot().ClientInfo)

	require.NoError(t, store.Replace(ctx, 1, Collection{
		Estimates: []Estimate{{ID: 10, Number: "1", ClientInfo: "первая"}, {ID: 20}},
	}))
	s.Open(ctx)
	assert.Equal(t, "первая", s.Snapshot().ClientInfo)
	assert.Equal(t, int64(10), *s.Snapshot().ActiveID)
}

func TestMutationsSetDirty(t *testing.T) {
	s, _, _ := newTestSession(t)
	first := s.Snapshot().Items[0].ID

	tests := []struct {
		name   string
		mutate func()
	}{
		{"add", func() { s.AddItem() }},
		{"add batch", func() { s.AddItems([]Item{{Name: "AI"}}) }},
		{"edit", func() { s.EditItem(first, func(it *Item) { it.Name = "Демонтаж" }) }},
		{"image", func() { s.SetItemImage(first, "data:image/jpeg;base64,AA==") }},
		{"clear image", func() { s.ClearItemImage(first) }},
		{"client", func() { s.SetClientInfo("ООО Ромашка") }},
		{"discount", func() { s.SetDiscount(5, DiscountFixed) }},
		{"tax", func() { s.SetTax(20) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Populate(nil, nil, nil)
			first = s.Snapshot().Items[0].ID
			require.False(t, s.Dirty())
			tt.mutate()
			assert.True(t, s.Dirty())
		})
	}
}

func TestMutationsOnUnknownItemAreIgnored(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.False(t, s.RemoveItem(12345))
	assert.False(t, s.EditItem(12345, func(*Item) {}))
	assert.False(t, s.MoveItem(0, 5))
	assert.False(t, s.Dirty())
}

func TestMoveItemKeepsOrder(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Populate(&Estimate{ID: 1, Items: []Item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}}, nil, nil)

	require.True(t, s.MoveItem(0, 2))
	names := func() []string {
		var out []string
		for _, it := range s.Snapshot().Items {
			out = append(out, it.Name)
		}
		return out
	}
	assert.Equal(t, []string{"b", "c", "a"}, names())

	require.True(t, s.MoveItem(2, 0))
	assert.Equal(t, []string{"a", "b", "c"}, names())
}

func TestAddItemsGetDistinctIDs(t *testing.T) {
	s, _, _ := newTestSession(t)
	added := s.AddItems([]Item{{Name: "a"}, {Name: "b"}, {Name: "c", Type: ItemMaterial}})
	require.Len(t, added, 3)
	seen := map[ItemID]bool{}
	for _, it := range s.Snapshot().Items {
		assert.False(t, seen[it.ID])
		seen[it.ID] = true
	}
	assert.Equal(t, ItemWork, added[0].Type)
	assert.Equal(t, ItemMaterial, added[2].Type)
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, rec, backend := newTestSession(t)

	saved, err := s.Save(ctx)
	require.NoError(t, err)
	assert.False(t, saved, "clean form is not saved")
	assert.Zero(t, backend.writes("estimatesData"))

	id := s.Snapshot().Items[0].ID
	s.EditItem(id, func(it *Item) { it.Name = "Штукатурка"; it.Price = 450; it.Quantity = 12 })
	s.SetClientInfo("ул. Ленина, 1")
	s.SetTax(20)

	saved, err = s.Save(ctx)
	require.NoError(t, err)
	require.True(t, saved)
	assert.False(t, s.Dirty())
	assert.Equal(t, []host.Haptic{host.HapticSuccess}, rec.Haptics)

	f := s.Snapshot()
	require.NotNil(t, f.ActiveID)
	first, ok := s.store.LoadAll(ctx, 1).Find(*f.ActiveID)
	require.True(t, ok)

	s.SetClientInfo("ул. Ленина, 2")
	_, err = s.Save(ctx)
	require.NoError(t, err)

	reloaded := s.store.LoadAll(ctx, 1)
	require.Len(t, reloaded.Estimates, 1, "second save replaces by id")
	second, ok := reloaded.Find(*f.ActiveID)
	require.True(t, ok)
	assert.Greater(t, second.LastModified, first.LastModified)

	second.LastModified, first.LastModified = 0, 0
	first.ClientInfo = "ул. Ленина, 2"
	assert.Equal(t, first, second)
}

func TestSaveNewEstimatesArePrepended(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)

	s.SetClientInfo("первая")
	_, err := s.Save(ctx)
	require.NoError(t, err)
	_, err = s.New(ctx, ptr(5))
	require.NoError(t, err)
	assert.Equal(t, "2", s.Snapshot().Number)
	assert.Equal(t, int64(5), *s.Snapshot().ProjectID)

	s.SetClientInfo("вторая")
	_, err = s.Save(ctx)
	require.NoError(t, err)

	c := s.Collection()
	require.Len(t, c.Estimates, 2)
	assert.Equal(t, "вторая", c.Estimates[0].ClientInfo)
	assert.NotEqual(t, c.Estimates[0].ID, c.Estimates[1].ID)
}

func TestSaveFailureAlertsAndStaysDirty(t *testing.T) {
	ctx := context.Background()
	s, rec, backend := newTestSession(t)
	backend.failPut = true

	s.SetClientInfo("x")
	saved, err := s.Save(ctx)
	require.Error(t, err)
	assert.False(t, saved)
	assert.True(t, s.Dirty())
	assert.Equal(t, []string{alertSaveFailed}, rec.Alerts)
	assert.Len(t, s.Collection().Estimates, 1, "in-memory collection keeps the record")

	backend.failPut = false
	saved, err = s.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Len(t, s.store.LoadAll(ctx, 1).Estimates, 1, "retry replaces, it does not duplicate")
}

func TestDiscardOrConfirm(t *testing.T) {
	ctx := context.Background()
	s, rec, _ := newTestSession(t)

	ran := 0
	ok, err := s.DiscardOrConfirm(ctx, PromptLeave, func() { ran++ })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rec.Prompts, "clean form needs no confirmation")

	s.SetClientInfo("несохраненное")
	rec.Answers = []bool{false}
	ok, err = s.DiscardOrConfirm(ctx, PromptLeave, func() { ran++ })
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, ran, "declined action does not run")

	rec.Answers = []bool{true}
	ok, err = s.DiscardOrConfirm(ctx, PromptLeave, func() { ran++ })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, ran)
	assert.Equal(t, []string{PromptLeave, PromptLeave}, rec.Prompts)

	rec.ConfirmErr = errors.New("chat closed")
	_, err = s.DiscardOrConfirm(ctx, PromptLeave, func() { ran++ })
	require.Error(t, err)
	assert.Equal(t, 2, ran)
}

func TestLoadAnotherEstimateAsksWhenDirty(t *testing.T) {
	ctx := context.Background()
	s, rec, _ := newTestSession(t)
	s.SetClientInfo("a")
	_, err := s.Save(ctx)
	require.NoError(t, err)
	savedID := *s.Snapshot().ActiveID

	_, err = s.New(ctx, nil)
	require.NoError(t, err)
	s.SetClientInfo("черновик")

	ok, err := s.Load(ctx, savedID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "черновик", s.Snapshot().ClientInfo)

	rec.Answers = []bool{true}
	ok, err = s.Load(ctx, savedID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", s.Snapshot().ClientInfo)
	assert.False(t, s.Dirty())

	_, err = s.Load(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteActiveFallsBackToSibling(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Replace(ctx, 1, Collection{
		Estimates: []Estimate{
			{ID: 1, ClientInfo: "без проекта"},
			{ID: 2, ClientInfo: "проект A", ProjectID: ptr(7)},
			{ID: 3, ClientInfo: "проект A, вторая", ProjectID: ptr(7)},
		},
		ActiveEstimateID: ptr(2),
	}))
	rec := &hosttest.Recorder{Answers: []bool{true, true}}
	s := NewSession(1, store, rec, nil)
	s.Open(ctx)

	ok, err := s.Delete(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), *s.Snapshot().ActiveID)
	assert.Equal(t, "проект A, вторая", s.Snapshot().ClientInfo)

	stored := store.LoadAll(ctx, 1)
	assert.Equal(t, int64(3), *stored.ActiveEstimateID)

	ok, err = s.Delete(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), *s.Snapshot().ActiveID, "deleting an inactive estimate keeps the form")

	ok, err = s.Delete(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok, "answers exhausted means declined")

	rec.Answers = []bool{true}
	_, err = s.Delete(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, s.Snapshot().ActiveID)
	assert.Nil(t, store.LoadAll(ctx, 1).ActiveEstimateID)
}

func TestSetStatusUpdatesActiveForm(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	s.SetClientInfo("x")
	_, err := s.Save(ctx)
	require.NoError(t, err)
	id := *s.Snapshot().ActiveID

	require.NoError(t, s.SetStatus(ctx, id, StatusSent))
	assert.Equal(t, StatusSent, s.Snapshot().Status)
	assert.False(t, s.Dirty())
	assert.ErrorIs(t, s.SetStatus(ctx, id, "bogus"), ErrInvalidStatus)
}

func TestTemplateLifecycle(t *testing.T) {
	ctx := context.Background()
	s, rec, _ := newTestSession(t)
	id := s.Snapshot().Items[0].ID
	s.EditItem(id, func(it *Item) { it.Name = "Покраска"; it.Price = 300; it.Quantity = 10 })
	s.SetDiscount(10, DiscountPercent)
	_, err := s.Save(ctx)
	require.NoError(t, err)

	tpl, err := s.SaveAsTemplate(ctx, *s.Snapshot().ActiveID)
	require.NoError(t, err)
	assert.Contains(t, rec.Alerts, alertTemplateSaved)

	ok, err := s.NewFromTemplate(ctx, tpl.LastModified)
	require.NoError(t, err)
	require.True(t, ok)
	f := s.Snapshot()
	assert.Nil(t, f.ActiveID)
	assert.True(t, f.Dirty)
	require.Len(t, f.Items, 1)
	assert.Equal(t, "Покраска", f.Items[0].Name)
	assert.Equal(t, 10.0, f.Discount)
	assert.Equal(t, "2", f.Number)

	rec.Answers = []bool{true}
	ok, err = s.DeleteTemplate(ctx, tpl.LastModified)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, s.store.Templates(ctx, 1))
}

func TestDocumentRequiresValidItems(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Document()
	assert.ErrorIs(t, err, ErrNoValidItems)

	id := s.Snapshot().Items[0].ID
	s.EditItem(id, func(it *Item) { it.Name = "Монтаж"; it.Price = 1000 })
	s.AddItems([]Item{{Name: "", Quantity: 1, Price: 500}})

	doc, err := s.Document()
	require.NoError(t, err)
	assert.Len(t, doc.Items, 1)
	assert.Equal(t, 1500.0, doc.Calculation.Subtotal, "totals keep the invalid row")
}

func TestRefreshFollowsOtherWriters(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Replace(ctx, 1, Collection{
		Estimates:        []Estimate{{ID: 10, Number: "1", ClientInfo: "было"}, {ID: 20, Number: "2"}},
		ActiveEstimateID: ptr(10),
	}))
	s := NewSession(1, store, host.Nop{}, nil)
	s.Open(ctx)

	_, _, err := store.Save(ctx, 1, Estimate{ID: 10, Number: "1", ClientInfo: "стало"})
	require.NoError(t, err)
	s.Refresh(ctx)
	assert.Equal(t, "стало", s.Snapshot().ClientInfo)

	s.SetClientInfo("черновик")
	_, _, err = store.Save(ctx, 1, Estimate{ID: 10, Number: "1", ClientInfo: "снова"})
	require.NoError(t, err)
	s.Refresh(ctx)
	assert.Equal(t, "черновик", s.Snapshot().ClientInfo, "dirty form is kept")
	assert.Equal(t, int64(10), *s.Snapshot().ActiveID)

	s.Populate(nil, s.Collection().Estimates, nil)
	s.Refresh(ctx)
	assert.Nil(t, s.Snapshot().ActiveID, "blank form stays blank")
	assert.Len(t, s.Collection().Estimates, 2)
}

func TestRefreshFallsBackWhenActiveIsGone(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Replace(ctx, 1, Collection{
		Estimates:        []Estimate{{ID: 10, Number: "1"}, {ID: 20, Number: "2", ClientInfo: "остаётся"}},
		ActiveEstimateID: ptr(10),
	}))
	s := NewSession(1, store, host.Nop{}, nil)
	s.Open(ctx)

	_, _, err := store.Remove(ctx, 1, 10)
	require.NoError(t, err)
	s.Refresh(ctx)
	assert.Equal(t, "остаётся", s.Snapshot().ClientInfo)
	assert.Equal(t, int64(20), *s.Snapshot().ActiveID)
}

func TestStaleSessionSaveKeepsOtherWriters(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	s.SetClientInfo("из бота")

	// written by the mini app while the bot form is open
	_, fromAPI, err := s.store.Save(ctx, 1, Estimate{ClientInfo: "из мини-приложения"})
	require.NoError(t, err)

	saved, err := s.Save(ctx)
	require.NoError(t, err)
	require.True(t, saved)

	c := s.store.LoadAll(ctx, 1)
	require.Len(t, c.Estimates, 2)
	_, ok := c.Find(fromAPI.ID)
	assert.True(t, ok, "the record saved elsewhere is kept")
	assert.Equal(t, *s.Snapshot().ActiveID, *c.ActiveEstimateID)
	assert.Len(t, s.Collection().Estimates, 2)
}

func TestStaleSessionDeleteAndStatusKeepOtherWriters(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Replace(ctx, 1, Collection{
		Estimates:        []Estimate{{ID: 10, Number: "1"}, {ID: 20, Number: "2"}},
		ActiveEstimateID: ptr(10),
	}))
	rec := &hosttest.Recorder{Answers: []bool{true}}
	s := NewSession(1, store, rec, nil)
	s.Open(ctx)

	_, fromAPI, err := store.Save(ctx, 1, Estimate{ClientInfo: "новая"})
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, 10, StatusSent))
	ok, err := s.Delete(ctx, 20)
	require.NoError(t, err)
	require.True(t, ok)

	c := store.LoadAll(ctx, 1)
	assert.ElementsMatch(t, []int64{fromAPI.ID, 10}, ids(c))
	assert.Equal(t, int64(10), *s.Snapshot().ActiveID, "the form stays on its estimate")
	assert.Equal(t, StatusSent, s.Snapshot().Status)
}
