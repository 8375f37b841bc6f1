package act

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
)

func ptr(v int64) *int64 { return &v }

func TestBuildSumsProjectEstimates(t *testing.T) {
	p := projects.Project{ID: 7, Name: "Кухня", Client: "Сидоров", Address: "ул. Лесная, 1"}
	work := func(price float64) []estimate.Item {
		return []estimate.Item{{ID: 1, Name: "Работа", Quantity: 1, Price: price, Type: estimate.ItemWork}}
	}
	list := []estimate.Estimate{
		{ID: 3, Number: "3", Date: "2024-03-05", Status: estimate.StatusCompleted, ProjectID: ptr(7), Items: work(1500.5)},
		{ID: 2, Number: "2", Date: "2024-03-01", Status: estimate.StatusApproved, ProjectID: ptr(7), Items: work(10000)},
		{ID: 4, Number: "4", Date: "2024-03-02", Status: estimate.StatusCancelled, ProjectID: ptr(7), Items: work(999)},
		{ID: 5, Number: "5", Date: "2024-03-02", Status: estimate.StatusDraft, ProjectID: ptr(8), Items: work(777)},
		{ID: 6, Number: "6", Date: "2024-03-03", Status: estimate.StatusDraft, ProjectID: ptr(7), Items: []estimate.Item{}},
	}

	a, err := Build(p, list, " ", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, "б/н", a.Number)
	require.Len(t, a.Lines, 2, "cancelled, foreign and empty estimates are left out")
	assert.Equal(t, "Работы по смете № 2 от 01.03.2024", a.Lines[0].Title)
	assert.Equal(t, int64(3), a.Lines[1].EstimateID)
	assert.Equal(t, 11500.5, a.Total)
	assert.Equal(t, "Одиннадцать тысяч пятьсот рублей 50 копеек", a.TotalInWords)
}

func TestBuildWithoutEstimates(t *testing.T) {
	_, err := Build(projects.Project{ID: 1}, nil, "1", "2024-03-10")
	assert.ErrorIs(t, err, ErrNothingToCertify)
}
