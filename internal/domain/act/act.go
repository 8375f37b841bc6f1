// Package act builds the certificate of completed works (акт выполненных
// работ) for a project from its estimates.
package act

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
)

var ErrNothingToCertify = errors.New("act: project has no estimates to certify")

// Line is one estimate of the project.
type Line struct {
	EstimateID int64   `json:"estimateId"`
	Title      string  `json:"title"`
	Amount     float64 `json:"amount"`
}

type Act struct {
	Number  string           `json:"number"`
	Date    string           `json:"date"`
	Project projects.Project `json:"project"`
	Lines   []Line           `json:"lines"`
	Total   float64          `json:"total"`
	// Сумма прописью.
	TotalInWords string `json:"totalInWords"`
}

// Build certifies every estimate of the project except cancelled ones,
// oldest first. An empty number prints as "б/н".
func Build(p projects.Project, estimates []estimate.Estimate, number, date string) (Act, error) {
	picked := make([]estimate.Estimate, 0, len(estimates))
	for _, e := range estimates {
		if e.ProjectID == nil || *e.ProjectID != p.ID || e.Status == estimate.StatusCancelled {
			continue
		}
		picked = append(picked, e)
	}
	slices.SortStableFunc(picked, func(a, b estimate.Estimate) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	total := decimal.Zero
	lines := make([]Line, 0, len(picked))
	for _, e := range picked {
		sum := e.Calculation().GrandTotal
		if sum <= 0 {
			continue
		}
		lines = append(lines, Line{
			EstimateID: e.ID,
			Title:      fmt.Sprintf("Работы по смете № %s от %s", e.Number, estimate.FormatDate(e.Date)),
			Amount:     sum,
		})
		total = total.Add(decimal.NewFromFloat(sum))
	}
	if len(lines) == 0 {
		return Act{}, ErrNothingToCertify
	}

	number = strings.TrimSpace(number)
	if number == "" {
		number = "б/н"
	}
	t, _ := total.Round(2).Float64()
	return Act{
		Number:       number,
		Date:         date,
		Project:      p,
		Lines:        lines,
		Total:        t,
		TotalInWords: RublesInWords(t),
	}, nil
}
