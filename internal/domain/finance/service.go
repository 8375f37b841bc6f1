package finance

import (
	"context"
	"errors"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/shopspring/decimal"
)

var ErrInvalidEntry = errors.New("finance: entry needs a positive amount and a known type")

type Service struct {
	list *kv.List[Entry]
	now  func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		list: kv.NewList(docs, kv.KeyFinance, func(e Entry) int64 { return e.ID }),
		now:  time.Now,
	}
}

// Add prepends an entry to the project's ledger.
func (s *Service) Add(ctx context.Context, owner, projectID int64, e Entry) (Entry, error) {
	if e.Amount <= 0 || (e.Type != TypeExpense && e.Type != TypePayment) {
		return Entry{}, ErrInvalidEntry
	}
	e.ProjectID = projectID
	if e.Date == "" {
		e.Date = s.now().Format(time.DateOnly)
	}
	_, err := s.list.Update(ctx, owner, func(items []Entry) ([]Entry, error) {
		e.ID = s.list.NextID(items, s.now())
		return append([]Entry{e}, items...), nil
	})
	return e, err
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	_, err := s.list.Remove(ctx, owner, id)
	return err
}

func (s *Service) ForProject(ctx context.Context, owner, projectID int64) []Entry {
	out := []Entry{}
	for _, e := range s.list.All(ctx, owner) {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Service) Summary(ctx context.Context, owner, projectID int64) Summary {
	return Summarize(s.ForProject(ctx, owner, projectID))
}

// Summarize totals payments as income and expenses; profit is their difference.
func Summarize(entries []Entry) Summary {
	income, expenses := decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case TypePayment:
			income = income.Add(decimal.NewFromFloat(e.Amount))
		case TypeExpense:
			expenses = expenses.Add(decimal.NewFromFloat(e.Amount))
		}
	}
	in, _ := income.Float64()
	out, _ := expenses.Float64()
	profit, _ := income.Sub(expenses).Float64()
	return Summary{Income: in, Expenses: out, Profit: profit}
}

// RemoveProject is the project-delete cascade.
func (s *Service) RemoveProject(ctx context.Context, owner, projectID int64) error {
	_, err := s.list.RemoveWhere(ctx, owner, func(e Entry) bool { return e.ProjectID == projectID })
	return err
}

func (s *Service) All(ctx context.Context, owner int64) []Entry { return s.list.All(ctx, owner) }

func (s *Service) Replace(ctx context.Context, owner int64, items []Entry) error {
	return s.list.Set(ctx, owner, items)
}
