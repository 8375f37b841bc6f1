package library

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

var (
	ErrNotFound     = errors.New("library: item not found")
	ErrNameRequired = errors.New("library: name is required")
	ErrBadPrice     = errors.New("library: price must be a non-negative number")
)

type Service struct {
	list *kv.List[Item]
	now  func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		list: kv.NewList(docs, kv.KeyItemLibrary, func(i Item) int64 { return i.ID }),
		now:  time.Now,
	}
}

func (s *Service) List(ctx context.Context, owner int64) []Item { return s.list.All(ctx, owner) }

func normalize(it Item) (Item, error) {
	it.Name = strings.TrimSpace(it.Name)
	it.Unit = strings.TrimSpace(it.Unit)
	if it.Name == "" {
		return Item{}, ErrNameRequired
	}
	if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
		return Item{}, ErrBadPrice
	}
	return it, nil
}

func (s *Service) Add(ctx context.Context, owner int64, it Item) (Item, error) {
	it, err := normalize(it)
	if err != nil {
		return Item{}, err
	}
	_, err = s.list.Update(ctx, owner, func(items []Item) ([]Item, error) {
		it.ID = s.list.NextID(items, s.now())
		return append(items, it), nil
	})
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	_, err := s.list.Remove(ctx, owner, id)
	return err
}

// Pick returns the items with the given ids in the order asked.
func (s *Service) Pick(ctx context.Context, owner int64, ids ...int64) ([]Item, error) {
	all := s.list.All(ctx, owner)
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, it := range all {
			if it.ID == id {
				out = append(out, it)
				found = true
				break
			}
		}
		if !found {
			return nil, ErrNotFound
		}
	}
	return out, nil
}

// Import merges rows into the library: an existing name (case-insensitive)
// gets the new price and unit, anything else is appended. Invalid rows are skipped.
func (s *Service) Import(ctx context.Context, owner int64, rows []Item) (ImportResult, error) {
	var res ImportResult
	_, err := s.list.Update(ctx, owner, func(items []Item) ([]Item, error) {
		byName := make(map[string]int, len(items))
		for i, it := range items {
			byName[strings.ToLower(it.Name)] = i
		}
		for _, row := range rows {
			row, err := normalize(row)
			if err != nil {
				res.Skipped++
				continue
			}
			if i, ok := byName[strings.ToLower(row.Name)]; ok {
				items[i].Price = row.Price
				if row.Unit != "" {
					items[i].Unit = row.Unit
				}
				res.Updated++
				continue
			}
			row.ID = s.list.NextID(items, s.now())
			byName[strings.ToLower(row.Name)] = len(items)
			items = append(items, row)
			res.Added++
		}
		return items, nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

func (s *Service) Replace(ctx context.Context, owner int64, items []Item) error {
	return s.list.Set(ctx, owner, items)
}

// Search ищет по подстроке без учёта регистра; если совпадений нет в слове,
// допускает опечатки (расстояние Левенштейна до четверти длины запроса).
// Точные совпадения идут первыми, затем нечёткие по возрастанию расстояния.
func Search(items []Item, query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]Item{}, items...)
	}
	budget := len([]rune(q)) / 4
	if budget < 1 {
		budget = 1
	}

	type hit struct {
		item Item
		dist int
		pos  int
	}
	var hits []hit
	for i, it := range items {
		name := strings.ToLower(it.Name)
		if strings.Contains(name, q) {
			hits = append(hits, hit{it, 0, i})
			continue
		}
		best := -1
		for _, w := range strings.Fields(name) {
			d := levenshtein.ComputeDistance(q, w)
			if best < 0 || d < best {
				best = d
			}
		}
		if best > 0 && best <= budget {
			hits = append(hits, hit{it, best, i})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].dist != hits[b].dist {
			return hits[a].dist < hits[b].dist
		}
		return hits[a].pos < hits[b].pos
	})
	out := make([]Item, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.item)
	}
	return out
}

func (s *Service) Search(ctx context.Context, owner int64, query string) []Item {
	return Search(s.list.All(ctx, owner), query)
}
