package kv

import (
	"context"
	"time"
)

// List is a JSON array document mutated by full rewrite.
type List[T any] struct {
	docs *Docs
	key  Key
	id   func(T) int64
}

func NewList[T any](docs *Docs, key Key, id func(T) int64) *List[T] {
	return &List[T]{docs: docs, key: key, id: id}
}

func (l *List[T]) Key() Key { return l.key }

// All never returns nil.
func (l *List[T]) All(ctx context.Context, owner int64) []T {
	out := []T{}
	if !Read(ctx, l.docs, owner, l.key, &out) || out == nil {
		return []T{}
	}
	return out
}

func (l *List[T]) Find(ctx context.Context, owner int64, id int64) (T, bool) {
	for _, v := range l.All(ctx, owner) {
		if l.id(v) == id {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Update reads the list, applies fn and writes the result back while holding
// the document lock. When fn fails nothing is written.
func (l *List[T]) Update(ctx context.Context, owner int64, fn func([]T) ([]T, error)) ([]T, error) {
	unlock := l.docs.Lock(owner, l.key)
	defer unlock()

	next, err := fn(l.All(ctx, owner))
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []T{}
	}
	if err := Write(ctx, l.docs, owner, l.key, next); err != nil {
		return next, err
	}
	return next, nil
}

// Set replaces the whole list.
func (l *List[T]) Set(ctx context.Context, owner int64, items []T) error {
	unlock := l.docs.Lock(owner, l.key)
	defer unlock()
	if items == nil {
		items = []T{}
	}
	return Write(ctx, l.docs, owner, l.key, items)
}

func (l *List[T]) Prepend(ctx context.Context, owner int64, v T) ([]T, error) {
	return l.Update(ctx, owner, func(items []T) ([]T, error) {
		return append([]T{v}, items...), nil
	})
}

func (l *List[T]) Append(ctx context.Context, owner int64, v T) ([]T, error) {
	return l.Update(ctx, owner, func(items []T) ([]T, error) {
		return append(items, v), nil
	})
}

// Replace swaps the element with the same id; found is false when nothing matched.
func (l *List[T]) Replace(ctx context.Context, owner int64, v T) (found bool, err error) {
	_, err = l.Update(ctx, owner, func(items []T) ([]T, error) {
		for i := range items {
			if l.id(items[i]) == l.id(v) {
				items[i] = v
				found = true
			}
		}
		return items, nil
	})
	return found, err
}

func (l *List[T]) Remove(ctx context.Context, owner int64, id int64) ([]T, error) {
	return l.RemoveWhere(ctx, owner, func(v T) bool { return l.id(v) == id })
}

func (l *List[T]) RemoveWhere(ctx context.Context, owner int64, drop func(T) bool) ([]T, error) {
	return l.Update(ctx, owner, func(items []T) ([]T, error) {
		out := items[:0]
		for _, v := range items {
			if !drop(v) {
				out = append(out, v)
			}
		}
		return out, nil
	})
}

// NextID returns a millisecond timestamp id that is above every id in items.
func (l *List[T]) NextID(items []T, now time.Time) int64 {
	id := now.UnixMilli()
	for _, v := range items {
		if l.id(v) >= id {
			id = l.id(v) + 1
		}
	}
	return id
}
