package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrorCounter receives storage failures; metrics.Metrics implements it.
type ErrorCounter interface {
	StorageError(op string)
}

// Docs is the typed access layer over a Store. Reads never fail: a missing or
// unparseable document reads as absent and is logged. Writes return errors.
type Docs struct {
	store Store
	log   *slog.Logger
	errs  ErrorCounter
	locks sync.Map // "<owner>/<key>" -> *sync.Mutex
}

func NewDocs(store Store, log *slog.Logger) *Docs {
	if log == nil {
		log = slog.Default()
	}
	return &Docs{store: store, log: log}
}

// CountErrors attaches an error counter.
func (d *Docs) CountErrors(c ErrorCounter) { d.errs = c }

func (d *Docs) Store() Store { return d.store }

// Lock serializes read-modify-write cycles on one document of one owner.
func (d *Docs) Lock(owner int64, key Key) func() {
	v, _ := d.locks.LoadOrStore(memKey(owner, key), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (d *Docs) fail(op string) {
	if d.errs != nil {
		d.errs.StorageError(op)
	}
}

// Raw returns the stored bytes; ok is false when the document is absent or unreadable.
func (d *Docs) Raw(ctx context.Context, owner int64, key Key) ([]byte, bool) {
	raw, err := d.store.Get(ctx, owner, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if err != nil {
		d.fail("read")
		d.log.Warn("storage read failed", "owner", owner, "key", key, "err", err)
		return nil, false
	}
	return raw, true
}

// PutRaw stores bytes that must already be valid JSON.
func (d *Docs) PutRaw(ctx context.Context, owner int64, key Key, raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("kv: %s: invalid json document", key)
	}
	if err := d.store.Put(ctx, owner, key, raw); err != nil {
		d.fail("write")
		d.log.Error("storage write failed", "owner", owner, "key", key, "err", err)
		return fmt.Errorf("kv: write %s: %w", key, err)
	}
	return nil
}

func (d *Docs) Delete(ctx context.Context, owner int64, key Key) error {
	if err := d.store.Delete(ctx, owner, key); err != nil {
		d.fail("delete")
		return fmt.Errorf("kv: delete %s: %w", key, err)
	}
	return nil
}

// Read decodes the document into dst. It reports false for a missing or
// malformed document; dst is left untouched in that case.
func Read[T any](ctx context.Context, d *Docs, owner int64, key Key, dst *T) bool {
	raw, ok := d.Raw(ctx, owner, key)
	if !ok {
		return false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		d.fail("parse")
		d.log.Warn("stored document is malformed, treating as empty", "owner", owner, "key", key, "err", err)
		return false
	}
	*dst = v
	return true
}

// Write encodes v and replaces the whole document.
func Write[T any](ctx context.Context, d *Docs, owner int64, key Key, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return d.PutRaw(ctx, owner, key, raw)
}
