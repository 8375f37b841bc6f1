package dialog

import (
	"context"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

// Repo keeps the overlay of each chat next to the user's documents.
type Repo struct {
	docs *kv.Docs
}

func NewRepo(docs *kv.Docs) *Repo { return &Repo{docs: docs} }

func (r *Repo) Get(ctx context.Context, chatID int64) (*Item, error) {
	var it Item
	if !kv.Read(ctx, r.docs, chatID, kv.KeyDialog, &it) || it.Overlay == "" {
		// нет сохранённого состояния, ничего не открыто
		return &Item{ChatID: chatID, Overlay: OverlayNone, Payload: Payload{}}, nil
	}
	if it.Payload == nil {
		it.Payload = Payload{}
	}
	it.ChatID = chatID
	return &it, nil
}

func (r *Repo) Set(ctx context.Context, chatID int64, overlay Overlay, payload Payload) error {
	if payload == nil {
		payload = Payload{}
	}
	return kv.Write(ctx, r.docs, chatID, kv.KeyDialog, Item{Overlay: overlay, Payload: payload})
}

func (r *Repo) Reset(ctx context.Context, chatID int64) error {
	return r.docs.Delete(ctx, chatID, kv.KeyDialog)
}

// GetString Helper для безопасного чтения строк из payload
func GetString(p Payload, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt64 reads a number stored in the payload; JSON brings numbers back as float64.
func GetInt64(p Payload, key string) (int64, bool) {
	switch v := p[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
