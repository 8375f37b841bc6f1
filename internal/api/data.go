package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/smeta-bot/internal/domain/backup"
	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

func docKey(r *http.Request) (kv.Key, error) {
	key, ok := kv.ParseKey(chi.URLParam(r, "key"))
	if !ok {
		return "", fmt.Errorf("%w: unknown document key", errBadRequest)
	}
	return key, nil
}

// getDoc returns the stored document as is, or null when there is none.
func (h *Handler) getDoc(w http.ResponseWriter, r *http.Request) {
	key, err := docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, ok := h.Docs.Raw(r.Context(), ownerFrom(r.Context()), key)
	if !ok {
		raw = []byte("null")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// putDoc replaces a whole document; there are no partial updates.
func (h *Handler) putDoc(w http.ResponseWriter, r *http.Request) {
	key, err := docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	owner := ownerFrom(r.Context())
	unlock := h.Docs.Lock(owner, key)
	err = h.Docs.PutRaw(r.Context(), owner, key, raw)
	unlock()
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.Backup.Export(r.Context(), ownerFrom(r.Context()))
	var body []byte
	if err == nil {
		body, err = backup.Marshal(b)
	}
	h.Metrics.Export("backup", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attach(w, "application/json", backup.FileName(h.Estimates.Now()), body)
}

func (h *Handler) restoreBackup(w http.ResponseWriter, r *http.Request) {
	data, err := upload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := backup.Parse(data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	owner := ownerFrom(r.Context())
	if err := h.Backup.Restore(r.Context(), owner, b); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Log.Info("backup restored", "owner", owner, "bytes", len(data))
	w.WriteHeader(http.StatusNoContent)
}
