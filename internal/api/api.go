// Package api serves the mini-app: every route works on the documents of the
// Telegram user that signed the request's initData.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Spok95/smeta-bot/internal/domain/act"
	"github.com/Spok95/smeta-bot/internal/domain/backup"
	"github.com/Spok95/smeta-bot/internal/domain/documents"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/finance"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/library"
	"github.com/Spok95/smeta-bot/internal/domain/notes"
	"github.com/Spok95/smeta-bot/internal/domain/photos"
	"github.com/Spok95/smeta-bot/internal/domain/profile"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
	"github.com/Spok95/smeta-bot/internal/domain/scratchpad"
	"github.com/Spok95/smeta-bot/internal/domain/settings"
	"github.com/Spok95/smeta-bot/internal/domain/stages"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
	"github.com/Spok95/smeta-bot/internal/infra/ai"
	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/Spok95/smeta-bot/internal/infra/mailer"
	"github.com/Spok95/smeta-bot/internal/infra/metrics"
	"github.com/Spok95/smeta-bot/internal/infra/pdf"
	"github.com/Spok95/smeta-bot/internal/infra/webapp"
	"github.com/Spok95/smeta-bot/internal/infra/xlsx"
)

// Данные приходят с картинками в data URL, поэтому лимит щедрый.
const maxBody = 25 << 20

const InitDataHeader = "X-Telegram-Init-Data"

var errBadRequest = errors.New("api: bad request")

// Deps groups what the handlers need. Optional adapters (PDF, Mailer, AI,
// Metrics) may be nil.
type Deps struct {
	Log       *slog.Logger
	Auth      *webapp.Validator
	Docs      *kv.Docs
	Estimates *estimate.Store
	Projects  *projects.Service
	Finance   *finance.Service
	Photos    *photos.Service
	Documents *documents.Service
	Stages    *stages.Service
	Notes     *notes.Service
	Tasks     *tasks.Service
	Inventory *inventory.Service
	Scratch   *scratchpad.Service
	Library   *library.Service
	Profile   *profile.Service
	Settings  *settings.Service
	Backup    *backup.Service
	PDF       *pdf.Generator
	Mailer    *mailer.Mailer
	AI        *ai.Suggester
	Metrics   *metrics.Metrics
}

type Handler struct {
	Deps
	validate *validator.Validate
}

func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Handler{Deps: d, validate: validator.New()}
}

// Routes registers everything under the router it is given (mounted at /api).
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.authenticate)

	r.Get("/docs/{key}", h.getDoc)
	r.Put("/docs/{key}", h.putDoc)

	r.Route("/estimates", func(r chi.Router) {
		r.Get("/", h.listEstimates)
		r.Post("/", h.saveEstimate)
		r.Delete("/{id}", h.deleteEstimate)
		r.Put("/{id}/status", h.setEstimateStatus)
		r.Post("/{id}/template", h.saveTemplate)
	})
	r.Get("/templates", h.listTemplates)
	r.Delete("/templates/{lm}", h.deleteTemplate)
	r.Post("/calculate", h.calculate)
	r.Post("/export/{format}", h.export)
	r.Post("/suggest", h.suggest)

	r.Get("/backup", h.exportBackup)
	r.Post("/restore", h.restoreBackup)

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.listProjects)
		r.Post("/", h.saveProject)
		r.Get("/{id}", h.projectDetail)
		r.Post("/{id}/act", h.projectAct)
		r.Put("/{id}/status", h.setProjectStatus)
		r.Delete("/{id}", h.deleteProject)
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.listTasks)
		r.Post("/", h.addTask)
		r.Put("/{id}", h.saveTask)
		r.Post("/{id}/toggle", h.toggleTask)
		r.Post("/{id}/postpone", h.postponeTask)
		r.Delete("/{id}", h.deleteTask)
	})
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.listTools)
		r.Post("/", h.addTool)
		r.Post("/{id}/move", h.moveTool)
		r.Delete("/{id}", h.deleteTool)
	})
	r.Route("/scratchpad", func(r chi.Router) {
		r.Get("/", h.listScratch)
		r.Post("/", h.addScratch)
		r.Post("/{id}/toggle", h.toggleScratch)
		r.Delete("/{id}", h.deleteScratch)
	})
	r.Route("/library", func(r chi.Router) {
		r.Get("/", h.listLibrary)
		r.Post("/", h.addLibraryItem)
		r.Delete("/{id}", h.deleteLibraryItem)
		r.Post("/import", h.importLibrary)
		r.Get("/export", h.exportLibrary)
	})
	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.saveProfile)
	r.Get("/theme", h.getTheme)
	r.Put("/theme", h.setTheme)
	r.Post("/theme/toggle", h.toggleTheme)
}

type ownerKey struct{}

func ownerFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ownerKey{}).(int64)
	return id
}

// WithOwner is used by tests and by callers that authenticate elsewhere.
func WithOwner(ctx context.Context, owner int64) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

func initData(r *http.Request) string {
	if v := r.Header.Get(InitDataHeader); v != "" {
		return v
	}
	auth := r.Header.Get("Authorization")
	if rest, ok := strings.CutPrefix(auth, "tma "); ok {
		return rest
	}
	return ""
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := initData(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "init data is missing")
			return
		}
		data, err := h.Auth.Validate(raw)
		if err != nil {
			h.Log.Warn("init data rejected", "err", err, "remote", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "init data is invalid")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), data.User.ID)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{errBadRequest, http.StatusBadRequest},
	{estimate.ErrNotFound, http.StatusNotFound},
	{estimate.ErrInvalidStatus, http.StatusBadRequest},
	{estimate.ErrNoValidItems, http.StatusUnprocessableEntity},
	{act.ErrNothingToCertify, http.StatusUnprocessableEntity},
	{projects.ErrNotFound, http.StatusNotFound},
	{projects.ErrNameRequired, http.StatusBadRequest},
	{tasks.ErrNotFound, http.StatusNotFound},
	{tasks.ErrEmptyText, http.StatusBadRequest},
	{inventory.ErrNotFound, http.StatusNotFound},
	{inventory.ErrNameRequired, http.StatusBadRequest},
	{inventory.ErrSameLocation, http.StatusConflict},
	{scratchpad.ErrNotFound, http.StatusNotFound},
	{scratchpad.ErrEmptyText, http.StatusBadRequest},
	{library.ErrNotFound, http.StatusNotFound},
	{library.ErrNameRequired, http.StatusBadRequest},
	{library.ErrBadPrice, http.StatusBadRequest},
	{settings.ErrUnknownTheme, http.StatusBadRequest},
	{backup.ErrMalformed, http.StatusBadRequest},
	{xlsx.ErrUnreadable, http.StatusBadRequest},
	{xlsx.ErrNoRows, http.StatusBadRequest},
	{xlsx.ErrNoColumns, http.StatusBadRequest},
	{mailer.ErrBadRecipient, http.StatusBadRequest},
	{mailer.ErrDisabled, http.StatusServiceUnavailable},
	{ai.ErrEmptyQuery, http.StatusBadRequest},
	{ai.ErrDisabled, http.StatusServiceUnavailable},
	{ai.ErrBadReply, http.StatusBadGateway},
}

func statusOf(err error) int {
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// fail answers with the status the error maps to; unknown errors are logged
// and hidden behind a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error("api request failed", "path", r.URL.Path, "owner", ownerFrom(r.Context()), "err", err)
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

// decode reads a JSON body and validates it when it carries validate tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return err
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, name)
	}
	return id, nil
}
