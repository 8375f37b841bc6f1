package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Spok95/smeta-bot/internal/domain/documents"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/finance"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/library"
	"github.com/Spok95/smeta-bot/internal/domain/notes"
	"github.com/Spok95/smeta-bot/internal/domain/photos"
	"github.com/Spok95/smeta-bot/internal/domain/profile"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
	"github.com/Spok95/smeta-bot/internal/domain/settings"
	"github.com/Spok95/smeta-bot/internal/domain/stages"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
	"github.com/Spok95/smeta-bot/internal/infra/xlsx"
)

// ---- проекты ----

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list := h.Projects.Search(r.Context(), ownerFrom(r.Context()), projects.Status(q.Get("status")), q.Get("q"))
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) saveProject(w http.ResponseWriter, r *http.Request) {
	var p projects.Project
	if err := h.decode(w, r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.Projects.Save(r.Context(), ownerFrom(r.Context()), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type projectView struct {
	Project   projects.Project     `json:"project"`
	Estimates []estimate.Estimate  `json:"estimates"`
	Finance   []finance.Entry      `json:"finance"`
	Summary   finance.Summary      `json:"summary"`
	Photos    []photos.Report      `json:"photos"`
	Documents []documents.Document `json:"documents"`
	Stages    []stages.Stage       `json:"stages"`
	Progress  float64              `json:"progress"`
	Notes     []notes.Note         `json:"notes"`
}

// projectDetail gathers everything that belongs to one project.
func (h *Handler) projectDetail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, owner := r.Context(), ownerFrom(r.Context())
	p, err := h.Projects.Get(ctx, owner, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries := h.Finance.ForProject(ctx, owner, id)
	st := h.Stages.ForProject(ctx, owner, id)
	writeJSON(w, http.StatusOK, projectView{
		Project:   p,
		Estimates: h.Estimates.LoadAll(ctx, owner).ForProject(id),
		Finance:   entries,
		Summary:   finance.Summarize(entries),
		Photos:    h.Photos.ForProject(ctx, owner, id),
		Documents: h.Documents.ForProject(ctx, owner, id),
		Stages:    st,
		Progress:  stages.Progress(st),
		Notes:     h.Notes.ForProject(ctx, owner, id),
	})
}

func (h *Handler) setProjectStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Status string `json:"status" validate:"oneof=in_progress completed"`
	}
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Projects.SetStatus(r.Context(), ownerFrom(r.Context()), id, projects.Status(req.Status)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteProject removes the project together with its estimates, finance,
// photos, documents, stages and notes.
func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Projects.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- задачи ----

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	f, ok := tasks.ParseFilter(r.URL.Query().Get("filter"))
	if !ok {
		h.fail(w, r, fmt.Errorf("%w: unknown filter", errBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.Tasks.Filtered(r.Context(), ownerFrom(r.Context()), f))
}

func (h *Handler) addTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.Tasks.Add(r.Context(), ownerFrom(r.Context()), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) saveTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var t tasks.Task
	if err := h.decode(w, r, &t); err != nil {
		h.fail(w, r, err)
		return
	}
	t.ID = id
	saved, err := h.Tasks.Save(r.Context(), ownerFrom(r.Context()), t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) taskAction(w http.ResponseWriter, r *http.Request, action func(owner, id int64) (tasks.Task, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := action(ownerFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) toggleTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, func(owner, id int64) (tasks.Task, error) { return h.Tasks.Toggle(r.Context(), owner, id) })
}

func (h *Handler) postponeTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, func(owner, id int64) (tasks.Task, error) { return h.Tasks.Postpone(r.Context(), owner, id) })
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Tasks.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- инструмент ----

type toolsView struct {
	Tools     []inventory.Tool `json:"tools"`
	Locations []string         `json:"locations"`
	Notes     []inventory.Note `json:"notes"`
}

func (h *Handler) listTools(w http.ResponseWriter, r *http.Request) {
	ctx, owner := r.Context(), ownerFrom(r.Context())
	tools := h.Inventory.Tools(ctx, owner)
	writeJSON(w, http.StatusOK, toolsView{Tools: tools, Locations: inventory.Locations(tools), Notes: h.Inventory.Notes(ctx, owner)})
}

func (h *Handler) addTool(w http.ResponseWriter, r *http.Request) {
	var t inventory.Tool
	if err := h.decode(w, r, &t); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.Inventory.Add(r.Context(), ownerFrom(r.Context()), t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type moveRequest struct {
	To    string `json:"to" validate:"required"`
	Notes string `json:"notes"`
}

func (h *Handler) moveTool(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req moveRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.Inventory.Move(r.Context(), ownerFrom(r.Context()), id, req.To, req.Notes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) deleteTool(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Inventory.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- блокнот ----

func (h *Handler) listScratch(w http.ResponseWriter, r *http.Request) {
	items, err := h.Scratch.Items(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) addScratch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	it, err := h.Scratch.Add(r.Context(), ownerFrom(r.Context()), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) toggleScratch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	it, err := h.Scratch.Toggle(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) deleteScratch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Scratch.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- справочник ----

func (h *Handler) listLibrary(w http.ResponseWriter, r *http.Request) {
	ctx, owner := r.Context(), ownerFrom(r.Context())
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		writeJSON(w, http.StatusOK, h.Library.Search(ctx, owner, q))
		return
	}
	writeJSON(w, http.StatusOK, h.Library.List(ctx, owner))
}

func (h *Handler) addLibraryItem(w http.ResponseWriter, r *http.Request) {
	var it library.Item
	if err := h.decode(w, r, &it); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.Library.Add(r.Context(), ownerFrom(r.Context()), it)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) deleteLibraryItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Library.Delete(r.Context(), ownerFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// upload returns the "file" part of a multipart form or the whole body.
func upload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return data, nil
}

func (h *Handler) importLibrary(w http.ResponseWriter, r *http.Request) {
	data, err := upload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := xlsx.ReadLibrary(data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Library.Import(r.Context(), ownerFrom(r.Context()), rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) exportLibrary(w http.ResponseWriter, r *http.Request) {
	body, err := xlsx.Library(h.Library.List(r.Context(), ownerFrom(r.Context())))
	h.Metrics.Export("library", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attach(w, xlsxType, "library.xlsx", body)
}

// ---- профиль и тема ----

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Profile.Get(r.Context(), ownerFrom(r.Context())))
}

func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := h.decode(w, r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.Profile.Save(r.Context(), ownerFrom(r.Context()), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type themeView struct {
	Theme settings.Theme `json:"theme"`
}

func (h *Handler) getTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeView{Theme: h.Settings.Theme(r.Context(), ownerFrom(r.Context()))})
}

func (h *Handler) setTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := settings.ParseTheme(req.Theme)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Settings.SetTheme(r.Context(), ownerFrom(r.Context()), t); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeView{Theme: t})
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.Settings.ToggleTheme(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeView{Theme: t})
}
