package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Spok95/smeta-bot/internal/domain/act"
	"github.com/Spok95/smeta-bot/internal/infra/pdf"
)

type actRequest struct {
	Number string `json:"number"`
	// Пусто: сегодня.
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	// json отдаёт предпросмотр с суммой прописью вместо файла.
	Format string `json:"format" validate:"omitempty,oneof=pdf json"`
}

func (h *Handler) buildAct(ctx context.Context, owner, projectID int64, req actRequest) (act.Act, error) {
	p, err := h.Projects.Get(ctx, owner, projectID)
	if err != nil {
		return act.Act{}, err
	}
	date := req.Date
	if date == "" {
		date = h.Estimates.Now().Format(time.DateOnly)
	}
	return act.Build(p, h.Estimates.LoadAll(ctx, owner).Estimates, req.Number, date)
}

// projectAct issues the certificate of completed works for a project.
func (h *Handler) projectAct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req actRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, owner := r.Context(), ownerFrom(r.Context())
	a, err := h.buildAct(ctx, owner, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Format == "json" {
		writeJSON(w, http.StatusOK, a)
		return
	}
	body, err := h.actPDF(ctx, owner, a)
	h.Metrics.Export("act", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attach(w, "application/pdf", pdf.ActFileName(a.Number), body)
}

func (h *Handler) actPDF(ctx context.Context, owner int64, a act.Act) ([]byte, error) {
	if h.PDF == nil {
		return nil, fmt.Errorf("api: pdf generator is not configured")
	}
	return h.PDF.GenerateAct(a, h.Profile.Get(ctx, owner))
}
