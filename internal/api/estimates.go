package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/infra/mailer"
	"github.com/Spok95/smeta-bot/internal/infra/pdf"
	"github.com/Spok95/smeta-bot/internal/infra/xlsx"
)

func (h *Handler) listEstimates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Estimates.LoadAll(r.Context(), ownerFrom(r.Context())))
}

type savedEstimate struct {
	Estimate   estimate.Estimate    `json:"estimate"`
	Totals     estimate.Calculation `json:"totals"`
	Collection estimate.Collection  `json:"collection"`
}

func (h *Handler) saveEstimate(w http.ResponseWriter, r *http.Request) {
	var e estimate.Estimate
	if err := h.decode(w, r, &e); err != nil {
		h.fail(w, r, err)
		return
	}
	c, saved, err := h.Estimates.Save(r.Context(), ownerFrom(r.Context()), e)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, savedEstimate{Estimate: saved, Totals: saved.Calculation(), Collection: c})
}

type removedEstimate struct {
	Collection estimate.Collection `json:"collection"`
	// Смета, которая стала активной вместо удалённой.
	Active *estimate.Estimate `json:"active"`
}

func (h *Handler) deleteEstimate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, fallback, err := h.Estimates.Remove(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removedEstimate{Collection: c, Active: fallback})
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) setEstimateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.Estimates.SetStatus(r.Context(), ownerFrom(r.Context()), id, estimate.Status(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) saveTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.Estimates.SaveAsTemplate(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Estimates.Templates(r.Context(), ownerFrom(r.Context())))
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	lm, err := idParam(r, "lm")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	left, err := h.Estimates.DeleteTemplate(r.Context(), ownerFrom(r.Context()), lm)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, left)
}

type calcItem struct {
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Type     string  `json:"type" validate:"omitempty,oneof=work material"`
}

type calcRequest struct {
	Items        []calcItem `json:"items" validate:"dive"`
	Discount     float64    `json:"discount"`
	DiscountType string     `json:"discountType" validate:"omitempty,oneof=percent fixed"`
	Tax          float64    `json:"tax"`
}

type calcResponse struct {
	estimate.Calculation
	Formatted map[string]string `json:"formatted"`
}

// calculate previews totals of an unsaved form.
func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req calcRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	items := make([]estimate.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = estimate.Item{Quantity: it.Quantity, Price: it.Price, Type: estimate.ItemType(it.Type)}
	}
	calc := estimate.Compute(items, req.Discount, estimate.DiscountType(req.DiscountType), req.Tax)
	writeJSON(w, http.StatusOK, calcResponse{
		Calculation: calc,
		Formatted: map[string]string{
			"subtotal":       estimate.FormatMoney(calc.Subtotal),
			"discountAmount": estimate.FormatMoney(calc.DiscountAmount),
			"taxAmount":      estimate.FormatMoney(calc.TaxAmount),
			"grandTotal":     estimate.FormatMoney(calc.GrandTotal),
		},
	})
}

type exportRequest struct {
	// 0 означает активную смету.
	EstimateID int64  `json:"estimateId"`
	To         string `json:"to" validate:"omitempty,email"`
}

func (h *Handler) document(ctx context.Context, owner, id int64) (estimate.Document, error) {
	c := h.Estimates.LoadAll(ctx, owner)
	var (
		e  estimate.Estimate
		ok bool
	)
	if id == 0 {
		e, ok = c.Active()
	} else {
		e, ok = c.Find(id)
	}
	if !ok {
		return estimate.Document{}, estimate.ErrNotFound
	}
	return estimate.NewDocument(e)
}

func attach(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	var req exportRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, owner := r.Context(), ownerFrom(r.Context())
	doc, err := h.document(ctx, owner, req.EstimateID)
	if err != nil {
		h.Metrics.Export(format, err)
		h.fail(w, r, err)
		return
	}

	switch format {
	case "pdf":
		body, err := h.pdf(ctx, owner, doc)
		h.Metrics.Export(format, err)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		attach(w, "application/pdf", pdf.FileName(doc.Number), body)
	case "xlsx":
		body, err := xlsx.Estimate(doc)
		h.Metrics.Export(format, err)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		attach(w, xlsxType, xlsx.FileName(doc.Number), body)
	case "share":
		h.Metrics.Export(format, nil)
		writeJSON(w, http.StatusOK, map[string]string{"text": estimate.ShareText(doc)})
	case "email":
		err := h.email(ctx, owner, req.To, doc)
		h.Metrics.Export(format, err)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"sentTo": req.To})
	default:
		h.fail(w, r, fmt.Errorf("%w: unknown export format %q", errBadRequest, format))
	}
}

func (h *Handler) pdf(ctx context.Context, owner int64, doc estimate.Document) ([]byte, error) {
	if h.PDF == nil {
		return nil, fmt.Errorf("api: pdf generator is not configured")
	}
	return h.PDF.Generate(doc, h.Profile.Get(ctx, owner))
}

func (h *Handler) email(ctx context.Context, owner int64, to string, doc estimate.Document) error {
	if to == "" {
		return fmt.Errorf("%w: recipient is required", errBadRequest)
	}
	if !h.Mailer.Enabled() {
		return mailer.ErrDisabled
	}
	body, err := h.pdf(ctx, owner, doc)
	if err != nil {
		return err
	}
	company := h.Profile.Get(ctx, owner)
	return h.Mailer.Send(ctx, to, company.Name, doc, mailer.Attachment{FileName: pdf.FileName(doc.Number), Content: body})
}

type suggestRequest struct {
	Query string `json:"query" validate:"required"`
}

// suggest returns draft items; the client decides whether to add them.
func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.AI.Suggest(r.Context(), req.Query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
