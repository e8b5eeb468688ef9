// Package explore serves the read-only dataset views of the dashboard.
package explore

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"maternal-risk/internal/dataset"
	"maternal-risk/internal/prediction"
	"maternal-risk/internal/report"
)

const (
	defaultRowLimit = 10
	maxRowLimit     = 100
)

// Views lists the dashboard sections in selector order.
var Views = []string{"Data Rows", "RiskLevel Counts", "Data Description", "RiskLevel Prediction"}

type Handler struct {
	data     *dataset.Dataset
	renderer *report.Renderer
	logger   *zap.Logger
}

// NewHandler serves views over data. renderer may be nil, in which case the
// count plot is unavailable.
func NewHandler(data *dataset.Dataset, renderer *report.Renderer, logger *zap.Logger) *Handler {
	return &Handler{data: data, renderer: renderer, logger: logger}
}

type rowsResponse struct {
	Columns []string              `json:"columns"`
	Rows    []dataset.Observation `json:"rows"`
	Total   int                   `json:"total"`
}

type viewsResponse struct {
	Views       []string           `json:"views"`
	InputBounds []prediction.Bound `json:"input_bounds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	limit := defaultRowLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRowLimit {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and " + strconv.Itoa(maxRowLimit)})
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, rowsResponse{
		Columns: h.data.Columns(),
		Rows:    h.data.Head(limit),
		Total:   h.data.Len(),
	})
}

func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.data.CountsByAge())
}

func (h *Handler) CountPlot(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "PDF rendering is not available"})
		return
	}
	doc, err := h.renderer.CountPlot(h.data.CountsByAge())
	if err != nil {
		h.logger.Error("failed to render count plot", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to render count plot"})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="riskLevel_counts.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (h *Handler) Describe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.data.Describe())
}

func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewsResponse{Views: Views, InputBounds: prediction.InputBounds})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/rows", h.Rows)
	r.Get("/counts", h.Counts)
	r.Get("/counts.pdf", h.CountPlot)
	r.Get("/describe", h.Describe)
	r.Get("/views", h.ListViews)
}
