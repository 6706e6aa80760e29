// Package httpapi serves stored pull requests and report data over a read-only HTTP API.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/huangsam/sizeup/core"
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
)

// Handler answers API requests from the persistent store.
type Handler struct {
	store contract.Store
	now   func() time.Time
}

// NewHandler creates a handler over store.
func NewHandler(store contract.Store) *Handler {
	return &Handler{
		store: store,
		now:   time.Now,
	}
}

// Router returns the chi router with every route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/healthz", h.Health)
	r.Get("/status", h.GetStatus)

	r.Route("/repos/{owner}/{name}", func(r chi.Router) {
		r.Get("/pulls/{number}", h.GetPullRequest)
		r.Get("/reports/{statType}", h.GetReport)
	})

	return r
}

// Health reports whether the store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.GetStatus(r.Context()); err != nil {
		slog.Error("Health check failed", "err", err)
		respondError(w, http.StatusServiceUnavailable, "UNHEALTHY", "store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStatus returns store counts and sizes.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.GetStatus(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// GetPullRequest returns one stored pull request.
func (h *Handler) GetPullRequest(w http.ResponseWriter, r *http.Request) {
	repository := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "pull request number must be a positive integer")
		return
	}

	record, err := h.store.GetPullRequest(r.Context(), repository, number)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// GetReport returns the chart datasets of one stat type. The window comes from
// the lookback, start-date and end-date query parameters.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	repository := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")
	statType := schema.StatType(chi.URLParam(r, "statType"))

	q := r.URL.Query()
	dr, err := contract.ResolveDateRange(q.Get("lookback"), q.Get("start-date"), q.Get("end-date"), h.now())
	if err != nil {
		h.handleError(w, err)
		return
	}

	data, err := core.CollectReportData(r.Context(), h.store, statType, repository, dr)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if data == nil {
		data = []schema.ChartData{}
	}

	respondJSON(w, http.StatusOK, reportPayload{
		Repository: repository,
		StatType:   statType,
		Range:      dr,
		Charts:     data,
	})
}
