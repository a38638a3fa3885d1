// Package httptransport serves the operational HTTP surface: liveness,
// readiness, metrics and token-guarded process inspection.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kyc/internal/process/models"
	"kyc/internal/stepstatus"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/httputil"
	"kyc/pkg/platform/middleware/admin"
	"kyc/pkg/platform/middleware/requesttime"
)

// Check reports whether a dependency is usable.
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// StatusFinder answers status lookups by national code.
type StatusFinder interface {
	FindStatus(ctx context.Context, nationalCode string) models.Status
}

// StepHistory lists the recorded steps of a process.
type StepHistory interface {
	History(ctx context.Context, pid id.ProcessID) ([]stepstatus.StepStatus, error)
}

// ProcessReader loads the folded state of a process.
type ProcessReader interface {
	State(ctx context.Context, pid id.ProcessID) (models.State, error)
}

type Handler struct {
	logger     *slog.Logger
	checks     []Check
	status     StatusFinder
	steps      StepHistory
	processes  ProcessReader
	adminToken string
}

func NewHandler(logger *slog.Logger, status StatusFinder, steps StepHistory, processes ProcessReader, adminToken string, checks ...Check) *Handler {
	return &Handler{
		logger:     logger,
		checks:     checks,
		status:     status,
		steps:      steps,
		processes:  processes,
		adminToken: adminToken,
	}
}

// NewRouter wires the ops endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/status/{nationalCode}", h.handleStatus)
		r.Get("/processes/{processID}", h.handleProcess)
		r.Get("/processes/{processID}/steps", h.handleSteps)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[c.Name] = "unavailable"
			h.logger.WarnContext(ctx, "readiness check failed", "check", c.Name, "error", err)
			continue
		}
		results[c.Name] = "ok"
	}
	httputil.WriteJSON(w, status, results)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.status.FindStatus(r.Context(), chi.URLParam(r, "nationalCode"))
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

type processResponse struct {
	ProcessID    string           `json:"process_id"`
	CustomerID   id.CustomerID    `json:"customer_id"`
	Status       string           `json:"status"`
	Version      int64            `json:"version"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	DoneSteps    []models.Step    `json:"done_steps"`
	Addresses    []models.Address `json:"addresses"`
	TermsVersion string           `json:"terms_version,omitempty"`
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	pid, err := id.ParseProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := h.processes.State(r.Context(), pid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, processResponse{
		ProcessID:    state.ProcessID.String(),
		CustomerID:   state.CustomerID,
		Status:       state.Status.String(),
		Version:      state.Version,
		StartedAt:    state.StartedAt,
		CompletedAt:  state.CompletedAt,
		DoneSteps:    state.DoneSteps(),
		Addresses:    state.Addresses,
		TermsVersion: state.TermsVersion,
	})
}

type stepResponse struct {
	Step       string    `json:"step"`
	State      string    `json:"state"`
	Cause      string    `json:"cause,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (h *Handler) handleSteps(w http.ResponseWriter, r *http.Request) {
	pid, err := id.ParseProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows, err := h.steps.History(r.Context(), pid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]stepResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, stepResponse{
			Step:       row.Step.String(),
			State:      string(row.State),
			Cause:      row.Cause,
			RecordedAt: row.RecordedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
