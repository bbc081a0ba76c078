package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/application/usecase"
)

// UnderwritingHandler serves run submission, cancellation, and results.
type UnderwritingHandler struct {
	start  *usecase.StartUnderwritingRunUseCase
	cancel *usecase.CancelUnderwritingRunUseCase
	getRun *usecase.GetRunUseCase
	logger *slog.Logger
}

// NewUnderwritingHandler creates the handler.
func NewUnderwritingHandler(
	start *usecase.StartUnderwritingRunUseCase,
	cancel *usecase.CancelUnderwritingRunUseCase,
	getRun *usecase.GetRunUseCase,
	logger *slog.Logger,
) *UnderwritingHandler {
	return &UnderwritingHandler{start: start, cancel: cancel, getRun: getRun, logger: logger}
}

// RegisterRoutes attaches underwriting routes to the given mux.
func (h *UnderwritingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/applications/{id}/underwrite", h.startRun)
	mux.HandleFunc("DELETE /api/v1/applications/{id}/underwrite", h.cancelRun)
	mux.HandleFunc("GET /api/v1/applications/{id}/results", h.latestResults)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.getByID)
}

// startRun kicks off underwriting and blocks until the run is terminal.
// Submitting while a run is in flight acknowledges the existing run with 202.
func (h *UnderwritingHandler) startRun(w http.ResponseWriter, r *http.Request) {
	resp, err := h.start.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if resp.AlreadyRunning {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UnderwritingHandler) cancelRun(w http.ResponseWriter, r *http.Request) {
	runID, err := h.cancel.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrNoActiveRun) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"runId": runID, "status": "cancelling"})
}

func (h *UnderwritingHandler) latestResults(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getRun.ExecuteLatestForApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sortForPresentation(&resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *UnderwritingHandler) getByID(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getRun.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sortForPresentation(&resp)
	writeJSON(w, http.StatusOK, resp)
}

// sortForPresentation orders results for display: eligible lenders first,
// then by fit score descending. The stored run keeps catalog order.
func sortForPresentation(resp *dto.RunResponse) {
	sort.SliceStable(resp.Results, func(i, j int) bool {
		a, b := resp.Results[i], resp.Results[j]
		if a.Eligible != b.Eligible {
			return a.Eligible
		}
		return a.FitScore > b.FitScore
	})
}
