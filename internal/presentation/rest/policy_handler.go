package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/application/usecase"
)

// PolicyHandler serves the lender policy endpoints.
type PolicyHandler struct {
	save   *usecase.SavePolicyUseCase
	list   *usecase.ListPoliciesUseCase
	logger *slog.Logger
}

// NewPolicyHandler creates the handler.
func NewPolicyHandler(
	save *usecase.SavePolicyUseCase,
	list *usecase.ListPoliciesUseCase,
	logger *slog.Logger,
) *PolicyHandler {
	return &PolicyHandler{save: save, list: list, logger: logger}
}

// RegisterRoutes attaches lender policy routes to the given mux.
func (h *PolicyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/lenders", h.create)
	mux.HandleFunc("GET /api/v1/lenders", h.listAll)
	mux.HandleFunc("GET /api/v1/lenders/{id}", h.get)
	mux.HandleFunc("PUT /api/v1/lenders/{id}", h.update)
	mux.HandleFunc("DELETE /api/v1/lenders/{id}", h.delete)
}

func (h *PolicyHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.SavePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.save.ExecuteCreate(r.Context(), req)
	if err != nil {
		h.logger.Warn("create policy rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *PolicyHandler) listAll(w http.ResponseWriter, r *http.Request) {
	resp, err := h.list.Execute(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PolicyHandler) get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.list.ExecuteGet(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PolicyHandler) update(w http.ResponseWriter, r *http.Request) {
	var req dto.SavePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.save.ExecuteUpdate(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PolicyHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.save.ExecuteDelete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
