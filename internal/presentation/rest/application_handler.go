package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/application/usecase"
)

// ApplicationHandler serves the loan application endpoints.
type ApplicationHandler struct {
	submit *usecase.SubmitApplicationUseCase
	get    *usecase.GetApplicationUseCase
	logger *slog.Logger
}

// NewApplicationHandler creates the handler.
func NewApplicationHandler(
	submit *usecase.SubmitApplicationUseCase,
	get *usecase.GetApplicationUseCase,
	logger *slog.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{submit: submit, get: get, logger: logger}
}

// RegisterRoutes attaches application routes to the given mux.
func (h *ApplicationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/applications", h.create)
	mux.HandleFunc("GET /api/v1/applications", h.list)
	mux.HandleFunc("GET /api/v1/applications/{id}", h.getByID)
}

func (h *ApplicationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.submit.Execute(r.Context(), req)
	if err != nil {
		h.logger.Warn("submit application rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *ApplicationHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	resp, err := h.get.ExecuteList(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ApplicationHandler) getByID(w http.ResponseWriter, r *http.Request) {
	resp, err := h.get.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
