package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/celulandia/cuentas/internal/adapter/http/dto"
	"github.com/celulandia/cuentas/internal/domain"
	"github.com/celulandia/cuentas/internal/usecase"
)

const maxFormBytes = 64 << 10

// MovementService defines the behavior needed by MovementHandler.
type MovementService interface {
	Preview(ctx context.Context, input usecase.FormInput) (*domain.Totals, error)
	Create(ctx context.Context, input usecase.FormInput) (*domain.Movement, error)
	Update(ctx context.Context, id string, input usecase.FormInput) (*domain.Movement, error)
	Get(ctx context.Context, id string) (*domain.Movement, error)
	List(ctx context.Context, input usecase.ListInput) ([]usecase.MovementView, error)
	Delete(ctx context.Context, id string) error
}

// MovementHandler handles movement-related HTTP requests.
type MovementHandler struct {
	movementUC MovementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementUC MovementService) *MovementHandler {
	return &MovementHandler{movementUC: movementUC}
}

// Preview computes totals for a form without saving it.
func (h *MovementHandler) Preview(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeForm(w, r)
	if !ok {
		return
	}

	totals, err := h.movementUC.Preview(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to preview movement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TotalsFromDomain(totals))
}

// Create saves a new movement.
func (h *MovementHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeForm(w, r)
	if !ok {
		return
	}

	movement, err := h.movementUC.Create(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create movement", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement, ""))
}

// Update saves the edited form. An unchanged form is answered with changed=false.
func (h *MovementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing movement ID", "")
		return
	}

	input, ok := decodeForm(w, r)
	if !ok {
		return
	}

	movement, err := h.movementUC.Update(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, domain.ErrNoChanges) {
			writeJSON(w, http.StatusOK, dto.NoChangesResponse{Message: domain.ErrNoChanges.Error(), Changed: false})
			return
		}
		writeError(w, mapDomainError(err), "failed to update movement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement, ""))
}

// Get retrieves a movement by ID.
func (h *MovementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing movement ID", "")
		return
	}

	viewAs, err := parseViewAs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid view_as", err.Error())
		return
	}

	movement, err := h.movementUC.Get(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get movement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement, viewAs))
}

// List lists movements.
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	viewAs, err := parseViewAs(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid view_as", err.Error())
		return
	}

	var kind domain.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		if kind, err = domain.ParseKind(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid kind", err.Error())
			return
		}
	}

	limit, offset := domain.ValidatePagination(parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))

	views, err := h.movementUC.List(r.Context(), usecase.ListInput{
		Cliente: r.URL.Query().Get("cliente"),
		Kind:    kind,
		Caja:    r.URL.Query().Get("caja"),
		ViewAs:  viewAs,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list movements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListMovementsResponse{
		Movimientos: dto.MovementsFromViews(views),
		Limit:       limit,
		Offset:      offset,
	})
}

// Delete removes a movement.
func (h *MovementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing movement ID", "")
		return
	}

	if err := h.movementUC.Delete(r.Context(), id); err != nil {
		writeError(w, mapDomainError(err), "failed to delete movement", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeForm(w http.ResponseWriter, r *http.Request) (usecase.FormInput, bool) {
	var req dto.MovementFormRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return usecase.FormInput{}, false
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return usecase.FormInput{}, false
	}

	return input, true
}
