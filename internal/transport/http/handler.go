package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"famledger/internal/model"
	"famledger/internal/service"
)

type Handler struct {
	svc service.LedgerService
}

func NewHandler(svc service.LedgerService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /balance", h.GetBalance)
	mux.HandleFunc("GET /transactions", h.ListTransactions)
	mux.HandleFunc("POST /adjustments", h.Adjust)

	mux.HandleFunc("POST /chores", h.CreateChore)
	mux.HandleFunc("POST /chores/{id}/complete", h.CompleteChore)
	mux.HandleFunc("POST /chores/{id}/approve", h.ApproveChore)
	mux.HandleFunc("POST /chores/{id}/reject", h.RejectChore)

	mux.HandleFunc("POST /rewards", h.CreateReward)
	mux.HandleFunc("POST /rewards/{id}/redeem", h.Redeem)
	mux.HandleFunc("POST /redemptions/{id}/approve", h.ApproveRedemption)
	mux.HandleFunc("POST /redemptions/{id}/reject", h.RejectRedemption)

	mux.HandleFunc("POST /allowances", h.CreateAllowance)
	mux.HandleFunc("POST /allowances/run", h.RunAllowances)
	mux.HandleFunc("POST /allowances/{id}/pause", h.PauseAllowance)
	mux.HandleFunc("POST /allowances/{id}/resume", h.ResumeAllowance)

	mux.HandleFunc("POST /grace/request", h.RequestGrace)
	mux.HandleFunc("POST /grace/{id}/approve", h.ApproveGrace)
	mux.HandleFunc("POST /grace/{id}/deny", h.DenyGrace)
}

// actor reads the caller identity injected by the upstream auth layer. The
// core trusts these headers; authentication happens before requests get here.
func actor(r *http.Request) (model.Actor, bool) {
	a := model.Actor{
		ID:       r.Header.Get("X-Actor-Id"),
		Role:     model.Role(r.Header.Get("X-Actor-Role")),
		FamilyID: r.Header.Get("X-Family-Id"),
	}
	return a, a.ID != "" && (a.Role == model.RoleParent || a.Role == model.RoleChild)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("member_id")
	resource := model.ResourceType(r.URL.Query().Get("resource_type"))
	if memberID == "" || !resource.Valid() {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	bal, err := h.svc.GetBalance(r.Context(), memberID, resource)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, bal)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("member_id")
	resource := model.ResourceType(r.URL.Query().Get("resource_type"))
	if memberID == "" || !resource.Valid() {
		h.respondError(w, http.StatusBadRequest, "missing_params")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		// Bad values fall back to the service default.
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	txns, err := h.svc.ListTransactions(r.Context(), memberID, resource, limit)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	var req struct {
		MemberID     string             `json:"member_id"`
		ResourceType model.ResourceType `json:"resource_type"`
		Amount       int64              `json:"amount"`
		Reason       string             `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	txn, err := h.svc.Adjust(r.Context(), a, req.MemberID, req.ResourceType, req.Amount, req.Reason)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, txn)
}

func (h *Handler) CreateChore(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	var req struct {
		Title            string `json:"title"`
		AssignedToID     string `json:"assigned_to_id"`
		CreditValue      int64  `json:"credit_value"`
		RequiresApproval bool   `json:"requires_approval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	ch, err := h.svc.CreateChore(r.Context(), a, req.Title, req.AssignedToID, req.CreditValue, req.RequiresApproval)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, ch)
}

func (h *Handler) CompleteChore(w http.ResponseWriter, r *http.Request) {
	h.choreTransition(w, r, h.svc.CompleteChore)
}

func (h *Handler) ApproveChore(w http.ResponseWriter, r *http.Request) {
	h.choreTransition(w, r, h.svc.ApproveChore)
}

func (h *Handler) RejectChore(w http.ResponseWriter, r *http.Request) {
	h.choreTransition(w, r, h.svc.RejectChore)
}

func (h *Handler) choreTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, a model.Actor, id string) (*model.ChoreInstance, error)) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	ch, err := op(r.Context(), a, r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, ch)
}

func (h *Handler) CreateReward(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	var req struct {
		Name        string `json:"name"`
		CostCredits int64  `json:"cost_credits"`
		Quantity    *int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	rw, err := h.svc.CreateReward(r.Context(), a, req.Name, req.CostCredits, req.Quantity)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, rw)
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	red, err := h.svc.Redeem(r.Context(), a, r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, red)
}

func (h *Handler) ApproveRedemption(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	red, err := h.svc.ApproveRedemption(r.Context(), a, r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, red)
}

func (h *Handler) RejectRedemption(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	red, err := h.svc.RejectRedemption(r.Context(), a, r.PathValue("id"), req.Reason)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, red)
}

func (h *Handler) CreateAllowance(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	var req struct {
		MemberID   string                   `json:"member_id"`
		Amount     int64                    `json:"amount"`
		Frequency  model.AllowanceFrequency `json:"frequency"`
		DayOfWeek  int                      `json:"day_of_week"`
		DayOfMonth int                      `json:"day_of_month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	s, err := h.svc.CreateAllowance(r.Context(), a, req.MemberID, req.Amount, req.Frequency, req.DayOfWeek, req.DayOfMonth)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, s)
}

// RunAllowances is the external scheduling trigger: a daily job calls it once
// per day. Idempotency comes from the per-schedule watermark, not from here.
func (h *Handler) RunAllowances(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.DistributeAllowances(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sum)
}

func (h *Handler) PauseAllowance(w http.ResponseWriter, r *http.Request) {
	h.setAllowancePaused(w, r, true)
}

func (h *Handler) ResumeAllowance(w http.ResponseWriter, r *http.Request) {
	h.setAllowancePaused(w, r, false)
}

func (h *Handler) setAllowancePaused(w http.ResponseWriter, r *http.Request, paused bool) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	s, err := h.svc.SetAllowancePaused(r.Context(), a, r.PathValue("id"), paused)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, s)
}

func (h *Handler) RequestGrace(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	res, err := h.svc.RequestGrace(r.Context(), a, req.Reason)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) ApproveGrace(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	res, err := h.svc.ApproveGrace(r.Context(), a, r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) DenyGrace(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing_actor")
		return
	}
	lg, err := h.svc.DenyGrace(r.Context(), a, r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, lg)
}

// respondServiceError maps each error kind to a distinct status so callers
// can tell "already processed" from "not allowed" from "insufficient funds".
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		h.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrForbidden):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidState):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrInsufficientBalance),
		errors.Is(err, model.ErrOutOfStock),
		errors.Is(err, model.ErrBalanceNotLowEnough),
		errors.Is(err, model.ErrDailyLimitExceeded),
		errors.Is(err, model.ErrWeeklyLimitExceeded):
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrTransientStore):
		h.respondError(w, http.StatusServiceUnavailable, "store_unavailable")
	default:
		h.respondError(w, http.StatusInternalServerError, "internal_error")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
