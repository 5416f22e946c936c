package order

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ourbooktalk/booktalk-backend/internal/api"
	"github.com/ourbooktalk/booktalk-backend/internal/api/auth"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

type OrderHandler struct {
	service OrderService
	logger  *slog.Logger
}

func NewOrderHandler(service OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}

	var params types.CreateOrderParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.service.Create(r.Context(), user.ID, params)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Order creation failed", slog.Any("error", err))
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, order)
}

// Get handles GET /api/orders/{orderID}. Owner only.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid orderID")
		return
	}

	order, err := h.service.Get(r.Context(), user.ID, orderID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, order)
}

// List handles GET /api/orders, returning the caller's own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}

	orders, err := h.service.ListByUser(r.Context(), user.ID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	if orders == nil {
		orders = []types.Order{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, orders)
}
