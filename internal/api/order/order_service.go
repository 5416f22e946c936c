package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

var _ OrderService = (*OrderServiceImpl)(nil)

// OrderService covers checkout. Orders are created pending; payment capture
// happens out of band and flips the status later.
type OrderService interface {
	Create(ctx context.Context, userID uuid.UUID, params types.CreateOrderParams) (*types.Order, error)
	// Get returns the order only to the user who placed it.
	Get(ctx context.Context, callerID, orderID uuid.UUID) (*types.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Order, error)
}

type OrderServiceImpl struct {
	logger *slog.Logger
	repo   OrderRepo
}

func NewOrderService(repo OrderRepo, logger *slog.Logger) *OrderServiceImpl {
	return &OrderServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *OrderServiceImpl) Create(ctx context.Context, userID uuid.UUID, params types.CreateOrderParams) (*types.Order, error) {
	l := s.logger.With(slog.String("method", "Create"))

	if len(params.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item: %w", types.ErrValidation)
	}
	seen := make(map[uuid.UUID]bool, len(params.Items))
	for _, item := range params.Items {
		if item.BookID == uuid.Nil {
			return nil, fmt.Errorf("order item is missing a book: %w", types.ErrValidation)
		}
		if seen[item.BookID] {
			return nil, fmt.Errorf("order lists the same book twice: %w", types.ErrValidation)
		}
		seen[item.BookID] = true
	}

	order, err := s.repo.Create(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	l.InfoContext(ctx, "Order created",
		slog.String("orderID", order.ID.String()),
		slog.String("userID", userID.String()),
		slog.Float64("total", order.Total))
	return order, nil
}

func (s *OrderServiceImpl) Get(ctx context.Context, callerID, orderID uuid.UUID) (*types.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID {
		return nil, fmt.Errorf("order belongs to another user: %w", types.ErrForbidden)
	}
	return order, nil
}

func (s *OrderServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}
