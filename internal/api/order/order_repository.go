package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ourbooktalk/booktalk-backend/app/observability/metrics"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

var _ OrderRepo = (*PostgresOrderRepo)(nil)

// OrderRepo defines the order persistence contract.
type OrderRepo interface {
	// Create prices each item from the catalog inside one transaction and
	// stores the order as pending.
	Create(ctx context.Context, userID uuid.UUID, params types.CreateOrderParams) (*types.Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*types.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Order, error)
}

type PostgresOrderRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresOrderRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresOrderRepo {
	return &PostgresOrderRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresOrderRepo) wrapQueryErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, types.ErrNotFound)
	}
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
	r.logger.ErrorContext(ctx, "Query failed", slog.String("op", op), slog.Any("error", err))
	return fmt.Errorf("%s: %w", op, types.ErrUnavailable)
}

// Create snapshots the catalog price of every item at order time. The
// client-supplied prices are ignored; a missing book aborts the whole order.
func (r *PostgresOrderRepo) Create(ctx context.Context, userID uuid.UUID, params types.CreateOrderParams) (*types.Order, error) {
	ctx, span := otel.Tracer("OrderRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "orders"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "create order", err)
	}
	defer tx.Rollback(ctx)

	var total float64
	items := make([]types.OrderItem, 0, len(params.Items))
	for _, item := range params.Items {
		var price float64
		err = tx.QueryRow(ctx, "SELECT price FROM books WHERE id = $1", item.BookID).Scan(&price)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("create order: book %s: %w", item.BookID, types.ErrNotFound)
			}
			return nil, r.wrapQueryErr(ctx, "create order", err)
		}
		total += price
		items = append(items, types.OrderItem{BookID: item.BookID, Price: price})
	}

	var order types.Order
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total, ship_street, ship_city, ship_state, ship_zip_code, ship_country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, total, status, payment_intent_id,
		          ship_street, ship_city, ship_state, ship_zip_code, ship_country, created_at`,
		userID, total, params.Shipping.Street, params.Shipping.City, params.Shipping.State,
		params.Shipping.ZipCode, params.Shipping.Country,
	).Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.PaymentIntentID,
		&order.Shipping.Street, &order.Shipping.City, &order.Shipping.State,
		&order.Shipping.ZipCode, &order.Shipping.Country, &order.CreatedAt)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "create order", err)
	}

	for _, item := range items {
		if _, err = tx.Exec(ctx,
			"INSERT INTO order_items (order_id, book_id, price) VALUES ($1, $2, $3)",
			order.ID, item.BookID, item.Price); err != nil {
			return nil, r.wrapQueryErr(ctx, "create order", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, r.wrapQueryErr(ctx, "create order", err)
	}

	order.Items = items
	return &order, nil
}

func (r *PostgresOrderRepo) GetByID(ctx context.Context, orderID uuid.UUID) (*types.Order, error) {
	ctx, span := otel.Tracer("OrderRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "orders"),
		attribute.String("db.order.id", orderID.String()),
	))
	defer span.End()

	var order types.Order
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, user_id, total, status, payment_intent_id,
		       ship_street, ship_city, ship_state, ship_zip_code, ship_country, created_at
		FROM orders WHERE id = $1`,
		orderID).Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.PaymentIntentID,
		&order.Shipping.Street, &order.Shipping.City, &order.Shipping.State,
		&order.Shipping.ZipCode, &order.Shipping.Country, &order.CreatedAt)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "get order", err)
	}

	items, err := r.listItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *PostgresOrderRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]types.OrderItem, error) {
	rows, err := r.pgpool.Query(ctx,
		"SELECT book_id, price FROM order_items WHERE order_id = $1", orderID)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "list order items", err)
	}
	defer rows.Close()

	var items []types.OrderItem
	for rows.Next() {
		var item types.OrderItem
		if err := rows.Scan(&item.BookID, &item.Price); err != nil {
			return nil, r.wrapQueryErr(ctx, "list order items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, "list order items", err)
	}
	return items, nil
}

func (r *PostgresOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Order, error) {
	ctx, span := otel.Tracer("OrderRepo").Start(ctx, "ListByUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "orders"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT id, user_id, total, status, payment_intent_id,
		       ship_street, ship_city, ship_state, ship_zip_code, ship_country, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "list orders", err)
	}
	defer rows.Close()

	var orders []types.Order
	for rows.Next() {
		var order types.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.PaymentIntentID,
			&order.Shipping.Street, &order.Shipping.City, &order.Shipping.State,
			&order.Shipping.ZipCode, &order.Shipping.Country, &order.CreatedAt); err != nil {
			return nil, r.wrapQueryErr(ctx, "list orders", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, "list orders", err)
	}

	for i := range orders {
		items, err := r.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}
