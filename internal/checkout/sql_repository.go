package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/db"
	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// SQLRepository stores orders and the order outbox on PostgreSQL or SQLite.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(conn *sql.DB) *SQLRepository {
	return &SQLRepository{db: conn}
}

const orderColumns = `
	id, owner, idempotency_key, customer_name, customer_email, customer_phone,
	shipping_address, shipping_city, shipping_postal, notes, payment_method, items,
	subtotal, shipping, total, currency, status, created_at`

func (r *SQLRepository) CreateOrder(ctx context.Context, order *domain.Order, event *domain.OutboxEvent) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	c := order.Customer
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		order.ID, order.Owner, order.IdempotencyKey, c.Name, c.Email, c.Phone,
		c.Address, c.City, c.PostalCode, c.Notes, order.PaymentMethod, string(itemsJSON),
		order.Subtotal, order.Shipping, order.Total, order.Currency, string(order.Status), order.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.AggregateID, event.EventType, string(event.Payload), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	return r.getOrder(ctx, "idempotency_key = $1", key)
}

func (r *SQLRepository) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOrder(ctx, "id = $1", id)
}

func (r *SQLRepository) getOrder(ctx context.Context, cond string, arg any) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE "+cond, arg)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *SQLRepository) ListOrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error) {
	return r.listOrders(ctx, "SELECT "+orderColumns+` FROM orders WHERE owner = $1
		ORDER BY created_at DESC, id`, owner)
}

// ListOrders returns the newest orders of every owner; limit <= 0 returns all of them.
func (r *SQLRepository) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC, id"
	if limit > 0 {
		return r.listOrders(ctx, query+" LIMIT $1", limit)
	}
	return r.listOrders(ctx, query)
}

func (r *SQLRepository) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// GetUnprocessedEvents returns up to limit outbox events that have not been published, oldest first.
func (r *SQLRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var ev domain.OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox: %w", err)
	}
	return events, nil
}

func (r *SQLRepository) MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET processed_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark outbox event %s processed: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
		status    string
	)
	c := &o.Customer
	err := row.Scan(
		&o.ID, &o.Owner, &o.IdempotencyKey, &c.Name, &c.Email, &c.Phone,
		&c.Address, &c.City, &c.PostalCode, &c.Notes, &o.PaymentMethod, &itemsJSON,
		&o.Subtotal, &o.Shipping, &o.Total, &o.Currency, &status, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
