package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront-checkout/domain"
)

var ErrOrderNotFound = errors.New("placed order not found")

// RecordOrderPlaced stores the order and its outbox event in one transaction.
// Recording the same idempotency key twice is a no-op.
func (r *Repository) RecordOrderPlaced(ctx context.Context, o domain.PlacedOrder) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order placed payload: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO placed_orders
			(idempotency_key, order_id, order_number, customer_id, email, item_count, subtotal, shipping, tax, total, placed_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		o.IdempotencyKey, o.OrderID, o.OrderNumber, o.CustomerID, o.Email, o.ItemCount,
		o.Subtotal, o.Shipping, o.Tax, o.Total, o.PlacedAt)
	if err != nil {
		return fmt.Errorf("insert placed order: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if inserted == 0 {
		return nil
	}

	aggregateID := o.OrderID
	if aggregateID == "" {
		aggregateID = o.IdempotencyKey
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_events (aggregate_id, event_type, payload)
		VALUES ($1, $2, $3)`,
		aggregateID, domain.EventOrderPlaced, payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetPlacedOrder returns the ledger row for an idempotency key.
func (r *Repository) GetPlacedOrder(ctx context.Context, idempotencyKey string) (*domain.PlacedOrder, error) {
	var (
		o          domain.PlacedOrder
		customerID *string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT idempotency_key, order_id, order_number, customer_id, email, item_count,
		       subtotal, shipping, tax, total, placed_at
		FROM placed_orders WHERE idempotency_key = $1`, idempotencyKey).
		Scan(&o.IdempotencyKey, &o.OrderID, &o.OrderNumber, &customerID, &o.Email, &o.ItemCount,
			&o.Subtotal, &o.Shipping, &o.Tax, &o.Total, &o.PlacedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get placed order: %w", err)
	}
	if customerID != nil {
		o.CustomerID = *customerID
	}
	return &o, nil
}
