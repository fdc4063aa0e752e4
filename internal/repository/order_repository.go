package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_delivery/internal/domain"
)

// CreateOrder inserts the header and all lines in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, event *domain.OutboxEvent) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, customer_name, email, phone, delivery_address, source, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			order.ID,
			order.CustomerName,
			nullString(order.Email),
			order.Phone,
			order.DeliveryAddress,
			string(order.Source),
			order.CreatedAt,
			order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := insertLines(ctx, tx, order); err != nil {
			return err
		}
		return insertEvent(ctx, tx, event)
	})
}

// ReplaceOrder updates the header and swaps the whole line set. Lines are
// deleted then re-inserted inside the same transaction, so a failure leaves
// the previous lines in place.
func (r *Repository) ReplaceOrder(ctx context.Context, order *domain.Order, event *domain.OutboxEvent) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET customer_name = $1, phone = $2, delivery_address = $3, updated_at = $4
			 WHERE id = $5`,
			order.CustomerName,
			order.Phone,
			order.DeliveryAddress,
			order.UpdatedAt,
			order.ID)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := expectOne(res, ErrOrderNotFound); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, order.ID); err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}

		if err := insertLines(ctx, tx, order); err != nil {
			return err
		}
		return insertEvent(ctx, tx, event)
	})
}

// DeleteOrder removes the header; lines go with it through the cascade.
func (r *Repository) DeleteOrder(ctx context.Context, id string, event *domain.OutboxEvent) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		if err := expectOne(res, ErrOrderNotFound); err != nil {
			return err
		}
		return insertEvent(ctx, tx, event)
	})
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, customer_name, email, phone, delivery_address, source, created_at, updated_at
		 FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	lines, err := r.queryLines(ctx, `WHERE l.order_id = $1`, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines[order.ID]
	return order, nil
}

// ListOrders returns every order, newest first, with its lines.
func (r *Repository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_name, email, phone, delivery_address, source, created_at, updated_at
		 FROM orders ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	lines, err := r.queryLines(ctx, ``)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

// queryLines loads lines with the current product name, grouped by order id.
// Lines whose product was deleted keep an empty name.
func (r *Repository) queryLines(ctx context.Context, where string, args ...any) (map[string][]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.order_id, l.product_id, p.name, l.quantity, l.unit_price
		 FROM order_lines l LEFT JOIN products p ON p.id = l.product_id `+where+`
		 ORDER BY l.order_id, l.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderLine)
	for rows.Next() {
		var (
			l    domain.OrderLine
			name sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &name, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		l.ProductName = name.String
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o      domain.Order
		email  sql.NullString
		source string
	)
	err := row.Scan(&o.ID, &o.CustomerName, &email, &o.Phone, &o.DeliveryAddress, &source, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}
	o.Email = email.String
	o.Source = domain.OrderSource(source)
	return &o, nil
}

func insertLines(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	for i, l := range order.Lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price, position)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, order.ID, l.ProductID, l.Quantity, l.UnitPrice.StringFixed(2), i)
		if err != nil {
			return fmt.Errorf("insert order line %s: %w", l.ProductID, err)
		}
	}
	return nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, event *domain.OutboxEvent) error {
	if event == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)`,
		event.AggregateID, event.EventType, string(event.Payload), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
