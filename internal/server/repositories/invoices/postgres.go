// Package invoices provides PostgreSQL-backed storage for invoices and their
// line items.
package invoices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/dbx"
	"github.com/samifathi/invoice-api/internal/server/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements invoice storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const invoiceCols = `id, invoice_number, customer_name, customer_email, customer_phone,
		customer_address, subtotal, tax, total, currency, status,
		issue_date, due_date, paid_date, notes, created_by, updated_by, created_at, updated_at`

// Create inserts an invoice and all of its items. Callers are expected to
// bind the repository to a transaction (dbx.WithTx).
func (r *PostgresRepository) Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {

	query :=
		`INSERT INTO invoices (invoice_number, customer_name, customer_email, customer_phone,
			customer_address, subtotal, tax, total, currency, status,
			issue_date, due_date, paid_date, notes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		inv.InvoiceNumber, inv.CustomerName, inv.CustomerEmail, inv.CustomerPhone,
		inv.CustomerAddress, inv.Subtotal, inv.Tax, inv.Total, inv.Currency, inv.Status,
		inv.IssueDate, inv.DueDate, inv.PaidDate, inv.Notes, inv.CreatedBy).
		Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.insertItems(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

// GetByID loads an invoice and its items.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	query := `SELECT ` + invoiceCols + ` FROM invoices WHERE id = $1`

	inv := &models.Invoice{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CustomerName, &inv.CustomerEmail, &inv.CustomerPhone,
		&inv.CustomerAddress, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Currency, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.PaidDate, &inv.Notes, &inv.CreatedBy, &inv.UpdatedBy,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	items, err := r.selectItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	return inv, nil
}

// List returns invoice summaries (no items), newest first. ownerID > 0
// restricts the result to invoices created by that user.
func (r *PostgresRepository) List(ctx context.Context, ownerID int64) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceCols + ` FROM invoices`
	args := []any{}
	if ownerID > 0 {
		query += ` WHERE created_by = $1`
		args = append(args, ownerID)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Invoice
	for rows.Next() {
		inv := &models.Invoice{}
		if err := rows.Scan(
			&inv.ID, &inv.InvoiceNumber, &inv.CustomerName, &inv.CustomerEmail, &inv.CustomerPhone,
			&inv.CustomerAddress, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Currency, &inv.Status,
			&inv.IssueDate, &inv.DueDate, &inv.PaidDate, &inv.Notes, &inv.CreatedBy, &inv.UpdatedBy,
			&inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update rewrites the invoice row and replaces its items. Callers are
// expected to bind the repository to a transaction (dbx.WithTx).
func (r *PostgresRepository) Update(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	query :=
		`UPDATE invoices SET customer_name = $1, customer_email = $2, customer_phone = $3,
			customer_address = $4, subtotal = $5, tax = $6, total = $7, currency = $8,
			status = $9, issue_date = $10, due_date = $11, paid_date = $12, notes = $13,
			updated_by = $14, updated_at = now()
		 WHERE id = $15
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		inv.CustomerName, inv.CustomerEmail, inv.CustomerPhone,
		inv.CustomerAddress, inv.Subtotal, inv.Tax, inv.Total, inv.Currency,
		inv.Status, inv.IssueDate, inv.DueDate, inv.PaidDate, inv.Notes,
		inv.UpdatedBy, inv.ID).Scan(&inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := r.insertItems(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

// Delete removes an invoice; items go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// CountForYear returns how many invoices were issued in the given year.
// Used for invoice number generation.
func (r *PostgresRepository) CountForYear(ctx context.Context, year int) (int64, error) {
	query := `SELECT COUNT(*) FROM invoices WHERE EXTRACT(YEAR FROM issue_date) = $1`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) insertItems(ctx context.Context, inv *models.Invoice) error {
	query :=
		`INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, total)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	for _, item := range inv.Items {
		item.InvoiceID = inv.ID
		err := r.db.QueryRowContext(ctx, query,
			inv.ID, item.Description, item.Quantity, item.UnitPrice, item.Total).
			Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) selectItems(ctx context.Context, invoiceID int64) ([]*models.InvoiceItem, error) {
	query :=
		`SELECT id, invoice_id, description, quantity, unit_price, total, created_at, updated_at
		 FROM invoice_items
		 WHERE invoice_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var items []*models.InvoiceItem
	for rows.Next() {
		item := &models.InvoiceItem{}
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.Total, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
