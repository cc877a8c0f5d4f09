package invoices

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func testInvoice() *models.Invoice {
	return &models.Invoice{
		InvoiceNumber: "INV-2026-00001",
		CustomerName:  "Acme Ltd",
		Subtotal:      100,
		Tax:           13,
		Total:         113,
		Currency:      models.CurrencyLYD,
		Status:        models.StatusPending,
		IssueDate:     time.Now(),
		DueDate:       time.Now().Add(30 * 24 * time.Hour),
		CreatedBy:     7,
		Items: []*models.InvoiceItem{
			{Description: "Fiber installation", Quantity: 2, UnitPrice: 50, Total: 100},
		},
	}
}

func TestCreate_InsertsInvoiceAndItems(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT\s+INTO\s+invoices`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectQuery(`INSERT\s+INTO\s+invoice_items`).
		WithArgs(int64(11), "Fiber installation", int64(2), 50.0, 100.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(21), now, now))

	got, err := repo.Create(context.Background(), testInvoice())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 11 || got.Items[0].InvoiceID != 11 || got.Items[0].ID != 21 {
		t.Fatalf("unexpected invoice: %+v item: %+v", got, got.Items[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs(int64(404)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+invoices`).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 404)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestCountForYear(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+invoices`).
		WithArgs(2026).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(14)))

	n, err := repo.CountForYear(context.Background(), 2026)
	if err != nil {
		t.Fatalf("CountForYear error: %v", err)
	}
	if n != 14 {
		t.Fatalf("want 14, got %d", n)
	}
}
