package invoices

import (
	"context"

	"github.com/samifathi/invoice-api/internal/server/models"
)

// Repository persists invoices together with their line items. Create and
// Update must run against a transactional handle so that an invoice and its
// items land (or fail) as a whole.
type Repository interface {
	Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
	List(ctx context.Context, ownerID int64) ([]*models.Invoice, error)
	Update(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
	Delete(ctx context.Context, id int64) error
	CountForYear(ctx context.Context, year int) (int64, error)
}
