package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/dbx"
	"github.com/samifathi/invoice-api/internal/server/auth"
	"github.com/samifathi/invoice-api/internal/server/models"
	"github.com/samifathi/invoice-api/internal/server/repositories/repomanager"
)

// InvoiceItemInput is one requested invoice line.
type InvoiceItemInput struct {
	Description string
	Quantity    int64
	UnitPrice   float64
}

// InvoiceInput carries an invoice create/update request.
type InvoiceInput struct {
	InvoiceNumber   string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	Subtotal        float64
	Tax             float64
	Currency        models.Currency
	Status          models.InvoiceStatus
	IssueDate       *time.Time
	DueDate         time.Time
	PaidDate        *time.Time
	Notes           string
	Items           []InvoiceItemInput
}

var (
	invoiceWriteRoles = []models.Role{models.RoleAdmin, models.RoleAccountant}
	invoiceAdminOnly  = []models.Role{models.RoleAdmin}
)

// InvoiceService manages creator-scoped invoices. Every operation takes the
// caller's identity and runs it through the authorization decision; ownership
// is compared against the invoice's creator, with admins bypassing it.
type InvoiceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(db *sql.DB, m repomanager.RepositoryManager) *InvoiceService {
	return &InvoiceService{db: db, repomanager: m}
}

// Create validates the input, fills in the invoice number and totals as
// explicit steps, and writes the invoice with its items in one transaction.
func (s *InvoiceService) Create(ctx context.Context, identity *models.Identity, in InvoiceInput) (*models.Invoice, error) {
	if err := auth.Authorize(identity, invoiceWriteRoles, 0); err != nil {
		return nil, err
	}

	applyInvoiceDefaults(&in)
	if err := validateInvoice(in); err != nil {
		return nil, err
	}

	inv := invoiceFromInput(in)
	inv.CreatedBy = identity.UserID
	inv.ComputeTotals()

	if inv.InvoiceNumber == "" {
		number, err := s.nextInvoiceNumber(ctx, inv.IssueDate)
		if err != nil {
			return nil, err
		}
		inv.InvoiceNumber = number
	}

	var created *models.Invoice
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		created, txErr = s.repomanager.Invoices(tx).Create(ctx, inv)
		return txErr
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// List returns invoices visible to the caller: everything for admins, own
// invoices only for everyone else.
func (s *InvoiceService) List(ctx context.Context, identity *models.Identity) ([]*models.Invoice, error) {
	if err := auth.Authorize(identity, nil, 0); err != nil {
		return nil, err
	}

	ownerID := identity.UserID
	if identity.Role == models.RoleAdmin {
		ownerID = 0
	}

	return s.repomanager.Invoices(s.db).List(ctx, ownerID)
}

// Get loads a single invoice, enforcing ownership for non-admin callers.
func (s *InvoiceService) Get(ctx context.Context, identity *models.Identity, id int64) (*models.Invoice, error) {
	if err := auth.Authorize(identity, nil, 0); err != nil {
		return nil, err
	}

	inv, err := s.repomanager.Invoices(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.Authorize(identity, nil, inv.CreatedBy); err != nil {
		return nil, err
	}

	return inv, nil
}

// Update rewrites an invoice owned by the caller (or any invoice for admins),
// recomputing totals and replacing items transactionally.
func (s *InvoiceService) Update(ctx context.Context, identity *models.Identity, id int64, in InvoiceInput) (*models.Invoice, error) {
	if err := auth.Authorize(identity, invoiceWriteRoles, 0); err != nil {
		return nil, err
	}

	existing, err := s.repomanager.Invoices(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.Authorize(identity, invoiceWriteRoles, existing.CreatedBy); err != nil {
		return nil, err
	}

	applyInvoiceDefaults(&in)
	if err := validateInvoice(in); err != nil {
		return nil, err
	}

	inv := invoiceFromInput(in)
	inv.ID = existing.ID
	inv.InvoiceNumber = existing.InvoiceNumber
	inv.CreatedBy = existing.CreatedBy
	inv.UpdatedBy = identity.UserID
	inv.ComputeTotals()

	var updated *models.Invoice
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		updated, txErr = s.repomanager.Invoices(tx).Update(ctx, inv)
		return txErr
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes an invoice. Admin only.
func (s *InvoiceService) Delete(ctx context.Context, identity *models.Identity, id int64) error {
	if err := auth.Authorize(identity, invoiceAdminOnly, 0); err != nil {
		return err
	}

	return s.repomanager.Invoices(s.db).Delete(ctx, id)
}

// --- helpers below ---

// nextInvoiceNumber derives INV-<year>-<seq> from the per-year invoice count.
// Collisions under concurrency fall to the unique index on invoice_number.
func (s *InvoiceService) nextInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	count, err := s.repomanager.Invoices(s.db).CountForYear(ctx, issueDate.Year())
	if err != nil {
		return "", fmt.Errorf("error counting invoices: %w", err)
	}
	return fmt.Sprintf("INV-%d-%05d", issueDate.Year(), count+1), nil
}

func applyInvoiceDefaults(in *InvoiceInput) {
	if in.Currency == "" {
		in.Currency = models.CurrencyLYD
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if in.IssueDate == nil {
		now := time.Now()
		in.IssueDate = &now
	}
}

func invoiceFromInput(in InvoiceInput) *models.Invoice {
	inv := &models.Invoice{
		InvoiceNumber:   in.InvoiceNumber,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
		Subtotal:        in.Subtotal,
		Tax:             in.Tax,
		Currency:        in.Currency,
		Status:          in.Status,
		IssueDate:       *in.IssueDate,
		DueDate:         in.DueDate,
		PaidDate:        in.PaidDate,
		Notes:           in.Notes,
	}
	for _, item := range in.Items {
		inv.Items = append(inv.Items, &models.InvoiceItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return inv
}

func validateInvoice(in InvoiceInput) error {
	verr := &common.ValidationError{}

	if strings.TrimSpace(in.CustomerName) == "" {
		verr.Add("customerName", "customer name is required")
	}
	if in.CustomerEmail != "" {
		if !strings.Contains(in.CustomerEmail, "@") {
			verr.Add("customerEmail", "invalid email format")
		}
	}
	if in.Subtotal < 0 {
		verr.Add("subtotal", "subtotal cannot be negative")
	}
	if in.Tax < 0 {
		verr.Add("tax", "tax cannot be negative")
	}
	if !in.Currency.Valid() {
		verr.Add("currency", "currency must be one of LYD, USD, EUR")
	}
	if !in.Status.Valid() {
		verr.Add("status", "status must be one of draft, pending, paid, overdue, cancelled")
	}
	if in.DueDate.IsZero() {
		verr.Add("dueDate", "due date is required")
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.Description) == "" {
			verr.Add(fmt.Sprintf("items[%d].description", i), "item description is required")
		}
		if item.Quantity < 1 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
		if item.UnitPrice < 0 {
			verr.Add(fmt.Sprintf("items[%d].unitPrice", i), "unit price cannot be negative")
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
