package models

import "time"

// Currency is the closed set of invoice currencies.
type Currency string

const (
	CurrencyLYD Currency = "LYD"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Valid reports whether c is one of the known currencies.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyLYD, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// InvoiceStatus is the closed set of invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusPending   InvoiceStatus = "pending"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// InvoiceItem is a single line on an invoice. Total is always
// Quantity * UnitPrice, recomputed before every save.
type InvoiceItem struct {
	ID          int64     `json:"id"`
	InvoiceID   int64     `json:"invoiceId"`
	Description string    `json:"description"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Invoice is a creator-scoped billing document. Items are persisted
// atomically with the invoice itself.
type Invoice struct {
	ID              int64          `json:"id"`
	InvoiceNumber   string         `json:"invoiceNumber"`
	CustomerName    string         `json:"customerName"`
	CustomerEmail   string         `json:"customerEmail,omitempty"`
	CustomerPhone   string         `json:"customerPhone,omitempty"`
	CustomerAddress string         `json:"customerAddress,omitempty"`
	Subtotal        float64        `json:"subtotal"`
	Tax             float64        `json:"tax"`
	Total           float64        `json:"total"`
	Currency        Currency       `json:"currency"`
	Status          InvoiceStatus  `json:"status"`
	IssueDate       time.Time      `json:"issueDate"`
	DueDate         time.Time      `json:"dueDate"`
	PaidDate        *time.Time     `json:"paidDate,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	CreatedBy       int64          `json:"createdBy"`
	UpdatedBy       int64          `json:"updatedBy,omitempty"`
	Items           []*InvoiceItem `json:"items,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ComputeTotals recalculates every line total, the subtotal, and the grand
// total (subtotal + tax). It is an explicit step invoked by the service
// before persisting, not a storage-layer side effect.
func (inv *Invoice) ComputeTotals() {
	var subtotal float64
	for _, item := range inv.Items {
		item.Total = float64(item.Quantity) * item.UnitPrice
		subtotal += item.Total
	}
	if len(inv.Items) > 0 {
		inv.Subtotal = subtotal
	}
	inv.Total = inv.Subtotal + inv.Tax
}
