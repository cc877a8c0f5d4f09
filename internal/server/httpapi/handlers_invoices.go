package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/server/models"
	"github.com/samifathi/invoice-api/internal/server/services"
)

type invoiceItemRequest struct {
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type invoiceRequest struct {
	InvoiceNumber   string               `json:"invoiceNumber"`
	CustomerName    string               `json:"customerName"`
	CustomerEmail   string               `json:"customerEmail"`
	CustomerPhone   string               `json:"customerPhone"`
	CustomerAddress string               `json:"customerAddress"`
	Subtotal        float64              `json:"subtotal"`
	Tax             float64              `json:"tax"`
	Currency        models.Currency      `json:"currency"`
	Status          models.InvoiceStatus `json:"status"`
	IssueDate       *time.Time           `json:"issueDate"`
	DueDate         time.Time            `json:"dueDate"`
	PaidDate        *time.Time           `json:"paidDate"`
	Notes           string               `json:"notes"`
	Items           []invoiceItemRequest `json:"items"`
}

func (r invoiceRequest) toInput() services.InvoiceInput {
	in := services.InvoiceInput{
		InvoiceNumber:   r.InvoiceNumber,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		CustomerAddress: r.CustomerAddress,
		Subtotal:        r.Subtotal,
		Tax:             r.Tax,
		Currency:        r.Currency,
		Status:          r.Status,
		IssueDate:       r.IssueDate,
		DueDate:         r.DueDate,
		PaidDate:        r.PaidDate,
		Notes:           r.Notes,
	}
	for _, item := range r.Items {
		in.Items = append(in.Items, services.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return in
}

func invoiceIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice id")
		return 0, false
	}
	return id, true
}

func (s *Server) respondInvoiceError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		respondError(c, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
		return
	}
	s.respondServiceError(c, err)
}

func (s *Server) createInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	inv, err := s.invoices.Create(c.Request.Context(), identityFromContext(c), req.toInput())
	if err != nil {
		s.respondInvoiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Invoice created successfully", gin.H{"invoice": inv})
}

func (s *Server) listInvoices(c *gin.Context) {
	invs, err := s.invoices.List(c.Request.Context(), identityFromContext(c))
	if err != nil {
		s.respondInvoiceError(c, err)
		return
	}

	if invs == nil {
		invs = []*models.Invoice{}
	}
	respondData(c, http.StatusOK, "", gin.H{"invoices": invs, "count": len(invs)})
}

func (s *Server) getInvoice(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	inv, err := s.invoices.Get(c.Request.Context(), identityFromContext(c), id)
	if err != nil {
		s.respondInvoiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "", gin.H{"invoice": inv})
}

func (s *Server) updateInvoice(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	inv, err := s.invoices.Update(c.Request.Context(), identityFromContext(c), id, req.toInput())
	if err != nil {
		s.respondInvoiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Invoice updated successfully", gin.H{"invoice": inv})
}

func (s *Server) deleteInvoice(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	if err := s.invoices.Delete(c.Request.Context(), identityFromContext(c), id); err != nil {
		s.respondInvoiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Invoice deleted successfully", nil)
}
