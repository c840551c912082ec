package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

type paymentRequest struct {
	LeaseID     uint               `json:"lease_id"`
	TenantID    uint               `json:"tenant_id"`
	Type        models.PaymentType `json:"type"`
	Amount      float64            `json:"amount"`
	PaidOn      *Date              `json:"paid_on"`
	PeriodStart *Date              `json:"period_start"`
	PeriodEnd   *Date              `json:"period_end"`
	Comment     string             `json:"comment"`
}

func (r paymentRequest) model(id uint) *models.Payment {
	p := &models.Payment{
		ID:          id,
		LeaseID:     r.LeaseID,
		TenantID:    r.TenantID,
		Type:        r.Type,
		Amount:      r.Amount,
		PeriodStart: r.PeriodStart.Ptr(),
		PeriodEnd:   r.PeriodEnd.Ptr(),
		Comment:     r.Comment,
	}
	if r.PaidOn != nil {
		p.PaidOn = r.PaidOn.Time
	}
	return p
}

// listPayments filters by lease_id, tenant_id, type and a from/to range on
// the payment date.
func (s *Server) listPayments(c echo.Context) error {
	var (
		f   repository.PaymentFilter
		err error
	)
	if f.LeaseID, err = queryUint(c, "lease_id"); err != nil {
		return err
	}
	if f.TenantID, err = queryUint(c, "tenant_id"); err != nil {
		return err
	}
	if raw := c.QueryParam("type"); raw != "" {
		if f.Type, err = models.ParsePaymentType(raw); err != nil {
			return badRequest("%v", err)
		}
	}
	if f.From, err = queryDate(c, "from"); err != nil {
		return err
	}
	if f.To, err = queryDate(c, "to"); err != nil {
		return err
	}
	if f.ListOptions, err = listOptions(c); err != nil {
		return err
	}

	payments, err := repository.NewPaymentRepository(s.DB).Find(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

type paymentDetail struct {
	*models.Payment
	Receipt *models.Receipt `json:"receipt"`
}

func (s *Server) getPayment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := repository.NewPaymentRepository(s.DB).GetFull(ctx, id)
	if err != nil {
		return err
	}
	detail := paymentDetail{Payment: p}
	if r, err := repository.NewReceiptRepository(s.DB).ByPayment(ctx, id); err == nil {
		detail.Receipt = r
	} else if !isNotFound(err) {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) createPayment(c echo.Context) error {
	var req paymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p := req.model(0)
	if err := s.Services.Payments.Create(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) updatePayment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req paymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p := req.model(id)
	if err := s.Services.Payments.Update(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deletePayment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.Services.Payments.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// generateReceipt renders the PDF receipt, allocating a number on first use.
func (s *Server) generateReceipt(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	pdf, rcpt, err := s.Receipts.Generate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rcpt.Number+".pdf"))
	c.Response().Header().Set("X-Receipt-Number", rcpt.Number)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// previewReceipt renders ?template_id= (or the default template) as HTML.
func (s *Server) previewReceipt(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	templateID, err := queryUint(c, "template_id")
	if err != nil {
		return err
	}
	html, err := s.Receipts.Preview(c.Request().Context(), id, templateID)
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, html)
}

type batchResult struct {
	PaymentID uint   `json:"payment_id"`
	Number    string `json:"number,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) generateReceiptBatch(c echo.Context) error {
	var req struct {
		From *Date `json:"from"`
		To   *Date `json:"to"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.From == nil || req.To == nil {
		return badRequest("from and to are required")
	}
	if req.To.Before(req.From.Time) {
		return badRequest("to is before from")
	}

	results, err := s.Receipts.GenerateBatch(c.Request().Context(), req.From.Time, req.To.Time)
	if err != nil {
		return err
	}
	out := make([]batchResult, 0, len(results))
	failed := 0
	for _, r := range results {
		br := batchResult{PaymentID: r.PaymentID, Number: r.Number}
		if r.Err != nil {
			br.Error = r.Err.Error()
			failed++
		}
		out = append(out, br)
	}
	return c.JSON(http.StatusOK, echo.Map{"generated": len(out) - failed, "failed": failed, "results": out})
}
