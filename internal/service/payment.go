package service

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

type PaymentService struct {
	base
}

// normalize validates p against its lease and snaps a rent period to whole
// months. Other payment types never carry a period.
func (s *PaymentService) normalize(ctx context.Context, tx *gorm.DB, p *models.Payment) error {
	if p.Amount <= 0 {
		return repository.NewValidationError("amount", "amount must be greater than zero")
	}
	if p.Type == "" {
		p.Type = models.PaymentRent
	}
	if _, err := models.ParsePaymentType(string(p.Type)); err != nil {
		return repository.NewValidationError("type", "%s", err.Error())
	}
	if p.PaidOn.IsZero() {
		p.PaidOn = s.now()
	}
	p.PaidOn = models.DateOf(p.PaidOn)

	lease, err := repository.NewLeaseRepository(tx).Get(ctx, p.LeaseID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.NewValidationError("lease_id", "lease %d does not exist", p.LeaseID)
	}
	if err != nil {
		return err
	}
	if p.TenantID == 0 {
		p.TenantID = lease.TenantID
	}
	if lease.TenantID != p.TenantID {
		return repository.NewValidationError("lease_id", "lease #%d does not belong to tenant %d", lease.ID, p.TenantID)
	}

	if p.Type != models.PaymentRent {
		p.PeriodStart, p.PeriodEnd = nil, nil
		return nil
	}
	if p.PeriodStart == nil || p.PeriodEnd == nil {
		return repository.NewValidationError("period", "a rent payment needs a period start and end")
	}
	if p.PeriodEnd.Before(*p.PeriodStart) {
		return repository.NewValidationError("period", "period end is before period start")
	}
	start := models.YearMonthOf(*p.PeriodStart).First()
	end := models.YearMonthOf(*p.PeriodEnd).Last()
	p.PeriodStart, p.PeriodEnd = &start, &end
	return nil
}

func (s *PaymentService) Create(ctx context.Context, p *models.Payment) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.normalize(ctx, tx, p); err != nil {
			return err
		}
		if err := repository.NewPaymentRepository(tx).Create(ctx, p); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "payments", p.ID, models.ActionCreate, nil, p)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("payment recorded",
		zap.Uint("payment_id", p.ID),
		zap.Uint("lease_id", p.LeaseID),
		zap.String("type", string(p.Type)),
		zap.Float64("amount", p.Amount),
	)
	return nil
}

func (s *PaymentService) Update(ctx context.Context, p *models.Payment) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		repo := repository.NewPaymentRepository(tx)
		before, err := repo.Get(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := s.normalize(ctx, tx, p); err != nil {
			return err
		}
		p.CreatedAt = before.CreatedAt
		if err := repo.Update(ctx, p); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "payments", p.ID, models.ActionUpdate, before, p)
	})
}

// Delete removes the payment together with its receipt row. The receipt PDF
// is removed once the transaction has committed.
func (s *PaymentService) Delete(ctx context.Context, id uint) error {
	var pdfPath string
	err := s.tx(ctx, func(tx *gorm.DB) error {
		payments := repository.NewPaymentRepository(tx)
		receipts := repository.NewReceiptRepository(tx)

		before, err := payments.Get(ctx, id)
		if err != nil {
			return err
		}
		rcpt, err := receipts.ByPayment(ctx, id)
		switch {
		case err == nil:
			pdfPath = rcpt.FilePath
			if err := receipts.DeleteByPayment(ctx, id); err != nil {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		if err := payments.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "payments", id, models.ActionDelete, before, nil)
	})
	if err != nil {
		return err
	}

	if pdfPath != "" {
		if err := os.Remove(pdfPath); err != nil && !os.IsNotExist(err) {
			s.log(ctx).Warn("failed to remove receipt file", zap.String("path", pdfPath), zap.Error(err))
		}
	}
	s.log(ctx).Info("payment deleted", zap.Uint("payment_id", id))
	return nil
}
