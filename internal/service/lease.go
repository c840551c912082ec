package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

type LeaseService struct {
	base
}

func validateLease(l *models.Lease) error {
	if l.TenantID == 0 {
		return repository.NewValidationError("tenant_id", "tenant is required")
	}
	if l.StartDate.IsZero() {
		return repository.NewValidationError("start_date", "start date is required")
	}
	for field, v := range map[string]float64{
		"monthly_rent":     l.MonthlyRent,
		"first_month_rent": l.FirstMonthRent,
		"deposit":          l.Deposit,
		"key_money":        l.KeyMoney,
	} {
		if v < 0 {
			return repository.NewValidationError(field, "amount cannot be negative")
		}
	}
	l.StartDate = models.DateOf(l.StartDate)
	if l.TerminationDate != nil {
		d := models.DateOf(*l.TerminationDate)
		l.TerminationDate = &d
	}
	if l.LastIncreaseDate != nil {
		d := models.DateOf(*l.LastIncreaseDate)
		l.LastIncreaseDate = &d
	}
	return nil
}

func requireTenant(ctx context.Context, tx *gorm.DB, id uint) error {
	ok, err := repository.NewTenantRepository(tx).Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return repository.NewValidationError("tenant_id", "tenant %d does not exist", id)
	}
	return nil
}

// Create inserts a lease with its offices and refreshes the tenant status.
func (s *LeaseService) Create(ctx context.Context, l *models.Lease, officeIDs []uint) (*models.Lease, error) {
	if err := validateLease(l); err != nil {
		return nil, err
	}

	var created *models.Lease
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireTenant(ctx, tx, l.TenantID); err != nil {
			return err
		}
		leases := repository.NewLeaseRepository(tx)
		if err := leases.CreateWithValidation(ctx, l, officeIDs); err != nil {
			return err
		}
		if _, err := repository.NewTenantRepository(tx).RecomputeStatus(ctx, l.TenantID); err != nil {
			return err
		}
		var err error
		if created, err = leases.GetWithOffices(ctx, l.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "leases", l.ID, models.ActionCreate, nil, created)
	})
	if err != nil {
		return nil, err
	}

	log := s.log(ctx).With(zap.Uint("lease_id", created.ID), zap.Uint("tenant_id", created.TenantID))
	if created.StartDate.After(models.DateOf(s.now())) {
		log.Warn("lease starts in the future", zap.Time("start_date", created.StartDate))
	}
	log.Info("lease created", zap.Int("offices", len(created.Offices)))
	return created, nil
}

// Update edits the lease fields and replaces its offices. The termination
// state only changes through Terminate and Reactivate.
func (s *LeaseService) Update(ctx context.Context, l *models.Lease, officeIDs []uint) (*models.Lease, error) {
	if err := validateLease(l); err != nil {
		return nil, err
	}

	var updated *models.Lease
	err := s.tx(ctx, func(tx *gorm.DB) error {
		leases := repository.NewLeaseRepository(tx)
		tenants := repository.NewTenantRepository(tx)

		before, err := leases.GetWithOffices(ctx, l.ID)
		if err != nil {
			return err
		}
		if err := requireTenant(ctx, tx, l.TenantID); err != nil {
			return err
		}

		l.Terminated = before.Terminated
		l.TerminationDate = before.TerminationDate
		l.TerminationReason = before.TerminationReason
		l.CreatedAt = before.CreatedAt

		if l.TenantID != before.TenantID && !l.Terminated {
			active, err := leases.ActiveForTenant(ctx, l.TenantID, l.ID)
			if err != nil {
				return err
			}
			if len(active) > 0 {
				return repository.NewValidationError("tenant_id", "tenant already has an active lease (#%d)", active[0].ID)
			}
		}

		if err := leases.Update(ctx, l); err != nil {
			return err
		}
		if err := leases.ReplaceOffices(ctx, l, officeIDs); err != nil {
			return err
		}

		if _, err := tenants.RecomputeStatus(ctx, l.TenantID); err != nil {
			return err
		}
		if before.TenantID != l.TenantID {
			if _, err := tenants.RecomputeStatus(ctx, before.TenantID); err != nil {
				return err
			}
		}

		if updated, err = leases.GetWithOffices(ctx, l.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "leases", l.ID, models.ActionUpdate, before, updated)
	})
	return updated, err
}

// Terminate ends the lease and recomputes the tenant status in the same
// transaction.
func (s *LeaseService) Terminate(ctx context.Context, id uint, date time.Time, reason string) (*models.Lease, error) {
	var after *models.Lease
	err := s.tx(ctx, func(tx *gorm.DB) error {
		leases := repository.NewLeaseRepository(tx)
		before, err := leases.Get(ctx, id)
		if err != nil {
			return err
		}
		if after, err = leases.Terminate(ctx, id, date, reason); err != nil {
			return err
		}
		if _, err := repository.NewTenantRepository(tx).RecomputeStatus(ctx, after.TenantID); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "leases", id, models.ActionUpdate, before, after)
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("lease terminated", zap.Uint("lease_id", id), zap.Time("termination_date", *after.TerminationDate))
	return after, nil
}

func (s *LeaseService) Reactivate(ctx context.Context, id uint, newStart *time.Time) (*models.Lease, error) {
	var after *models.Lease
	err := s.tx(ctx, func(tx *gorm.DB) error {
		leases := repository.NewLeaseRepository(tx)
		before, err := leases.Get(ctx, id)
		if err != nil {
			return err
		}
		if after, err = leases.Reactivate(ctx, id, newStart); err != nil {
			return err
		}
		if _, err := repository.NewTenantRepository(tx).RecomputeStatus(ctx, after.TenantID); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "leases", id, models.ActionUpdate, before, after)
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("lease reactivated", zap.Uint("lease_id", id))
	return after, nil
}

func (s *LeaseService) AttachOffice(ctx context.Context, leaseID, officeID uint) (*models.Lease, error) {
	return s.changeOffices(ctx, leaseID, func(leases *repository.LeaseRepository) error {
		return leases.AttachOffice(ctx, leaseID, officeID)
	})
}

func (s *LeaseService) DetachOffice(ctx context.Context, leaseID, officeID uint) (*models.Lease, error) {
	return s.changeOffices(ctx, leaseID, func(leases *repository.LeaseRepository) error {
		return leases.DetachOffice(ctx, leaseID, officeID)
	})
}

func (s *LeaseService) changeOffices(ctx context.Context, leaseID uint, change func(*repository.LeaseRepository) error) (*models.Lease, error) {
	var after *models.Lease
	err := s.tx(ctx, func(tx *gorm.DB) error {
		leases := repository.NewLeaseRepository(tx)
		before, err := leases.GetWithOffices(ctx, leaseID)
		if err != nil {
			return err
		}
		if err := change(leases); err != nil {
			return err
		}
		if after, err = leases.GetWithOffices(ctx, leaseID); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "leases", leaseID, models.ActionUpdate, before, after)
	})
	return after, err
}

// Delete removes a lease without payments, then recomputes the tenant status.
func (s *LeaseService) Delete(ctx context.Context, id uint) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		leases := repository.NewLeaseRepository(tx)
		before, err := leases.GetWithOffices(ctx, id)
		if err != nil {
			return err
		}
		paid, err := leases.HasPayments(ctx, id)
		if err != nil {
			return err
		}
		if paid {
			return repository.NewReferenceError("lease", "it has recorded payments")
		}
		if err := leases.DeleteWithLinks(ctx, id); err != nil {
			return err
		}
		if _, err := repository.NewTenantRepository(tx).RecomputeStatus(ctx, before.TenantID); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "leases", id, models.ActionDelete, before, nil)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("lease deleted", zap.Uint("lease_id", id))
	return nil
}

// UnpaidMonths lists the months of the lease not covered by rent as of asOf.
// A zero asOf means today.
func (s *LeaseService) UnpaidMonths(ctx context.Context, leaseID uint, asOf time.Time) ([]models.YearMonth, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	lease, err := repository.NewLeaseRepository(s.db).Get(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	return repository.NewPaymentRepository(s.db).UnpaidMonths(ctx, lease, asOf)
}
