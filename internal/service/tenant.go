package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

type TenantService struct {
	base
}

func validateTenant(t *models.Tenant) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Email = strings.TrimSpace(t.Email)
	if t.Name == "" {
		return repository.NewValidationError("name", "name is required")
	}
	if t.Email != "" && !strings.Contains(t.Email, "@") {
		return repository.NewValidationError("email", "invalid email address %q", t.Email)
	}
	if t.Status == "" {
		t.Status = models.TenantActive
	}
	if !t.Status.Valid() {
		return repository.NewValidationError("status", "unknown tenant status %q", t.Status)
	}
	return nil
}

func (s *TenantService) Create(ctx context.Context, t *models.Tenant) error {
	if err := validateTenant(t); err != nil {
		return err
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := repository.NewTenantRepository(tx).Create(ctx, t); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "tenants", t.ID, models.ActionCreate, nil, t)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("tenant created", zap.Uint("tenant_id", t.ID))
	return nil
}

// Update edits the tenant's details and recomputes its status from its
// leases in the same transaction.
func (s *TenantService) Update(ctx context.Context, t *models.Tenant) error {
	if err := validateTenant(t); err != nil {
		return err
	}
	return s.tx(ctx, func(tx *gorm.DB) error {
		repo := repository.NewTenantRepository(tx)
		before, err := repo.Get(ctx, t.ID)
		if err != nil {
			return err
		}
		t.CreatedAt = before.CreatedAt
		if err := repo.Update(ctx, t); err != nil {
			return err
		}
		// status follows the leases, whatever the edit carried
		status, err := repo.RecomputeStatus(ctx, t.ID)
		if err != nil {
			return err
		}
		t.Status = status
		return s.audit.Record(ctx, tx, "tenants", t.ID, models.ActionUpdate, before, t)
	})
}

// ChangeStatus sets the status by hand. RecomputeStatus overrides it the
// next time one of the tenant's leases changes.
func (s *TenantService) ChangeStatus(ctx context.Context, id uint, status models.TenantStatus) (*models.Tenant, error) {
	var after *models.Tenant
	err := s.tx(ctx, func(tx *gorm.DB) error {
		repo := repository.NewTenantRepository(tx)
		before, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetStatus(ctx, id, status); err != nil {
			return err
		}
		if after, err = repo.Get(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "tenants", id, models.ActionUpdate, before, after)
	})
	return after, err
}

// Delete removes a tenant that has neither leases nor payments.
func (s *TenantService) Delete(ctx context.Context, id uint) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		repo := repository.NewTenantRepository(tx)
		before, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		used, err := repo.HasLeasesOrPayments(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return repository.NewReferenceError("tenant", "it still has leases or payments")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "tenants", id, models.ActionDelete, before, nil)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("tenant deleted", zap.Uint("tenant_id", id))
	return nil
}
