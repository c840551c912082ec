package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

type OfficeService struct {
	base
}

// validate checks the building exists and the number is free in it.
func (s *OfficeService) validate(ctx context.Context, tx *gorm.DB, o *models.Office) error {
	o.Number = strings.TrimSpace(o.Number)
	if o.Number == "" {
		return repository.NewValidationError("number", "office number is required")
	}
	if o.SurfaceM2 != nil && *o.SurfaceM2 < 0 {
		return repository.NewValidationError("surface_m2", "surface cannot be negative")
	}

	ok, err := repository.NewBuildingRepository(tx).Exists(ctx, o.BuildingID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.NewValidationError("building_id", "building %d does not exist", o.BuildingID)
	}

	existing, err := repository.NewOfficeRepository(tx).ByNumber(ctx, o.BuildingID, o.Number)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != o.ID:
		return repository.NewValidationError("number", "office %s already exists in this building", o.Number)
	}
	return nil
}

func (s *OfficeService) Create(ctx context.Context, o *models.Office) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.validate(ctx, tx, o); err != nil {
			return err
		}
		if err := repository.NewOfficeRepository(tx).Create(ctx, o); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "offices", o.ID, models.ActionCreate, nil, o)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("office created", zap.Uint("office_id", o.ID), zap.Uint("building_id", o.BuildingID))
	return nil
}

func (s *OfficeService) Update(ctx context.Context, o *models.Office) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		repo := repository.NewOfficeRepository(tx)
		before, err := repo.Get(ctx, o.ID)
		if err != nil {
			return err
		}
		if err := s.validate(ctx, tx, o); err != nil {
			return err
		}
		o.CreatedAt = before.CreatedAt
		if err := repo.Update(ctx, o); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "offices", o.ID, models.ActionUpdate, before, o)
	})
}

// Delete removes an office that no lease, past or present, references.
func (s *OfficeService) Delete(ctx context.Context, id uint) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		repo := repository.NewOfficeRepository(tx)
		before, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		linked, err := repo.IsLinkedToAnyLease(ctx, id)
		if err != nil {
			return err
		}
		if linked {
			return repository.NewReferenceError("office", "it is linked to one or more leases")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "offices", id, models.ActionDelete, before, nil)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("office deleted", zap.Uint("office_id", id))
	return nil
}
