package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

type BuildingService struct {
	base
}

func validateBuilding(b *models.Building) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return repository.NewValidationError("name", "name is required")
	}
	return nil
}

func (s *BuildingService) Create(ctx context.Context, b *models.Building) error {
	if err := validateBuilding(b); err != nil {
		return err
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := repository.NewBuildingRepository(tx).Create(ctx, b); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "buildings", b.ID, models.ActionCreate, nil, b)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("building created", zap.Uint("building_id", b.ID), zap.String("name", b.Name))
	return nil
}

func (s *BuildingService) Update(ctx context.Context, b *models.Building) error {
	if err := validateBuilding(b); err != nil {
		return err
	}
	return s.tx(ctx, func(tx *gorm.DB) error {
		repo := repository.NewBuildingRepository(tx)
		before, err := repo.Get(ctx, b.ID)
		if err != nil {
			return err
		}
		b.CreatedAt = before.CreatedAt
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "buildings", b.ID, models.ActionUpdate, before, b)
	})
}

// Delete removes a building without offices.
func (s *BuildingService) Delete(ctx context.Context, id uint) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		repo := repository.NewBuildingRepository(tx)
		before, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := repo.OfficeCount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return repository.NewReferenceError("building", "it still has %d office(s)", n)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "buildings", id, models.ActionDelete, before, nil)
	})
	if err != nil {
		return err
	}
	s.log(ctx).Info("building deleted", zap.Uint("building_id", id))
	return nil
}
