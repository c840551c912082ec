package receipt

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/database"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

func validateTemplate(tpl *models.ReceiptTemplate) error {
	tpl.Name = strings.TrimSpace(tpl.Name)
	if tpl.Name == "" {
		return repository.NewValidationError("name", "template name is required")
	}
	if strings.TrimSpace(tpl.HTML) == "" {
		return repository.NewValidationError("html", "template body is required")
	}
	if err := CheckTemplate(tpl); err != nil {
		return repository.NewValidationError("html", "%s", err.Error())
	}
	return nil
}

// CreateTemplate stores a new template. A template created as default takes
// the flag away from the previous default.
func (s *Service) CreateTemplate(ctx context.Context, tpl *models.ReceiptTemplate) error {
	if err := validateTemplate(tpl); err != nil {
		return err
	}
	return database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := repository.NewReceiptTemplateRepository(tx)
		makeDefault := tpl.IsDefault
		tpl.IsDefault = false
		if err := repo.Create(ctx, tpl); err != nil {
			return err
		}
		if makeDefault {
			if err := repo.SetDefault(ctx, tpl.ID); err != nil {
				return err
			}
			tpl.IsDefault = true
		}
		return s.audit.Record(ctx, tx, "receipt_templates", tpl.ID, models.ActionCreate, nil, tpl)
	})
}

// UpdateTemplate saves name, body and the active flag. The default flag only
// changes through SetDefaultTemplate.
func (s *Service) UpdateTemplate(ctx context.Context, tpl *models.ReceiptTemplate) error {
	if err := validateTemplate(tpl); err != nil {
		return err
	}
	return database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := repository.NewReceiptTemplateRepository(tx)
		before, err := repo.Get(ctx, tpl.ID)
		if err != nil {
			return err
		}
		if before.IsDefault && !tpl.Active {
			return repository.NewValidationError("active", "the default template cannot be deactivated")
		}
		tpl.IsDefault = before.IsDefault
		tpl.CreatedAt = before.CreatedAt
		if err := repo.Update(ctx, tpl); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "receipt_templates", tpl.ID, models.ActionUpdate, before, tpl)
	})
}

func (s *Service) DeleteTemplate(ctx context.Context, id uint) error {
	return database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := repository.NewReceiptTemplateRepository(tx)
		before, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if before.IsDefault {
			return repository.NewReferenceError("receipt template", "%q is the default template", before.Name)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "receipt_templates", id, models.ActionDelete, before, nil)
	})
}

func (s *Service) SetDefaultTemplate(ctx context.Context, id uint) (*models.ReceiptTemplate, error) {
	var tpl *models.ReceiptTemplate
	err := database.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		repo := repository.NewReceiptTemplateRepository(tx)
		before, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetDefault(ctx, id); err != nil {
			return err
		}
		if tpl, err = repo.Get(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, "receipt_templates", id, models.ActionUpdate, before, tpl)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("default receipt template changed", zap.Uint("template_id", id), zap.String("name", tpl.Name))
	return tpl, nil
}
