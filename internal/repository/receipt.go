package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
)

const receiptPrefix = "RCU"

type ReceiptRepository struct {
	Base[models.Receipt]
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{Base: NewBase[models.Receipt](db, "receipt")}
}

func (r *ReceiptRepository) ByPayment(ctx context.Context, paymentID uint) (*models.Receipt, error) {
	var rc models.Receipt
	if err := r.DB(ctx).Where("payment_id = ?", paymentID).First(&rc).Error; err != nil {
		return nil, translate("receipt", err)
	}
	return &rc, nil
}

func (r *ReceiptRepository) ByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	var rc models.Receipt
	if err := r.DB(ctx).Where("number = ?", number).First(&rc).Error; err != nil {
		return nil, translate("receipt", err)
	}
	return &rc, nil
}

func (r *ReceiptRepository) DeleteByPayment(ctx context.Context, paymentID uint) error {
	return r.DB(ctx).Where("payment_id = ?", paymentID).Delete(&models.Receipt{}).Error
}

// NextNumber allocates the next receipt number of year, formatted
// RCU-YYYY-NNNNNN. Numbers are sequential within a year.
func (r *ReceiptRepository) NextNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("%s-%04d-", receiptPrefix, year)

	var numbers []string
	err := r.DB(ctx).Model(&models.Receipt{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}

	next := 1
	if len(numbers) > 0 {
		seq, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix))
		if err != nil {
			return "", fmt.Errorf("malformed receipt number %q: %w", numbers[0], err)
		}
		next = seq + 1
	}
	return fmt.Sprintf("%s%06d", prefix, next), nil
}

type ReceiptTemplateRepository struct {
	Base[models.ReceiptTemplate]
}

func NewReceiptTemplateRepository(db *gorm.DB) *ReceiptTemplateRepository {
	return &ReceiptTemplateRepository{Base: NewBase[models.ReceiptTemplate](db, "receipt template")}
}

// Default returns the default template, falling back to the oldest active one.
func (r *ReceiptTemplateRepository) Default(ctx context.Context) (*models.ReceiptTemplate, error) {
	var tpl models.ReceiptTemplate
	err := r.DB(ctx).Where("is_default = ?", true).First(&tpl).Error
	if err == nil {
		return &tpl, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := r.DB(ctx).Where("active = ?", true).Order("id").First(&tpl).Error; err != nil {
		return nil, translate("receipt template", err)
	}
	return &tpl, nil
}

func (r *ReceiptTemplateRepository) Active(ctx context.Context) ([]models.ReceiptTemplate, error) {
	var out []models.ReceiptTemplate
	err := r.DB(ctx).Where("active = ?", true).Order("name").Find(&out).Error
	return out, err
}

// SetDefault makes id the only default template. Run it inside a transaction.
func (r *ReceiptTemplateRepository) SetDefault(ctx context.Context, id uint) error {
	tpl, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !tpl.Active {
		return NewValidationError("active", "an inactive template cannot be the default")
	}
	if err := r.DB(ctx).Model(&models.ReceiptTemplate{}).Where("id <> ?", id).Update("is_default", false).Error; err != nil {
		return err
	}
	return r.DB(ctx).Model(tpl).Update("is_default", true).Error
}
