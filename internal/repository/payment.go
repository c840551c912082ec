package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
)

type PaymentRepository struct {
	Base[models.Payment]
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{Base: NewBase[models.Payment](db, "payment")}
}

// PaymentFilter narrows List queries. Zero fields are ignored.
type PaymentFilter struct {
	LeaseID  uint
	TenantID uint
	Type     models.PaymentType
	From     *time.Time
	To       *time.Time
	ListOptions
}

func (r *PaymentRepository) Find(ctx context.Context, f PaymentFilter) ([]models.Payment, error) {
	q := r.DB(ctx).Preload("Tenant")
	if f.LeaseID != 0 {
		q = q.Where("lease_id = ?", f.LeaseID)
	}
	if f.TenantID != 0 {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("paid_on >= ?", models.DateOf(*f.From))
	}
	if f.To != nil {
		q = q.Where("paid_on <= ?", models.DateOf(*f.To))
	}

	var out []models.Payment
	err := f.ListOptions.apply(q).Order("paid_on DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) ByLease(ctx context.Context, leaseID uint) ([]models.Payment, error) {
	return r.Find(ctx, PaymentFilter{LeaseID: leaseID})
}

func (r *PaymentRepository) ByTenant(ctx context.Context, tenantID uint) ([]models.Payment, error) {
	return r.Find(ctx, PaymentFilter{TenantID: tenantID})
}

func (r *PaymentRepository) ByType(ctx context.Context, t models.PaymentType) ([]models.Payment, error) {
	return r.Find(ctx, PaymentFilter{Type: t})
}

func (r *PaymentRepository) ByPeriod(ctx context.Context, from, to time.Time) ([]models.Payment, error) {
	return r.Find(ctx, PaymentFilter{From: &from, To: &to})
}

// Recent returns payments made in the last days, counted back from now.
func (r *PaymentRepository) Recent(ctx context.Context, days int, now time.Time) ([]models.Payment, error) {
	from := models.DateOf(now).AddDate(0, 0, -days)
	return r.ByPeriod(ctx, from, now)
}

func (r *PaymentRepository) SearchComment(ctx context.Context, term string) ([]models.Payment, error) {
	var out []models.Payment
	err := r.DB(ctx).Preload("Tenant").
		Where("LOWER(comment) LIKE LOWER(?)", likePattern(term)).
		Order("paid_on DESC").
		Find(&out).Error
	return out, err
}

// GetFull loads a payment with everything a receipt needs.
func (r *PaymentRepository) GetFull(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.DB(ctx).
		Preload("Tenant").
		Preload("Lease").
		Preload("Lease.Offices", func(db *gorm.DB) *gorm.DB { return db.Order("offices.number") }).
		Preload("Lease.Offices.Building").
		First(&p, id).Error
	if err != nil {
		return nil, translate("payment", err)
	}
	return &p, nil
}

// TotalRentPaid sums rent payments of a lease, optionally for one year of
// payment dates.
func (r *PaymentRepository) TotalRentPaid(ctx context.Context, leaseID uint, year *int) (float64, error) {
	q := r.DB(ctx).Model(&models.Payment{}).
		Where("lease_id = ? AND type = ?", leaseID, models.PaymentRent)
	if year != nil {
		from := time.Date(*year, time.January, 1, 0, 0, 0, 0, time.UTC)
		q = q.Where("paid_on >= ? AND paid_on < ?", from, from.AddDate(1, 0, 0))
	}

	var total float64
	err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}

// TotalsByType sums amounts per payment type over paid_on in [from, to].
func (r *PaymentRepository) TotalsByType(ctx context.Context, from, to time.Time) (map[models.PaymentType]float64, error) {
	type row struct {
		Type  models.PaymentType
		Total float64
	}
	var rows []row
	err := r.DB(ctx).Model(&models.Payment{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("paid_on >= ? AND paid_on <= ?", models.DateOf(from), models.DateOf(to)).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[models.PaymentType]float64, len(models.PaymentTypes))
	for _, t := range models.PaymentTypes {
		totals[t] = 0
	}
	for _, r := range rows {
		totals[r.Type] = r.Total
	}
	return totals, nil
}

// CoveredMonths is the union of months covered by the lease's rent payments.
func (r *PaymentRepository) CoveredMonths(ctx context.Context, leaseID uint) (map[models.YearMonth]bool, error) {
	var rents []models.Payment
	err := r.DB(ctx).
		Where("lease_id = ? AND type = ?", leaseID, models.PaymentRent).
		Find(&rents).Error
	if err != nil {
		return nil, err
	}

	covered := make(map[models.YearMonth]bool)
	for _, p := range rents {
		for _, ym := range p.CoveredMonths() {
			covered[ym] = true
		}
	}
	return covered, nil
}

// UnpaidMonths lists, oldest first, the months from the lease start up to
// the earlier of asOf and the termination date that no rent payment covers.
func (r *PaymentRepository) UnpaidMonths(ctx context.Context, lease *models.Lease, asOf time.Time) ([]models.YearMonth, error) {
	covered, err := r.CoveredMonths(ctx, lease.ID)
	if err != nil {
		return nil, err
	}

	unpaid := make([]models.YearMonth, 0)
	for _, ym := range models.MonthsBetween(lease.StartDate, lease.CoverageEnd(asOf)) {
		if !covered[ym] {
			unpaid = append(unpaid, ym)
		}
	}
	return unpaid, nil
}
