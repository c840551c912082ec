package report

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

type Summary struct {
	Buildings             int64     `json:"buildings"`
	Offices               int64     `json:"offices"`
	AvailableOffices      int64     `json:"available_offices"`
	ActiveTenants         int64     `json:"active_tenants"`
	ActiveLeases          int64     `json:"active_leases"`
	PaymentsThisMonth     int64     `json:"payments_this_month"`
	CollectedThisMonth    float64   `json:"collected_this_month"`
	RentCollectedThisYear float64   `json:"rent_collected_this_year"`
	LeasesWithUnpaid      int64     `json:"leases_with_unpaid"`
	AsOf                  time.Time `json:"as_of"`
}

func count(ctx context.Context, db *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	q := db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

// Dashboard computes the headline figures as of now.
func Dashboard(ctx context.Context, db *gorm.DB, now time.Time) (*Summary, error) {
	s := &Summary{AsOf: models.DateOf(now)}

	counts := []struct {
		dst   *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&s.Buildings, &models.Building{}, "", nil},
		{&s.Offices, &models.Office{}, "", nil},
		{&s.AvailableOffices, &models.Office{}, "available = ?", []interface{}{true}},
		{&s.ActiveTenants, &models.Tenant{}, "status = ?", []interface{}{models.TenantActive}},
		{&s.ActiveLeases, &models.Lease{}, "terminated = ?", []interface{}{false}},
	}
	for _, c := range counts {
		n, err := count(ctx, db, c.model, c.query, c.args...)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	month := models.YearMonthOf(now)
	n, err := count(ctx, db, &models.Payment{}, "paid_on >= ? AND paid_on <= ?", month.First(), month.Last())
	if err != nil {
		return nil, err
	}
	s.PaymentsThisMonth = n

	payments := repository.NewPaymentRepository(db)
	monthTotals, err := payments.TotalsByType(ctx, month.First(), month.Last())
	if err != nil {
		return nil, err
	}
	for _, v := range monthTotals {
		s.CollectedThisMonth += v
	}

	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearTotals, err := payments.TotalsByType(ctx, yearStart, models.DateOf(now))
	if err != nil {
		return nil, err
	}
	s.RentCollectedThisYear = yearTotals[models.PaymentRent]

	var active []models.Lease
	if err := db.WithContext(ctx).Where("terminated = ?", false).Find(&active).Error; err != nil {
		return nil, err
	}
	for i := range active {
		unpaid, err := payments.UnpaidMonths(ctx, &active[i], now)
		if err != nil {
			return nil, err
		}
		if len(unpaid) > 0 {
			s.LeasesWithUnpaid++
		}
	}
	return s, nil
}
