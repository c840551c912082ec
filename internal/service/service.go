// Package service holds the write paths of the application. Every operation
// runs in one transaction, enforces the business rules and writes an audit
// entry next to the change.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/database"
	"github.com/beesaferoot/officelease/internal/logging"
)

type base struct {
	db     *gorm.DB
	audit  *audit.Recorder
	logger *zap.Logger
	now    func() time.Time
}

func (s base) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return database.Transaction(ctx, s.db, fn)
}

// log prefers the request scoped logger when the context carries one.
func (s base) log(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

// Services bundles the write services over one database.
type Services struct {
	Buildings *BuildingService
	Offices   *OfficeService
	Tenants   *TenantService
	Leases    *LeaseService
	Payments  *PaymentService
}

func New(db *gorm.DB, rec *audit.Recorder, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := base{db: db, audit: rec, logger: logger, now: time.Now}
	return &Services{
		Buildings: &BuildingService{base: b},
		Offices:   &OfficeService{base: b},
		Tenants:   &TenantService{base: b},
		Leases:    &LeaseService{base: b},
		Payments:  &PaymentService{base: b},
	}
}

// SetClock overrides the time source, for tests and seeding.
func (s *Services) SetClock(now func() time.Time) {
	s.Buildings.now = now
	s.Offices.now = now
	s.Tenants.now = now
	s.Leases.now = now
	s.Payments.now = now
}
