// Package report builds read-only views over leases and payments: the
// monthly payment grid of a building and the dashboard figures.
package report

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
)

// GridSpan is how many months the grid shows on each side of its center.
const GridSpan = 3

type CellStatus string

const (
	StatusPaid          CellStatus = "paid"
	StatusUnpaid        CellStatus = "unpaid"
	StatusNotApplicable CellStatus = "not_applicable"
)

type Cell struct {
	Month     string     `json:"month"`
	Status    CellStatus `json:"status"`
	AmountDue float64    `json:"amount_due"`
}

type GridRow struct {
	LeaseID    uint   `json:"lease_id"`
	TenantID   uint   `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Offices    string `json:"offices"`
	Terminated bool   `json:"terminated"`
	Cells      []Cell `json:"cells"`
}

type Grid struct {
	BuildingID uint      `json:"building_id"`
	Months     []string  `json:"months"`
	Rows       []GridRow `json:"rows"`
}

// leasesInBuilding loads every lease holding at least one office of the
// building, with tenant and offices.
func leasesInBuilding(ctx context.Context, db *gorm.DB, buildingID uint) ([]models.Lease, error) {
	sub := db.Table("lease_offices").
		Select("lease_offices.lease_id").
		Joins("JOIN offices ON offices.id = lease_offices.office_id").
		Where("offices.building_id = ?", buildingID)

	var leases []models.Lease
	err := db.WithContext(ctx).
		Preload("Tenant").
		Preload("Offices", func(db *gorm.DB) *gorm.DB { return db.Order("offices.number") }).
		Where("id IN (?)", sub).
		Order("start_date").Order("id").
		Find(&leases).Error
	return leases, err
}

func monthStatus(l models.Lease, ym models.YearMonth, covered map[models.YearMonth]bool) Cell {
	start := models.YearMonthOf(l.StartDate)
	cell := Cell{Month: ym.String(), Status: StatusNotApplicable}

	applicable := !ym.Before(start)
	if applicable && l.Terminated && l.TerminationDate != nil {
		applicable = !models.YearMonthOf(*l.TerminationDate).Before(ym)
	}
	if applicable {
		cell.AmountDue = l.MonthlyRent
		if ym == start && l.FirstMonthRent > 0 {
			cell.AmountDue = l.FirstMonthRent
		}
		cell.Status = StatusUnpaid
	}
	if covered[ym] {
		cell.Status = StatusPaid
	}
	return cell
}

// PaymentGrid shows, for every lease with an office in the building, the
// seven months around center. A month covered by a rent payment is paid
// even outside the lease's term.
func PaymentGrid(ctx context.Context, db *gorm.DB, buildingID uint, center time.Time) (*Grid, error) {
	if _, err := repository.NewBuildingRepository(db).Get(ctx, buildingID); err != nil {
		return nil, err
	}

	mid := models.YearMonthOf(center)
	months := make([]models.YearMonth, 0, 2*GridSpan+1)
	grid := &Grid{BuildingID: buildingID, Rows: []GridRow{}}
	for i := -GridSpan; i <= GridSpan; i++ {
		ym := mid.Add(i)
		months = append(months, ym)
		grid.Months = append(grid.Months, ym.String())
	}

	leases, err := leasesInBuilding(ctx, db, buildingID)
	if err != nil {
		return nil, err
	}

	payments := repository.NewPaymentRepository(db)
	for _, l := range leases {
		covered, err := payments.CoveredMonths(ctx, l.ID)
		if err != nil {
			return nil, err
		}

		row := GridRow{LeaseID: l.ID, TenantID: l.TenantID, Terminated: l.Terminated}
		if l.Tenant != nil {
			row.TenantName = l.Tenant.Name
		}
		numbers := make([]string, 0, len(l.Offices))
		for _, o := range l.Offices {
			numbers = append(numbers, o.Number)
		}
		row.Offices = strings.Join(numbers, ", ")

		visible := false
		for _, ym := range months {
			cell := monthStatus(l, ym, covered)
			visible = visible || cell.Status != StatusNotApplicable
			row.Cells = append(row.Cells, cell)
		}
		if visible {
			grid.Rows = append(grid.Rows, row)
		}
	}
	return grid, nil
}
