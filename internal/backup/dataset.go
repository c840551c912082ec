// Package backup exports the whole dataset to a versioned JSON document and
// restores it, locally or through Google Drive.
package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beesaferoot/officelease/internal/database"
	"github.com/beesaferoot/officelease/internal/models"
)

const FormatVersion = "1.0"

// ErrUnsupportedVersion is returned for backups written by an incompatible
// release.
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// ErrMalformed is returned when a backup is not valid JSON.
var ErrMalformed = errors.New("malformed backup")

// LeaseRecord is a lease with its office links flattened to ids.
type LeaseRecord struct {
	models.Lease
	OfficeIDs []uint `json:"office_ids"`
}

type Entities struct {
	Buildings           []models.Building           `json:"buildings"`
	Offices             []models.Office             `json:"offices"`
	Tenants             []models.Tenant             `json:"tenants"`
	Leases              []LeaseRecord               `json:"leases"`
	Payments            []models.Payment            `json:"payments"`
	ReceiptTemplates    []models.ReceiptTemplate    `json:"receipt_templates"`
	Receipts            []models.Receipt            `json:"receipts"`
	DocumentTreeConfigs []models.DocumentTreeConfig `json:"document_tree_configs"`
	Documents           []models.Document           `json:"documents"`
	AuditLogs           []models.AuditLog           `json:"audit_logs"`
}

type Dataset struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"export_date"`
	Entities   Entities  `json:"entities"`
}

// Counts reports how many rows of each entity an import wrote.
type Counts map[string]int

func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Export reads every table into a Dataset. All reads share one transaction
// so the backup is a consistent snapshot even while the API keeps writing.
func Export(ctx context.Context, db *gorm.DB) (*Dataset, error) {
	ds := &Dataset{Version: FormatVersion, ExportDate: time.Now().UTC()}

	var opts []*sql.TxOptions
	if database.IsPostgres(db) {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return exportEntities(tx, &ds.Entities)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func exportEntities(tx *gorm.DB, e *Entities) error {
	for name, dest := range map[string]interface{}{
		"buildings":             &e.Buildings,
		"offices":               &e.Offices,
		"tenants":               &e.Tenants,
		"payments":              &e.Payments,
		"receipt_templates":     &e.ReceiptTemplates,
		"receipts":              &e.Receipts,
		"document_tree_configs": &e.DocumentTreeConfigs,
		"documents":             &e.Documents,
		"audit_logs":            &e.AuditLogs,
	} {
		if err := tx.Order("id").Find(dest).Error; err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}

	var leases []models.Lease
	if err := tx.Order("id").Find(&leases).Error; err != nil {
		return fmt.Errorf("failed to export leases: %w", err)
	}
	var links []models.LeaseOffice
	if err := tx.Order("lease_id").Order("office_id").Find(&links).Error; err != nil {
		return fmt.Errorf("failed to export lease offices: %w", err)
	}
	byLease := make(map[uint][]uint, len(leases))
	for _, l := range links {
		byLease[l.LeaseID] = append(byLease[l.LeaseID], l.OfficeID)
	}
	e.Leases = make([]LeaseRecord, 0, len(leases))
	for _, l := range leases {
		ids := byLease[l.ID]
		if ids == nil {
			ids = []uint{}
		}
		e.Leases = append(e.Leases, LeaseRecord{Lease: l, OfficeIDs: ids})
	}
	return nil
}

func Write(w io.Writer, ds *Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Read decodes and checks a backup document.
func Read(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ds.Version != FormatVersion {
		return nil, fmt.Errorf("%w %q, expected %q", ErrUnsupportedVersion, ds.Version, FormatVersion)
	}
	return &ds, nil
}

// upsert writes rows keyed by primary key, overwriting existing ones with
// the backed up values, timestamps included.
func upsert(tx *gorm.DB, rows interface{}) error {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(rows); err != nil {
		return err
	}
	var columns []string
	for _, name := range stmt.Schema.DBNames {
		if f := stmt.Schema.LookUpField(name); f != nil && !f.PrimaryKey {
			columns = append(columns, name)
		}
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Omit(clause.Associations).CreateInBatches(rows, 200).Error
}

// Import restores a backup in one transaction. Rows are upserted by id in
// dependency order and the lease office links are replaced.
func Import(ctx context.Context, db *gorm.DB, r io.Reader) (Counts, error) {
	ds, err := Read(r)
	if err != nil {
		return nil, err
	}
	e := ds.Entities

	leases := make([]models.Lease, 0, len(e.Leases))
	for _, rec := range e.Leases {
		l := rec.Lease
		l.Offices, l.Tenant = nil, nil
		leases = append(leases, l)
	}

	counts := Counts{}
	steps := []struct {
		name string
		rows interface{}
		n    int
	}{
		{"buildings", &e.Buildings, len(e.Buildings)},
		{"offices", &e.Offices, len(e.Offices)},
		{"tenants", &e.Tenants, len(e.Tenants)},
		{"leases", &leases, len(leases)},
		{"payments", &e.Payments, len(e.Payments)},
		{"receipt_templates", &e.ReceiptTemplates, len(e.ReceiptTemplates)},
		{"receipts", &e.Receipts, len(e.Receipts)},
		{"document_tree_configs", &e.DocumentTreeConfigs, len(e.DocumentTreeConfigs)},
		{"documents", &e.Documents, len(e.Documents)},
		{"audit_logs", &e.AuditLogs, len(e.AuditLogs)},
	}

	err = database.Transaction(ctx, db, func(tx *gorm.DB) error {
		for _, s := range steps {
			counts[s.name] = s.n
			if s.n == 0 {
				continue
			}
			if err := upsert(tx, s.rows); err != nil {
				return fmt.Errorf("failed to import %s: %w", s.name, err)
			}
		}

		links := 0
		for _, rec := range e.Leases {
			if err := tx.Where("lease_id = ?", rec.ID).Delete(&models.LeaseOffice{}).Error; err != nil {
				return fmt.Errorf("failed to clear offices of lease %d: %w", rec.ID, err)
			}
			if len(rec.OfficeIDs) == 0 {
				continue
			}
			rows := make([]models.LeaseOffice, 0, len(rec.OfficeIDs))
			for _, id := range rec.OfficeIDs {
				rows = append(rows, models.LeaseOffice{LeaseID: rec.ID, OfficeID: id})
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to link offices of lease %d: %w", rec.ID, err)
			}
			links += len(rows)
		}
		counts["lease_offices"] = links

		if database.IsPostgres(tx) {
			return resetSequences(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

var sequenceTables = []string{
	"buildings", "offices", "tenants", "leases", "payments",
	"receipt_templates", "receipts", "document_tree_configs", "documents", "audit_logs",
}

// resetSequences moves each id sequence past the imported ids so later
// inserts do not collide.
func resetSequences(tx *gorm.DB) error {
	for _, table := range sequenceTables {
		q := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			table,
		)
		if err := tx.Exec(q).Error; err != nil {
			return fmt.Errorf("failed to reset %s id sequence: %w", table, err)
		}
	}
	return nil
}
