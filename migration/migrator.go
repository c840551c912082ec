package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrNoMigrations = errors.New("no migrations to revert")

// Status describes one known migration and whether it is applied.
type Status struct {
	Version   string
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrator applies registered migrations, each inside its own transaction
// together with its schema_migrations record.
type Migrator struct {
	db         *gorm.DB
	migrations []*Migration
}

func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: GetRegisteredMigrations(),
	}
}

func (m *Migrator) Register(migration *Migration) {
	m.migrations = append(m.migrations, migration)
	sortByVersion(m.migrations)
}

func (m *Migrator) Migrations() []*Migration {
	return m.migrations
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	return m.db.WithContext(ctx).AutoMigrate(&MigrationRecord{})
}

func (m *Migrator) records(ctx context.Context) (map[string]MigrationRecord, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var records []MigrationRecord
	if err := m.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	applied := make(map[string]MigrationRecord, len(records))
	for _, record := range records {
		applied[record.Version] = record
	}
	return applied, nil
}

func (m *Migrator) GetAppliedVersions(ctx context.Context) (map[string]bool, error) {
	records, err := m.records(ctx)
	if err != nil {
		return nil, err
	}

	versions := make(map[string]bool, len(records))
	for version := range records {
		versions[version] = true
	}
	return versions, nil
}

// Pending returns the migrations not yet applied, oldest first.
func (m *Migrator) Pending(ctx context.Context) ([]*Migration, error) {
	applied, err := m.GetAppliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var pending []*Migration
	for _, migration := range m.migrations {
		if !applied[migration.Version] {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// Up applies every pending migration and returns the ones it applied. It
// stops at the first failure; earlier migrations stay applied.
func (m *Migrator) Up(ctx context.Context) ([]*Migration, error) {
	if err := Validate(m.migrations); err != nil {
		return nil, err
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	applied := make([]*Migration, 0, len(pending))
	for _, mr := range pending {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mr.Up(tx); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", mr.Name, err)
			}

			record := MigrationRecord{
				Version:   mr.Version,
				Name:      mr.Name,
				AppliedAt: time.Now().UTC(),
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", mr.Name, err)
			}
			return nil
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, mr)
	}
	return applied, nil
}

// Down reverts the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) (*Migration, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return nil, err
	}

	var record MigrationRecord
	err := m.db.WithContext(ctx).Order("applied_at DESC").Order("version DESC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoMigrations
	}
	if err != nil {
		return nil, err
	}

	var target *Migration
	for _, migration := range m.migrations {
		if migration.Version == record.Version {
			target = migration
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("migration %s is applied but not registered", record.Version)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := target.Down(tx); err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", target.Name, err)
		}
		if err := tx.Delete(&record).Error; err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Status lists every registered migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	records, err := m.records(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(m.migrations))
	for _, migration := range m.migrations {
		st := Status{Version: migration.Version, Name: migration.Name}
		if record, ok := records[migration.Version]; ok {
			appliedAt := record.AppliedAt
			st.Applied = true
			st.AppliedAt = &appliedAt
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// History returns applied records, newest first.
func (m *Migrator) History(ctx context.Context) ([]MigrationRecord, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return nil, err
	}

	var records []MigrationRecord
	if err := m.db.WithContext(ctx).Order("applied_at DESC").Order("version DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get migration history: %w", err)
	}
	return records, nil
}
