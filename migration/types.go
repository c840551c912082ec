package migration

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

type Migration struct {
	Version   string
	Name      string
	CreatedAt time.Time
	Up        func(*gorm.DB) error
	Down      func(*gorm.DB) error
}

type MigrationRecord struct {
	Version   string    `gorm:"primaryKey;type:varchar(32)"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationRecord) TableName() string { return "schema_migrations" }

var (
	globalMigrations = make([]*Migration, 0)
	registryMutex    sync.RWMutex
)

// RegisterMigration adds a migration to the global registry. Migration
// packages call it from init.
func RegisterMigration(migration *Migration) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	globalMigrations = append(globalMigrations, migration)
}

// GetRegisteredMigrations returns a copy of the registry sorted by version.
func GetRegisteredMigrations() []*Migration {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	migrations := make([]*Migration, len(globalMigrations))
	copy(migrations, globalMigrations)
	sortByVersion(migrations)
	return migrations
}

func ResetMigrations() {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	globalMigrations = make([]*Migration, 0)
}

func sortByVersion(migrations []*Migration) {
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
}

// Validate checks that versions are unique and every migration can be
// applied and reverted.
func Validate(migrations []*Migration) error {
	seen := make(map[string]string, len(migrations))
	for _, m := range migrations {
		if m.Version == "" {
			return fmt.Errorf("migration %q has no version", m.Name)
		}
		if _, err := time.Parse("20060102150405", m.Version); err != nil {
			return fmt.Errorf("migration %q: version %q is not a timestamp", m.Name, m.Version)
		}
		if other, ok := seen[m.Version]; ok {
			return fmt.Errorf("duplicate migration version %s (%s, %s)", m.Version, other, m.Name)
		}
		seen[m.Version] = m.Name
		if m.Up == nil || m.Down == nil {
			return fmt.Errorf("migration %s (%s) must define Up and Down", m.Version, m.Name)
		}
	}
	return nil
}

// ModelRegistry - users must implement this
type ModelRegistry interface {
	GetModels() map[string]interface{}
}

// Global registry - users set this in their main.go
var GlobalModelRegistry ModelRegistry

// Validate that registry is provided
func ValidateRegistry() error {
	if GlobalModelRegistry == nil {
		return fmt.Errorf("no model registry provided. Please implement migration.ModelRegistry and set it in your main.go")
	}
	return nil
}
