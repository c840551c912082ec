// Package migrations holds the ordered schema history. Each file registers
// one migration from init and works on frozen snapshot structs so later
// model changes never alter what an old migration does.
package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

func createTables(db *gorm.DB, tables ...interface{}) error {
	for _, table := range tables {
		if err := db.Migrator().CreateTable(table); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", table, err)
		}
	}
	return nil
}

// dropTables drops in reverse order so dependents go first.
func dropTables(db *gorm.DB, tables ...interface{}) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", tables[i], err)
		}
	}
	return nil
}
