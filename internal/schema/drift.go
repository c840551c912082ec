package schema

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// Drift is a difference between a model and the live database.
type Drift struct {
	Model  string
	Table  string
	Column string
	Type   string
}

func (d Drift) String() string {
	if d.Column == "" {
		return fmt.Sprintf("%s: table %s is missing", d.Model, d.Table)
	}
	if d.Type == "" {
		return fmt.Sprintf("%s: column %s.%s is missing", d.Model, d.Table, d.Column)
	}
	return fmt.Sprintf("%s: column %s.%s (%s) is missing", d.Model, d.Table, d.Column, d.Type)
}

// Check compares every model against db and reports tables and columns the
// models declare but the database lacks. Extra database columns are ignored.
func Check(db *gorm.DB, models map[string]interface{}) ([]Drift, error) {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)

	migrator := db.Migrator()
	var drifts []Drift
	for _, name := range names {
		model := models[name]
		table, err := CreateTableFromModel(model)
		if err != nil {
			return nil, fmt.Errorf("failed to parse model %s: %w", name, err)
		}

		if !migrator.HasTable(table.TableName()) {
			drifts = append(drifts, Drift{Model: name, Table: table.TableName()})
			continue
		}

		for _, column := range table.TableColumns() {
			if column.IgnoreMigration {
				continue
			}
			if !migrator.HasColumn(model, column.ColumnName()) {
				drifts = append(drifts, Drift{Model: name, Table: table.TableName(), Column: column.ColumnName(), Type: column.Type()})
			}
		}

		for _, join := range table.JoinTables() {
			if !migrator.HasTable(join) {
				drifts = append(drifts, Drift{Model: name, Table: join})
			}
		}
	}
	return drifts, nil
}
