package schema

import (
	"sync"

	GORMSchema "gorm.io/gorm/schema"
)

// Table represents a gorm model
type Table struct {
	*GORMSchema.Schema
	Columns []*Column
}

func (t *Table) TableName() string {
	return t.Table
}

func (t *Table) TableColumns() []*Column {
	return t.Columns
}

// JoinTables lists many2many join tables declared by the model.
func (t *Table) JoinTables() []string {
	var tables []string
	for _, rel := range t.Relationships.Relations {
		if rel.JoinTable != nil {
			tables = append(tables, rel.JoinTable.Table)
		}
	}
	return tables
}

var cache sync.Map

func CreateTableFromModel(model interface{}) (*Table, error) {
	modelSchema, err := GORMSchema.Parse(model, &cache, GORMSchema.NamingStrategy{})
	if err != nil {
		return nil, err
	}

	columns := make([]*Column, 0, len(modelSchema.DBNames))
	for _, dbName := range modelSchema.DBNames {
		columns = append(columns, &Column{Field: modelSchema.FieldsByDBName[dbName]})
	}

	return &Table{Schema: modelSchema, Columns: columns}, nil
}
