package schema

import (
	GORMSchema "gorm.io/gorm/schema"
)

// Column is one persisted field of a parsed model.
type Column struct {
	*GORMSchema.Field
}

// Type is gorm's portable data type, e.g. string or time.
func (c *Column) Type() string {
	return string(c.DataType)
}

func (c *Column) ColumnName() string {
	return c.DBName
}
