package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type gadget struct {
	ID    uint `gorm:"primaryKey"`
	Name  string
	Color string
	Parts []part `gorm:"many2many:gadget_parts;"`
}

type part struct {
	ID uint `gorm:"primaryKey"`
}

func TestCreateTableFromModel(t *testing.T) {
	table, err := CreateTableFromModel(&gadget{})
	require.NoError(t, err)

	assert.Equal(t, "gadgets", table.TableName())
	var names []string
	for _, c := range table.TableColumns() {
		names = append(names, c.ColumnName())
	}
	assert.Equal(t, []string{"id", "name", "color"}, names)
	assert.Equal(t, []string{"gadget_parts"}, table.JoinTables())
}

func TestCheck(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	models := map[string]interface{}{"Gadget": gadget{}}

	drifts, err := Check(db, models)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, "Gadget: table gadgets is missing", drifts[0].String())

	require.NoError(t, db.Exec("CREATE TABLE gadgets (id INTEGER PRIMARY KEY, name TEXT)").Error)
	drifts, err = Check(db, models)
	require.NoError(t, err)
	require.Len(t, drifts, 2)
	assert.Equal(t, "color", drifts[0].Column)
	assert.Equal(t, "Gadget: column gadgets.color (string) is missing", drifts[0].String())
	assert.Equal(t, "gadget_parts", drifts[1].Table)

	require.NoError(t, db.AutoMigrate(&gadget{}))
	drifts, err = Check(db, models)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
