package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/schema"
	"github.com/beesaferoot/officelease/internal/testutil"
	"github.com/beesaferoot/officelease/migration"
)

func TestMigrations_Valid(t *testing.T) {
	assert.NoError(t, migration.Validate(migration.GetRegisteredMigrations()))
}

func TestMigrations_MatchModels(t *testing.T) {
	db := testutil.NewDB(t)

	drifts, err := schema.Check(db, models.ModelTypeRegistry)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	var tpl models.ReceiptTemplate
	require.NoError(t, db.Where("is_default = ?", true).First(&tpl).Error)
	assert.Contains(t, tpl.HTML, "PAYMENT RECEIPT")
}

func TestMigrations_DownAndUpAgain(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	migrator := migration.NewMigrator(db)

	for range migrator.Migrations() {
		_, err := migrator.Down(ctx)
		require.NoError(t, err)
	}
	for _, table := range []string{"buildings", "offices", "lease_offices", "payments", "receipts", "audit_logs", "documents"} {
		assert.False(t, db.Migrator().HasTable(table), table)
	}

	applied, err := migrator.Up(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(migrator.Migrations()))
	assert.True(t, db.Migrator().HasColumn(&models.AuditLog{}, "request_id"))
}

func TestMigrations_ForeignKeys(t *testing.T) {
	db := testutil.NewDB(t)

	err := db.Create(&models.Office{BuildingID: 999, Number: "A1"}).Error
	assert.Error(t, err, "office must reference an existing building")

	building := models.Building{Name: "Tower"}
	require.NoError(t, db.Create(&building).Error)
	require.NoError(t, db.Create(&models.Office{BuildingID: building.ID, Number: "A1"}).Error)
	assert.Error(t, db.Create(&models.Office{BuildingID: building.ID, Number: "A1"}).Error, "number is unique per building")
}

func TestMigrations_AmountsKeepMillimes(t *testing.T) {
	db := testutil.NewDB(t)

	for _, table := range []string{"leases", "payments"} {
		var ddl string
		require.NoError(t, db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&ddl).Error)
		assert.Contains(t, ddl, "numeric(12,3)", table)
		assert.NotContains(t, ddl, "numeric(12,2)", table)
	}
}
