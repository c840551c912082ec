package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/repository"
	"github.com/beesaferoot/officelease/internal/service"
	"github.com/beesaferoot/officelease/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// populate builds a small but complete dataset through the services.
func populate(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	svc := service.New(db, audit.NewRecorder(nil), zap.NewNop())

	b := &models.Building{Name: "North Tower", Address: "1 Main Street"}
	require.NoError(t, svc.Buildings.Create(ctx, b))
	surface := 42.5
	o1 := &models.Office{BuildingID: b.ID, Number: "101", SurfaceM2: &surface, Available: true}
	o2 := &models.Office{BuildingID: b.ID, Number: "102"}
	require.NoError(t, svc.Offices.Create(ctx, o1))
	require.NoError(t, svc.Offices.Create(ctx, o2))

	alice := &models.Tenant{Name: "Alice", Email: "alice@example.com"}
	bob := &models.Tenant{Name: "Bob"}
	require.NoError(t, svc.Tenants.Create(ctx, alice))
	require.NoError(t, svc.Tenants.Create(ctx, bob))

	la, err := svc.Leases.Create(ctx, &models.Lease{TenantID: alice.ID, StartDate: date(2024, 1, 1), MonthlyRent: 1000}, []uint{o1.ID, o2.ID})
	require.NoError(t, err)
	lb, err := svc.Leases.Create(ctx, &models.Lease{TenantID: bob.ID, StartDate: date(2023, 1, 1), MonthlyRent: 800}, nil)
	require.NoError(t, err)
	_, err = svc.Leases.Terminate(ctx, lb.ID, date(2023, 12, 31), "ended")
	require.NoError(t, err)

	from, to := date(2024, 1, 1), date(2024, 3, 31)
	p := &models.Payment{LeaseID: la.ID, Type: models.PaymentRent, Amount: 3000, PaidOn: date(2024, 1, 2), PeriodStart: &from, PeriodEnd: &to}
	require.NoError(t, svc.Payments.Create(ctx, p))

	require.NoError(t, repository.NewReceiptRepository(db).Create(ctx, &models.Receipt{
		PaymentID: p.ID, Number: "RCU-2024-000001", Content: []byte(`{"amount":3000}`), GeneratedAt: date(2024, 1, 2),
	}))
	require.NoError(t, repository.NewDocumentRepository(db).Create(ctx, &models.Document{
		EntityType: models.EntityLease, EntityID: la.ID, FolderPath: "Signed Lease", Filename: "lease.pdf", OriginalName: "lease.pdf",
	}))
	_, err = repository.NewDocumentRepository(db).SaveTreeConfig(ctx, models.EntityLease, []byte(`{"Signed Lease":{}}`))
	require.NoError(t, err)
}

func entitiesJSON(t *testing.T, ds *Dataset) string {
	raw, err := json.Marshal(ds.Entities)
	require.NoError(t, err)
	return string(raw)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testutil.NewDB(t)
	populate(t, src)

	exported, err := Export(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, exported.Version)
	require.Len(t, exported.Entities.Leases, 2)
	assert.Len(t, exported.Entities.Leases[0].OfficeIDs, 2)
	assert.Empty(t, exported.Entities.Leases[1].OfficeIDs)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, exported))
	assert.Contains(t, buf.String(), `"office_ids"`)
	assert.Contains(t, buf.String(), `"export_date"`)

	dst := testutil.NewDB(t)
	counts, err := Import(ctx, dst, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["offices"])
	assert.Equal(t, 2, counts["lease_offices"])

	reimported, err := Export(ctx, dst)
	require.NoError(t, err)
	assert.JSONEq(t, entitiesJSON(t, exported), entitiesJSON(t, reimported))

	lease, err := repository.NewLeaseRepository(dst).GetWithOffices(ctx, exported.Entities.Leases[0].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, exported.Entities.Leases[0].OfficeIDs, lease.OfficeIDs())
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	populate(t, db)

	ds, err := Export(ctx, db)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ds))
	raw := buf.Bytes()

	_, err = Import(ctx, db, bytes.NewReader(raw))
	require.NoError(t, err)
	_, err = Import(ctx, db, bytes.NewReader(raw))
	require.NoError(t, err)

	n, err := repository.NewOfficeRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)

	_, err := Import(ctx, db, strings.NewReader("{not json"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Import(ctx, db, strings.NewReader(`{"version":"0.9","entities":{}}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestImportRollsBackOnBrokenReference(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)

	doc := `{"version":"1.0","export_date":"2024-01-01T00:00:00Z","entities":{
		"buildings":[{"id":1,"name":"North Tower"}],
		"offices":[{"id":1,"building_id":99,"number":"101"}]}}`
	_, err := Import(ctx, db, strings.NewReader(doc))
	require.Error(t, err)

	n, err := repository.NewBuildingRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	populate(t, db)

	store := NewLocalStore(filepath.Join(t.TempDir(), "backups"), db, zap.NewNop())
	clock := date(2024, 5, 1)
	store.now = func() time.Time { clock = clock.Add(time.Hour); return clock }

	for i := 0; i < 3; i++ {
		_, err := store.Backup(ctx)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "notes.txt"), []byte("x"), 0644))

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "officelease_backup_20240501_030000.json", files[0].Name)
	assert.True(t, files[0].CreatedAt.After(files[1].CreatedAt))

	removed, err := store.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	files, err = store.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	counts, err := store.Restore(ctx, files[0].Path)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["leases"])
}

func TestLocalStoreSameSecondBackups(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	populate(t, db)

	store := NewLocalStore(t.TempDir(), db, zap.NewNop())
	store.now = func() time.Time { return date(2024, 5, 1) }

	first, err := store.Backup(ctx)
	require.NoError(t, err)
	second, err := store.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "officelease_backup_20240501_000000.json", first.Name)
	assert.Equal(t, "officelease_backup_20240501_000000_1.json", second.Name)
	assert.NotEqual(t, first.Path, second.Path)

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, second.Name, files[0].Name)
	assert.Equal(t, date(2024, 5, 1), files[0].CreatedAt)

	counts, err := store.Restore(ctx, first.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["leases"])
}

func TestLocalStoreListMissingDir(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "none"), nil, nil)
	files, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "officelease_backup_20240102_030405.json", FileName(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestExportReadsOneSnapshot(t *testing.T) {
	db := testutil.NewDB(t)
	populate(t, db)

	var queries, outside int
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:snapshot", func(tx *gorm.DB) {
		queries++
		if _, ok := tx.Statement.ConnPool.(gorm.TxCommitter); !ok {
			outside++
		}
	}))
	t.Cleanup(func() { _ = db.Callback().Query().Remove("test:snapshot") })

	ds, err := Export(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, ds.Entities.Leases, 2)
	assert.GreaterOrEqual(t, queries, 11)
	assert.Zero(t, outside, "every export query must run in the snapshot transaction")
}
