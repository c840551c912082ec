package receipt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/config"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/receipt"
	"github.com/beesaferoot/officelease/internal/repository"
	"github.com/beesaferoot/officelease/internal/service"
	"github.com/beesaferoot/officelease/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var receiptsCfg = config.ReceiptsConfig{
	CompanyName:    "Acme Properties",
	CompanyAddress: "10 Harbour Road",
	CompanyPhone:   "+216 71 000 000",
	Currency:       "TND",
}

type fixture struct {
	ctx   context.Context
	db    *gorm.DB
	svc   *service.Services
	rcpt  *receipt.Service
	dir   string
	lease *models.Lease
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	ctx := context.Background()
	rec := audit.NewRecorder(nil)
	svc := service.New(db, rec, zap.NewNop())

	b := &models.Building{Name: "North Tower", Address: "1 Main Street"}
	require.NoError(t, svc.Buildings.Create(ctx, b))
	o1 := &models.Office{BuildingID: b.ID, Number: "101"}
	o2 := &models.Office{BuildingID: b.ID, Number: "102"}
	require.NoError(t, svc.Offices.Create(ctx, o1))
	require.NoError(t, svc.Offices.Create(ctx, o2))
	tn := &models.Tenant{Name: "Alice Martin", CompanyName: "Martin SARL", Phone: "555-0100", Email: "alice@example.com"}
	require.NoError(t, svc.Tenants.Create(ctx, tn))
	l, err := svc.Leases.Create(ctx, &models.Lease{TenantID: tn.ID, StartDate: date(2024, 1, 1), MonthlyRent: 1200}, []uint{o2.ID, o1.ID})
	require.NoError(t, err)

	dir := t.TempDir()
	rs := receipt.NewService(db, receiptsCfg, dir, rec, zap.NewNop())
	rs.SetClock(func() time.Time { return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC) })
	return &fixture{ctx: ctx, db: db, svc: svc, rcpt: rs, dir: dir, lease: l}
}

func (f *fixture) rent(t *testing.T, paidOn time.Time, from, to time.Time, amount float64) *models.Payment {
	t.Helper()
	p := &models.Payment{LeaseID: f.lease.ID, Type: models.PaymentRent, Amount: amount, PaidOn: paidOn, PeriodStart: &from, PeriodEnd: &to}
	require.NoError(t, f.svc.Payments.Create(f.ctx, p))
	return p
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.000 TND", receipt.FormatAmount(0, "TND"))
	assert.Equal(t, "999.500 TND", receipt.FormatAmount(999.5, "TND"))
	assert.Equal(t, "1,500.000 TND", receipt.FormatAmount(1500, "TND"))
	assert.Equal(t, "1,234,567.890", receipt.FormatAmount(1234567.89, ""))
	assert.Equal(t, "12.345 TND", receipt.FormatAmount(12.345, "TND"))
	assert.Equal(t, "-2,000.000 EUR", receipt.FormatAmount(-2000, "EUR"))
}

func TestNewData(t *testing.T) {
	f := setup(t)
	p := f.rent(t, date(2024, 2, 3), date(2024, 2, 1), date(2024, 3, 31), 2400)

	full, err := repository.NewPaymentRepository(f.db).GetFull(f.ctx, p.ID)
	require.NoError(t, err)

	issued := date(2024, 6, 15)
	d := receipt.NewData(full, "RCU-2024-000009", issued, receiptsCfg)

	assert.Equal(t, "RCU-2024-000009", d.Number)
	assert.Equal(t, issued, d.IssuedAt)
	assert.Equal(t, "Acme Properties", d.Company.Name)
	assert.Equal(t, "Alice Martin", d.Tenant.Name)
	assert.Equal(t, "Martin SARL", d.Tenant.CompanyName)
	assert.Equal(t, "Rent", d.PaymentType)
	assert.Equal(t, "2,400.000 TND", d.AmountText)
	assert.Equal(t, "01/02/2024 - 31/03/2024", d.Period)
	assert.Equal(t, "North Tower", d.Building.Name)
	assert.Equal(t, "1 Main Street", d.Building.Address)
	assert.Equal(t, []string{"101", "102"}, d.Offices)
	assert.Equal(t, "101, 102", d.OfficesText)
}

func TestNewDataWithoutOffices(t *testing.T) {
	p := &models.Payment{Type: models.PaymentDeposit, Amount: 500, PaidOn: date(2024, 1, 1), Tenant: &models.Tenant{Name: "Bob"}}
	d := receipt.NewData(p, "RCU-2024-000001", date(2024, 1, 1), receiptsCfg)

	assert.Equal(t, "Deposit", d.PaymentType)
	assert.Empty(t, d.Period)
	assert.Empty(t, d.Offices)
	assert.Equal(t, "-", d.OfficesText)
}

func TestRenderPDF(t *testing.T) {
	d := receipt.Data{
		Number:      "RCU-2024-000001",
		IssuedAt:    date(2024, 6, 15),
		Company:     receipt.Company{Name: "Société Générale Immobilière"},
		Tenant:      receipt.Tenant{Name: "Zoé"},
		PaymentType: "Rent",
		PaidOn:      date(2024, 6, 1),
		AmountText:  "1,000.000 TND",
		Period:      "01/06/2024 - 30/06/2024",
		OfficesText: "101",
	}

	pdf, err := receipt.RenderPDF(d, receiptsCfg)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	t.Run("with signature", func(t *testing.T) {
		sig := filepath.Join(t.TempDir(), "signature.png")
		img := image.NewRGBA(image.Rect(0, 0, 40, 20))
		img.Set(5, 5, color.Black)
		fh, err := os.Create(sig)
		require.NoError(t, err)
		require.NoError(t, png.Encode(fh, img))
		require.NoError(t, fh.Close())

		cfg := receiptsCfg
		cfg.SignaturePath = sig
		withSig, err := receipt.RenderPDF(d, cfg)
		require.NoError(t, err)
		assert.Greater(t, len(withSig), len(pdf))
	})

	t.Run("missing signature falls back to a line", func(t *testing.T) {
		cfg := receiptsCfg
		cfg.SignaturePath = filepath.Join(t.TempDir(), "missing.png")
		_, err := receipt.RenderPDF(d, cfg)
		require.NoError(t, err)
	})
}

func TestGenerate(t *testing.T) {
	f := setup(t)
	p := f.rent(t, date(2024, 6, 2), date(2024, 6, 1), date(2024, 6, 30), 1200)

	pdf, rc, err := f.rcpt.Generate(f.ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Equal(t, "RCU-2024-000001", rc.Number)
	assert.Equal(t, filepath.Join(f.dir, "RCU-2024-000001.pdf"), rc.FilePath)
	assert.False(t, rc.Automatic)

	onDisk, err := os.ReadFile(rc.FilePath)
	require.NoError(t, err)
	assert.Equal(t, pdf, onDisk)

	var content receipt.Data
	require.NoError(t, json.Unmarshal(rc.Content, &content))
	assert.Equal(t, "Alice Martin", content.Tenant.Name)
	assert.Equal(t, "1,200.000 TND", content.AmountText)

	logs, err := repository.NewAuditRepository(f.db).ByAction(f.ctx, models.ActionReceiptGenerated)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, rc.ID, logs[0].EntityID)

	t.Run("regenerating keeps the number", func(t *testing.T) {
		_, again, err := f.rcpt.Generate(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, rc.ID, again.ID)
		assert.Equal(t, rc.Number, again.Number)

		n, err := repository.NewReceiptRepository(f.db).Count(f.ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("next payment gets the next number", func(t *testing.T) {
		p2 := f.rent(t, date(2024, 7, 1), date(2024, 7, 1), date(2024, 7, 31), 1200)
		_, rc2, err := f.rcpt.Generate(f.ctx, p2.ID)
		require.NoError(t, err)
		assert.Equal(t, "RCU-2024-000002", rc2.Number)
	})
}

func TestGenerateUnknownPayment(t *testing.T) {
	f := setup(t)
	_, _, err := f.rcpt.Generate(f.ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPreview(t *testing.T) {
	f := setup(t)
	p := f.rent(t, date(2024, 6, 2), date(2024, 6, 1), date(2024, 6, 30), 1200)

	html, err := f.rcpt.Preview(f.ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Contains(t, html, receipt.DraftNumber)
	assert.Contains(t, html, "Alice Martin")
	assert.Contains(t, html, "1,200.000 TND")
	assert.Contains(t, html, "101, 102")

	_, rc, err := f.rcpt.Generate(f.ctx, p.ID)
	require.NoError(t, err)
	html, err = f.rcpt.Preview(f.ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Contains(t, html, rc.Number)

	_, err = f.rcpt.Preview(f.ctx, p.ID, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRenderHTML(t *testing.T) {
	tpl := &models.ReceiptTemplate{Name: "mini", HTML: `<p>{{.Number}} {{.Tenant.Name}}</p>`}
	out, err := receipt.RenderHTML(tpl, receipt.Data{Number: "N1", Tenant: receipt.Tenant{Name: "<b>Eve</b>"}})
	require.NoError(t, err)
	assert.Equal(t, "<p>N1 &lt;b&gt;Eve&lt;/b&gt;</p>", out)

	assert.Error(t, receipt.CheckTemplate(&models.ReceiptTemplate{Name: "broken", HTML: `{{.Number`}))
	assert.Error(t, receipt.CheckTemplate(&models.ReceiptTemplate{Name: "unknown", HTML: `{{.Nope}}`}))
	assert.NoError(t, receipt.CheckTemplate(tpl))
}

func TestGenerateBatch(t *testing.T) {
	f := setup(t)
	f.rcpt.SetWorkers(2)
	march := f.rent(t, date(2024, 3, 5), date(2024, 3, 1), date(2024, 3, 31), 1200)
	jan := f.rent(t, date(2024, 1, 5), date(2024, 1, 1), date(2024, 1, 31), 1200)
	feb := f.rent(t, date(2024, 2, 5), date(2024, 2, 1), date(2024, 2, 29), 1200)
	f.rent(t, date(2024, 5, 5), date(2024, 5, 1), date(2024, 5, 31), 1200)

	results, err := f.rcpt.GenerateBatch(f.ctx, date(2024, 1, 1), date(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, results, 3)

	numbers := map[uint]string{}
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.FileExists(t, r.Path)
		numbers[r.PaymentID] = r.Number
	}
	assert.Equal(t, "RCU-2024-000001", numbers[jan.ID])
	assert.Equal(t, "RCU-2024-000002", numbers[feb.ID])
	assert.Equal(t, "RCU-2024-000003", numbers[march.ID])

	rc, err := repository.NewReceiptRepository(f.db).ByPayment(f.ctx, feb.ID)
	require.NoError(t, err)
	assert.True(t, rc.Automatic)

	again, err := f.rcpt.GenerateBatch(f.ctx, date(2024, 1, 1), date(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, again, 3)
	n, err := repository.NewReceiptRepository(f.db).Count(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestTemplates(t *testing.T) {
	f := setup(t)
	templates := repository.NewReceiptTemplateRepository(f.db)
	seeded, err := templates.Default(f.ctx)
	require.NoError(t, err)

	err = f.rcpt.CreateTemplate(f.ctx, &models.ReceiptTemplate{Name: "Broken", HTML: "{{.Number", Active: true})
	assert.True(t, repository.IsValidation(err))
	err = f.rcpt.CreateTemplate(f.ctx, &models.ReceiptTemplate{Name: " ", HTML: "<p></p>", Active: true})
	assert.True(t, repository.IsValidation(err))

	compact := &models.ReceiptTemplate{Name: "Compact", HTML: "<p>{{.Number}}</p>", Active: true, IsDefault: true}
	require.NoError(t, f.rcpt.CreateTemplate(f.ctx, compact))
	assert.True(t, compact.IsDefault)

	def, err := templates.Default(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, compact.ID, def.ID)

	assert.True(t, repository.IsReference(f.rcpt.DeleteTemplate(f.ctx, compact.ID)))

	compact.Active = false
	assert.True(t, repository.IsValidation(f.rcpt.UpdateTemplate(f.ctx, compact)))

	_, err = f.rcpt.SetDefaultTemplate(f.ctx, seeded.ID)
	require.NoError(t, err)

	compact.Active = false
	compact.HTML = "<div>{{.Number}}</div>"
	require.NoError(t, f.rcpt.UpdateTemplate(f.ctx, compact))
	assert.False(t, compact.IsDefault)

	_, err = f.rcpt.SetDefaultTemplate(f.ctx, compact.ID)
	assert.True(t, repository.IsValidation(err))

	require.NoError(t, f.rcpt.DeleteTemplate(f.ctx, compact.ID))
	_, err = templates.Get(f.ctx, compact.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
