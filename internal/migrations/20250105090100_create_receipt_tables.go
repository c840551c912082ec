package migrations

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/migration"
)

type receiptTemplateV1 struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(100);not null"`
	IsDefault bool   `gorm:"not null;index"`
	HTML      string `gorm:"type:text;not null"`
	Active    bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (receiptTemplateV1) TableName() string { return "receipt_templates" }

type receiptV1 struct {
	ID          uint        `gorm:"primaryKey"`
	PaymentID   uint        `gorm:"not null;uniqueIndex"`
	Payment     corePayment `gorm:"constraint:OnDelete:CASCADE"`
	Number      string      `gorm:"type:varchar(50);not null;uniqueIndex"`
	Content     datatypes.JSON
	FilePath    string    `gorm:"type:varchar(500)"`
	GeneratedAt time.Time `gorm:"not null"`
	Automatic   bool      `gorm:"not null"`
	Notes       string    `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (receiptV1) TableName() string { return "receipts" }

const defaultReceiptHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt {{.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #222; }
h1 { text-align: center; letter-spacing: 2px; }
.company { margin-bottom: 24px; }
.section { margin-top: 18px; }
.section h2 { font-size: 14px; border-bottom: 1px solid #999; padding-bottom: 4px; }
.amount { font-size: 18px; font-weight: bold; }
.signature { margin-top: 48px; text-align: right; }
</style>
</head>
<body>
<div class="company">
<strong>{{.Company.Name}}</strong><br>
{{with .Company.Address}}{{.}}<br>{{end}}
{{with .Company.Phone}}Tel: {{.}}{{end}}
</div>
<h1>PAYMENT RECEIPT</h1>
<p>No. {{.Number}} &middot; Issued {{.IssuedAt.Format "02/01/2006"}}</p>
<div class="section">
<h2>Tenant</h2>
<p>{{.Tenant.Name}}{{with .Tenant.CompanyName}} ({{.}}){{end}}<br>
{{with .Tenant.Phone}}Tel: {{.}}<br>{{end}}
{{with .Tenant.Email}}{{.}}{{end}}</p>
</div>
<div class="section">
<h2>Payment</h2>
<p>Type: {{.PaymentType}}<br>
Date: {{.PaidOn.Format "02/01/2006"}}<br>
{{with .Period}}Period: {{.}}<br>{{end}}
<span class="amount">Amount: {{.AmountText}}</span></p>
</div>
<div class="section">
<h2>Property</h2>
<p>{{.Building.Name}}<br>
{{with .Building.Address}}{{.}}<br>{{end}}
Offices: {{.OfficesText}}</p>
</div>
<div class="signature">Signature ______________________</div>
</body>
</html>
`

func init() {
	migration.RegisterMigration(&migration.Migration{
		Version:   "20250105090100",
		Name:      "create_receipt_tables",
		CreatedAt: time.Date(2025, 1, 5, 9, 1, 0, 0, time.UTC),
		Up: func(db *gorm.DB) error {
			if err := createTables(db, &receiptTemplateV1{}, &receiptV1{}); err != nil {
				return err
			}
			return db.Create(&receiptTemplateV1{
				Name:      "Default",
				IsDefault: true,
				HTML:      defaultReceiptHTML,
				Active:    true,
			}).Error
		},
		Down: func(db *gorm.DB) error {
			return dropTables(db, &receiptTemplateV1{}, &receiptV1{})
		},
	})
}
