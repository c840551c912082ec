package models

import (
	"fmt"
	"time"
)

type PaymentType string

const (
	PaymentRent     PaymentType = "rent"
	PaymentDeposit  PaymentType = "deposit"
	PaymentKeyMoney PaymentType = "key_money"
	PaymentOther    PaymentType = "other"
)

var PaymentTypes = []PaymentType{PaymentRent, PaymentDeposit, PaymentKeyMoney, PaymentOther}

func ParsePaymentType(s string) (PaymentType, error) {
	for _, t := range PaymentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown payment type %q", s)
}

// Label is the human readable name printed on receipts.
func (t PaymentType) Label() string {
	switch t {
	case PaymentRent:
		return "Rent"
	case PaymentDeposit:
		return "Deposit"
	case PaymentKeyMoney:
		return "Key money"
	default:
		return "Other"
	}
}

type Payment struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	TenantID    uint        `gorm:"not null;index" json:"tenant_id"`
	Tenant      *Tenant     `json:"tenant,omitempty"`
	LeaseID     uint        `gorm:"not null;index" json:"lease_id"`
	Lease       *Lease      `json:"lease,omitempty"`
	Type        PaymentType `gorm:"type:varchar(20);not null;index" json:"type"`
	Amount      float64     `gorm:"type:numeric(12,3);not null" json:"amount"`
	PaidOn      time.Time   `gorm:"not null;index" json:"paid_on"`
	PeriodStart *time.Time  `json:"period_start"`
	PeriodEnd   *time.Time  `json:"period_end"`
	Comment     string      `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// CoveredMonths lists the months the payment period spans, walking from the
// period start. Only rent payments with a full period cover anything.
func (p Payment) CoveredMonths() []YearMonth {
	if p.Type != PaymentRent || p.PeriodStart == nil || p.PeriodEnd == nil {
		return nil
	}
	return MonthsBetween(*p.PeriodStart, *p.PeriodEnd)
}

// PeriodLabel formats the period as "01/2024 - 03/2024", or "" without one.
func (p Payment) PeriodLabel() string {
	if p.PeriodStart == nil || p.PeriodEnd == nil {
		return ""
	}
	return fmt.Sprintf("%s - %s", p.PeriodStart.Format("01/2006"), p.PeriodEnd.Format("01/2006"))
}
