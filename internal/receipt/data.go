// Package receipt allocates receipt numbers and renders payment receipts as
// PDF files and HTML previews.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/beesaferoot/officelease/internal/config"
	"github.com/beesaferoot/officelease/internal/models"
)

type Company struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type Tenant struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

type Building struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Data is everything printed on a receipt. It is also stored as the
// receipt's content snapshot.
type Data struct {
	Number      string    `json:"number"`
	IssuedAt    time.Time `json:"issued_at"`
	Company     Company   `json:"company"`
	Tenant      Tenant    `json:"tenant"`
	PaymentType string    `json:"payment_type"`
	PaidOn      time.Time `json:"paid_on"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	AmountText  string    `json:"amount_text"`
	Period      string    `json:"period,omitempty"`
	Building    Building  `json:"building"`
	Offices     []string  `json:"offices"`
	OfficesText string    `json:"offices_text"`
}

// NewData collects the receipt fields of p. The payment must be loaded with
// its tenant, lease, offices and their building.
func NewData(p *models.Payment, number string, issuedAt time.Time, cfg config.ReceiptsConfig) Data {
	d := Data{
		Number:   number,
		IssuedAt: issuedAt,
		Company: Company{
			Name:    cfg.CompanyName,
			Address: cfg.CompanyAddress,
			Phone:   cfg.CompanyPhone,
		},
		PaymentType: p.Type.Label(),
		PaidOn:      p.PaidOn,
		Amount:      p.Amount,
		Currency:    cfg.Currency,
		AmountText:  FormatAmount(p.Amount, cfg.Currency),
		Offices:     []string{},
	}

	if p.Tenant != nil {
		d.Tenant = Tenant{
			Name:        p.Tenant.Name,
			CompanyName: p.Tenant.CompanyName,
			Phone:       p.Tenant.Phone,
			Email:       p.Tenant.Email,
		}
	}

	if p.Type == models.PaymentRent && p.PeriodStart != nil && p.PeriodEnd != nil {
		d.Period = fmt.Sprintf("%s - %s", p.PeriodStart.Format("02/01/2006"), p.PeriodEnd.Format("02/01/2006"))
	}

	if p.Lease != nil {
		for _, o := range p.Lease.Offices {
			d.Offices = append(d.Offices, o.Number)
			if d.Building.Name == "" && o.Building != nil {
				d.Building = Building{Name: o.Building.Name, Address: o.Building.Address}
			}
		}
	}
	d.OfficesText = "-"
	if len(d.Offices) > 0 {
		d.OfficesText = strings.Join(d.Offices, ", ")
	}
	return d
}

// FormatAmount renders 1500 as "1,500.000 TND", three decimals for millimes.
func FormatAmount(amount float64, currency string) string {
	s := fmt.Sprintf("%.3f", amount)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac := s[:len(s)-4], s[len(s)-4:]

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := sign + b.String() + frac
	if currency != "" {
		out += " " + currency
	}
	return out
}
