package receipt

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/beesaferoot/officelease/internal/models"
)

// RenderHTML executes the template's HTML against data.
func RenderHTML(tpl *models.ReceiptTemplate, data Data) (string, error) {
	t, err := template.New(tpl.Name).Option("missingkey=error").Parse(tpl.HTML)
	if err != nil {
		return "", fmt.Errorf("invalid receipt template %q: %w", tpl.Name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render receipt template %q: %w", tpl.Name, err)
	}
	return buf.String(), nil
}

// CheckTemplate renders tpl against sample data so broken templates are
// rejected before they are stored.
func CheckTemplate(tpl *models.ReceiptTemplate) error {
	sample := Data{
		Number:      "RCU-2000-000001",
		Company:     Company{Name: "Sample Company"},
		Tenant:      Tenant{Name: "Sample Tenant"},
		PaymentType: models.PaymentRent.Label(),
		AmountText:  FormatAmount(0, ""),
		OfficesText: "-",
	}
	_, err := RenderHTML(tpl, sample)
	return err
}
