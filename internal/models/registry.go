package models

// ModelTypeRegistry maps model names to their zero values. It drives schema
// drift checks and the backup table order.
var ModelTypeRegistry = map[string]interface{}{
	"Building":           Building{},
	"Office":             Office{},
	"Tenant":             Tenant{},
	"Lease":              Lease{},
	"Payment":            Payment{},
	"Receipt":            Receipt{},
	"ReceiptTemplate":    ReceiptTemplate{},
	"AuditLog":           AuditLog{},
	"DocumentTreeConfig": DocumentTreeConfig{},
	"Document":           Document{},
}

// All returns pointers to every model in foreign key dependency order.
func All() []interface{} {
	return []interface{}{
		&Building{},
		&Office{},
		&Tenant{},
		&Lease{},
		&LeaseOffice{},
		&Payment{},
		&ReceiptTemplate{},
		&Receipt{},
		&DocumentTreeConfig{},
		&Document{},
		&AuditLog{},
	}
}

// Registry exposes ModelTypeRegistry to the migration tooling.
type Registry struct{}

func (Registry) GetModels() map[string]interface{} { return ModelTypeRegistry }
