package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ProductSnapshot freezes the listing an offer was opened against. The
// catalog can change after the fact; the snapshot does not.
type ProductSnapshot struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	SKU       string    `json:"sku,omitempty"`
	Brand     string    `json:"brand,omitempty"`
	Images    []string  `json:"images,omitempty"`
}

// Value marshals the snapshot into JSON for Postgres.
func (p ProductSnapshot) Value() (driver.Value, error) {
	buf, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the snapshot.
func (p *ProductSnapshot) Scan(value interface{}) error {
	if value == nil {
		*p = ProductSnapshot{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("product snapshot: unsupported scan type %T", value)
	}

	return json.Unmarshal(raw, p)
}
