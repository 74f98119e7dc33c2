package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shannu2342/wholexale-backend/pkg/enums"
)

// NegotiationChanges captures the terms a party proposed with a move.
// All fields are optional; a plain accept or reject carries none.
type NegotiationChanges struct {
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Description *string          `json:"description,omitempty"`
	Terms       *string          `json:"terms,omitempty"`
}

// IsZero reports whether no field was proposed.
func (c NegotiationChanges) IsZero() bool {
	return c.Price == nil && c.Quantity == nil && c.Description == nil && c.Terms == nil
}

// NegotiationEntry is one move in an offer's history.
type NegotiationEntry struct {
	FromUser  uuid.UUID               `json:"from_user"`
	ToUser    uuid.UUID               `json:"to_user"`
	Action    enums.NegotiationAction `json:"action"`
	Changes   *NegotiationChanges     `json:"changes,omitempty"`
	Message   string                  `json:"message,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// NegotiationLog is the append-only move history persisted as JSONB.
// Entries are never mutated or removed once written.
type NegotiationLog []NegotiationEntry

// Value marshals the log into JSON for Postgres.
func (n NegotiationLog) Value() (driver.Value, error) {
	if n == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the log.
func (n *NegotiationLog) Scan(value interface{}) error {
	if value == nil {
		*n = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("negotiation log: unsupported scan type %T", value)
	}

	result := NegotiationLog{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*n = result
	return nil
}

// Last returns the most recent entry, if any.
func (n NegotiationLog) Last() (NegotiationEntry, bool) {
	if len(n) == 0 {
		return NegotiationEntry{}, false
	}
	return n[len(n)-1], true
}

// CounterCountBy returns how many counters the given user has logged.
func (n NegotiationLog) CounterCountBy(userID uuid.UUID) int {
	count := 0
	for _, entry := range n {
		if entry.Action == enums.ActionCountered && entry.FromUser == userID {
			count++
		}
	}
	return count
}
