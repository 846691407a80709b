package records

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Entry is the JSON shape of a record in API requests. Amounts may be JSON
// numbers or strings; dates use the calendar-date layout.
type Entry struct {
	ID          string              `json:"id,omitempty"`
	Amount      decimal.NullDecimal `json:"amount"`
	Date        string              `json:"date"`
	ServiceID   string              `json:"serviceId,omitempty"`
	Category    string              `json:"category,omitempty"`
	Kind        string              `json:"kind"`
	Description string              `json:"description,omitempty"`
}

// Record validates the entry and converts it to a MonetaryRecord.
func (e Entry) Record() (MonetaryRecord, error) {
	if !e.Amount.Valid {
		return MonetaryRecord{}, fmt.Errorf("missing amount")
	}
	date, err := ParseDate(e.Date)
	if err != nil {
		return MonetaryRecord{}, err
	}
	kind, err := ParseKind(e.Kind)
	if err != nil {
		return MonetaryRecord{}, err
	}
	return MonetaryRecord{
		ID:          e.ID,
		Amount:      e.Amount.Decimal,
		Date:        date,
		ServiceID:   e.ServiceID,
		Category:    e.Category,
		Kind:        kind,
		Description: e.Description,
	}, nil
}

// FromEntries converts entries in order and names the first invalid one.
func FromEntries(entries []Entry) ([]MonetaryRecord, error) {
	out := make([]MonetaryRecord, 0, len(entries))
	for i, e := range entries {
		rec, err := e.Record()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
