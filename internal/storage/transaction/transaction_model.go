package transaction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID identifies a transaction. Stored and wire JSON may carry it as a number
// or as a numeric string; both decode to the same value.
type ID int64

// ParseID parses a decimal id from a query parameter, flag or path segment.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty id")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ID(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	// 2^63 is the first float64 past MaxInt64.
	if f >= 1<<63 || f < -(1<<63) {
		return 0, fmt.Errorf("id %q out of range", s)
	}
	return ID(f), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParseID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Transaction is the current stored and wire shape of a ledger entry.
type Transaction struct {
	ID    ID      `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// IsIncome reports whether the entry counts as income. Zero is income.
func (t Transaction) IsIncome() bool {
	return t.Value >= 0
}

// Kind classifies transactions for filtering.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind accepts "income" or "expense", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncome:
		return KindIncome, nil
	case KindExpense:
		return KindExpense, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Matches reports whether t belongs to kind k.
func (k Kind) Matches(t Transaction) bool {
	switch k {
	case KindIncome:
		return t.IsIncome()
	case KindExpense:
		return !t.IsIncome()
	}
	return true
}

// RawValue holds an amount exactly as it was supplied: a JSON number, a
// numeric string, or anything else. It is sanitised by Float.
type RawValue string

// Value wraps a textual amount, e.g. a CLI argument.
func Value(s string) *RawValue {
	v := RawValue(s)
	return &v
}

// Number wraps a float amount.
func Number(f float64) *RawValue {
	v := RawValue(strconv.FormatFloat(f, 'f', -1, 64))
	return &v
}

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(data)
	return nil
}

func (v RawValue) MarshalJSON() ([]byte, error) {
	if f, ok := v.Float(); ok {
		return json.Marshal(f)
	}
	return json.Marshal(string(v))
}

// Float parses the value. ok is false when the text is not a finite number.
// Out-of-range input such as "1e400" is not finite.
func (v RawValue) Float() (f float64, ok bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Record is a transaction as read back from persistence, before migration.
// Older stores wrote the amount under "amount" instead of "value".
type Record struct {
	ID     ID        `json:"id"`
	Name   string    `json:"name"`
	Value  *RawValue `json:"value,omitempty"`
	Amount *RawValue `json:"amount,omitempty"`
}

// IsLegacy reports whether the record still carries the old amount field.
func (r Record) IsLegacy() bool {
	return r.Amount != nil
}

// Transaction converts a current-shape record, ignoring any legacy amount.
// Non-numeric values become 0.
func (r Record) Transaction() Transaction {
	t := Transaction{ID: r.ID, Name: r.Name}
	if r.Value != nil {
		t.Value, _ = r.Value.Float()
	}
	return t
}

// RecordOf builds the record a Transaction is stored as.
func RecordOf(t Transaction) Record {
	return Record{ID: t.ID, Name: t.Name, Value: Number(t.Value)}
}

// Draft carries user input for create and update. Nil fields were not
// supplied; for update they are left untouched.
type Draft struct {
	ID    *ID       `json:"id,omitempty"`
	Name  *string   `json:"name,omitempty"`
	Value *RawValue `json:"value,omitempty"`
}

// NewDraft is a convenience for a fully populated draft.
func NewDraft(name string, value float64) Draft {
	return Draft{Name: &name, Value: Number(value)}
}

// Patch is a sanitised partial update handed to a persistence backend.
type Patch struct {
	Name  *string
	Value *float64
}

// PatchOf builds a patch that sets every field of t.
func PatchOf(t Transaction) Patch {
	name, value := t.Name, t.Value
	return Patch{Name: &name, Value: &value}
}

// Apply merges the patch into t.
func (p Patch) Apply(t Transaction) Transaction {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Value != nil {
		t.Value = *p.Value
	}
	return t
}

// MaxID returns the largest id in list, or 0 for an empty list.
func MaxID(list []Transaction) ID {
	var max ID
	for _, t := range list {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

// Transactions converts records without migrating them.
func Transactions(records []Record) []Transaction {
	out := make([]Transaction, len(records))
	for i, r := range records {
		out[i] = r.Transaction()
	}
	return out
}
