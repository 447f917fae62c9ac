package cmd

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

const (
	maxNameLength = 100
	maxAmount     = 999999.99
)

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ledger.ValidationError{Field: "name", Reason: "is required"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", &ledger.ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", maxNameLength)}
	}
	return name, nil
}

// checkValue accepts "1200", "-350.5" and the comma form "-350,5".
func checkValue(s string) (*transaction.RawValue, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	raw := transaction.Value(s)
	v, ok := raw.Float()
	if !ok {
		return nil, &ledger.ValidationError{Field: "value", Reason: fmt.Sprintf("%q is not a number", s)}
	}
	if math.Abs(v) > maxAmount {
		return nil, &ledger.ValidationError{Field: "value", Reason: fmt.Sprintf("must be between -%.2f and %.2f", maxAmount, maxAmount)}
	}
	return raw, nil
}

func checkID(s string) (transaction.ID, error) {
	id, err := transaction.ParseID(s)
	if err != nil {
		return 0, &ledger.ValidationError{Field: "id", Reason: err.Error()}
	}
	return id, nil
}
