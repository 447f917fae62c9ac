package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

func decodeRecords(t *testing.T, data string) []transaction.Record {
	t.Helper()
	var records []transaction.Record
	require.NoError(t, json.Unmarshal([]byte(data), &records))
	return records
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		want     []transaction.Transaction
		migrated bool
	}{
		{
			name:   "current shape",
			stored: `[{"id":1,"name":"Salário","value":5000}]`,
			want:   []transaction.Transaction{{ID: 1, Name: "Salário", Value: 5000}},
		},
		{
			name:     "amount only",
			stored:   `[{"id":1,"name":"Salário","amount":5000}]`,
			want:     []transaction.Transaction{{ID: 1, Name: "Salário", Value: 5000}},
			migrated: true,
		},
		{
			name:     "value wins over amount",
			stored:   `[{"id":1,"name":"Mercado","value":-350,"amount":-999}]`,
			want:     []transaction.Transaction{{ID: 1, Name: "Mercado", Value: -350}},
			migrated: true,
		},
		{
			name:     "string amount",
			stored:   `[{"id":"2","name":"Freelance","amount":"1200.50"}]`,
			want:     []transaction.Transaction{{ID: 2, Name: "Freelance", Value: 1200.5}},
			migrated: true,
		},
		{
			name:   "empty",
			stored: `[]`,
			want:   []transaction.Transaction{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, migrated := Migrate(decodeRecords(t, tt.stored))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.migrated, migrated)
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	first, migrated := Migrate(decodeRecords(t, `[{"id":1,"name":"Salário","amount":5000}]`))
	require.True(t, migrated)

	data, err := json.Marshal(first)
	require.NoError(t, err)

	second, migrated := Migrate(decodeRecords(t, string(data)))
	assert.False(t, migrated)
	assert.Equal(t, first, second)
}
