package ledger

import (
	"github.com/carson-networks/ledger-server/internal/storage/transaction"
)

// Migrate converts stored records to the current shape. Records written by
// older versions carry "amount" instead of "value"; the amount is moved into
// value. migrated reports whether any record changed, which is the signal to
// write the set back. Running Migrate on its own output is a no-op.
func Migrate(records []transaction.Record) (list []transaction.Transaction, migrated bool) {
	list = make([]transaction.Transaction, len(records))
	for i, r := range records {
		if r.IsLegacy() {
			migrated = true
			if r.Value == nil {
				r.Value = r.Amount
			}
			r.Amount = nil
		}
		list[i] = r.Transaction()
	}
	return list, migrated
}
