package domain

import (
	"cloud.google.com/go/civil"
)

// DefaultCategory is assigned to every transaction that was not explicitly
// categorized by the user (chat-created and imported rows alike).
const DefaultCategory = "Uncategorized"

// Transaction is one ledger entry. Amount is signed: positive for money in,
// negative for money out. A transaction is immutable except through a full
// record replace keyed by ID.
type Transaction struct {
	ID          string     `json:"id"`
	Date        civil.Date `json:"date"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	Category    string     `json:"category"`
}

// IsExpense reports whether the transaction moves money out.
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}

// PredictedIncome is anticipated income that has not yet been realized as a
// transaction. It is never counted together with the ledger.
type PredictedIncome struct {
	ID     string     `json:"id"`
	Date   civil.Date `json:"date"`
	Source string     `json:"source"`
	Amount float64    `json:"amount"`
}
