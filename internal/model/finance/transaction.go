package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one categorised bank transaction. Negative amounts are spending.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Merchant    string          `json:"merchant"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	AccountName string          `json:"accountName"`
}

// IsSpending reports whether the transaction moved money out of the account.
func (t Transaction) IsSpending() bool {
	return t.Amount.IsNegative()
}
