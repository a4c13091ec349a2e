package wallet

import (
	"errors"
	"time"
)

// Posting directions
const (
	DirectionExpense = "expense"
	DirectionIncome  = "income"
)

var validDirections = map[string]struct{}{
	DirectionExpense: {},
	DirectionIncome:  {},
}

// Domain errors
var (
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrInvalidDirection = errors.New("direction must be 'expense' or 'income'")
	ErrInvalidAmount    = errors.New("posting amount must be positive")
	ErrPostingFailed    = errors.New("wallet posting failed")
)

// Wallet holds a user's balance in integer minor units. Balances are mutated
// only through Ledger postings, never written directly.
type Wallet struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"userId"`
	Name         string    `json:"name"`
	Currency     string    `json:"currency"`
	BalanceMinor int64     `json:"balanceMinor"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Posting is a single balance mutation applied to a wallet. The ID is the
// reference the execution engine stores as its idempotency marker payload.
type Posting struct {
	ID          string    `json:"id"`
	WalletID    string    `json:"walletId"`
	AmountMinor int64     `json:"amountMinor"`
	Direction   string    `json:"direction"`
	Description string    `json:"description"`
	PostedAt    time.Time `json:"postedAt"`
}

// IsValidDirection checks if the provided direction is valid
func IsValidDirection(d string) bool {
	_, ok := validDirections[d]
	return ok
}

// SignedAmount returns the balance delta the posting applies: negative for
// expenses, positive for income.
func (p *Posting) SignedAmount() int64 {
	if p.Direction == DirectionExpense {
		return -p.AmountMinor
	}
	return p.AmountMinor
}
