package wallet

import (
	"context"
)

// Ledger is the balance-ledger boundary. The scheduler core posts through it
// and never touches wallet storage directly. Implemented by the Postgres
// wallet repository in the infrastructure layer.
type Ledger interface {
	// Post applies a single credit (income) or debit (expense) of
	// amountMinor to the wallet and returns the created posting.
	// The balance update and the posting insert are atomic.
	Post(ctx context.Context, walletID string, amountMinor int64, direction, description string) (*Posting, error)
}

// Repository defines wallet data access for the host side of the boundary
type Repository interface {
	CreateWallet(ctx context.Context, userID int64, name, currency string, openingBalanceMinor int64) (*Wallet, error)
	GetByID(ctx context.Context, id string) (*Wallet, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Wallet, error)
	GetPosting(ctx context.Context, id string) (*Posting, error)
}
