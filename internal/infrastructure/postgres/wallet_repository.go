package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"obligo/internal/domain/wallet"
)

// WalletRepository implements both wallet.Repository and the wallet.Ledger
// boundary the execution engine posts through.
type WalletRepository struct {
	db *DB
}

func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByID(ctx context.Context, id string) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, name, currency, balance_minor, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	var w wallet.Wallet
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.UserID, &w.Name, &w.Currency, &w.BalanceMinor, &w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

func (r *WalletRepository) ListByUserID(ctx context.Context, userID int64) ([]*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, name, currency, balance_minor, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*wallet.Wallet
	for rows.Next() {
		var w wallet.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Currency, &w.BalanceMinor, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallets: %w", err)
	}
	return wallets, nil
}

func (r *WalletRepository) GetPosting(ctx context.Context, id string) (*wallet.Posting, error) {
	query := `
		SELECT id, wallet_id, amount_minor, direction, description, posted_at
		FROM wallet_postings
		WHERE id = $1
	`

	var p wallet.Posting
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.WalletID, &p.AmountMinor, &p.Direction, &p.Description, &p.PostedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("posting %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return &p, nil
}

// Post applies a balance mutation and records the posting in one transaction.
// The wallet row is locked so concurrent postings serialize; the insert and
// the balance update commit or roll back together.
func (r *WalletRepository) Post(ctx context.Context, walletID string, amountMinor int64, direction, description string) (*wallet.Posting, error) {
	if amountMinor <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	if !wallet.IsValidDirection(direction) {
		return nil, wallet.ErrInvalidDirection
	}

	p := &wallet.Posting{
		ID:          uuid.NewString(),
		WalletID:    walletID,
		AmountMinor: amountMinor,
		Direction:   direction,
		Description: description,
	}

	err := r.db.WithinTx(ctx, func(tx *sql.Tx) error {
		var balance int64
		err := tx.QueryRowContext(ctx,
			`SELECT balance_minor FROM wallets WHERE id = $1 FOR UPDATE`, walletID,
		).Scan(&balance)
		if err == sql.ErrNoRows {
			return wallet.ErrWalletNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO wallet_postings (id, wallet_id, amount_minor, direction, description)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING posted_at
		`, p.ID, p.WalletID, p.AmountMinor, p.Direction, p.Description).Scan(&p.PostedAt)
		if err != nil {
			return fmt.Errorf("failed to insert posting: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE wallets SET balance_minor = balance_minor + $2, updated_at = NOW()
			WHERE id = $1
		`, walletID, p.SignedAmount())
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		return nil
	})
	if err != nil {
		if err == wallet.ErrWalletNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", wallet.ErrPostingFailed, err)
	}

	p.PostedAt = p.PostedAt.UTC()
	return p, nil
}

// CreateWallet provisions a wallet row with an opening balance.
func (r *WalletRepository) CreateWallet(ctx context.Context, userID int64, name, currency string, openingBalanceMinor int64) (*wallet.Wallet, error) {
	query := `
		INSERT INTO wallets (id, user_id, name, currency, balance_minor)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, name, currency, balance_minor, created_at, updated_at
	`

	var w wallet.Wallet
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), userID, name, currency, openingBalanceMinor).Scan(
		&w.ID, &w.UserID, &w.Name, &w.Currency, &w.BalanceMinor, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &w, nil
}

var _ wallet.Ledger = (*WalletRepository)(nil)
var _ wallet.Repository = (*WalletRepository)(nil)
