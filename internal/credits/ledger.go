// Package credits maintains per-user credit balances with an append-only
// audit trail. The balance mutation is delegated to the store's atomic
// adjustment so concurrent deductions and refunds cannot lose updates.
package credits

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"reelcraft/internal/domain"
)

// Ledger coordinates balance adjustments and their audit records.
type Ledger struct {
	store  domain.CreditStore
	logger zerolog.Logger
}

// NewLedger creates a Ledger over the given atomic credit store.
func NewLedger(store domain.CreditStore, logger zerolog.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// Deduct atomically removes amount credits from the user's balance and
// appends a usage transaction. The balance mutation is authoritative; a
// failed audit insert is logged but never undoes it.
func (l *Ledger) Deduct(ctx context.Context, userID string, amount int, jobID string) error {
	if amount <= 0 {
		return fmt.Errorf("deduct amount must be positive, got %d", amount)
	}
	if _, err := l.store.AdjustBalance(ctx, userID, -amount); err != nil {
		return fmt.Errorf("deduct credits: %w", err)
	}
	l.appendTransaction(ctx, &domain.CreditTransaction{
		UserID:       userID,
		Amount:       -amount,
		Type:         domain.TransactionUsage,
		RelatedJobID: jobID,
	})
	l.logger.Info().Str("user_id", userID).Str("job_id", jobID).Int("amount", amount).Msg("credits: deducted")
	return nil
}

// Refund atomically returns amount credits to the user's balance and
// appends a refund transaction.
func (l *Ledger) Refund(ctx context.Context, userID string, amount int, jobID string) error {
	if amount <= 0 {
		return fmt.Errorf("refund amount must be positive, got %d", amount)
	}
	if _, err := l.store.AdjustBalance(ctx, userID, amount); err != nil {
		return fmt.Errorf("refund credits: %w", err)
	}
	l.appendTransaction(ctx, &domain.CreditTransaction{
		UserID:       userID,
		Amount:       amount,
		Type:         domain.TransactionRefund,
		RelatedJobID: jobID,
	})
	l.logger.Info().Str("user_id", userID).Str("job_id", jobID).Int("amount", amount).Msg("credits: refunded")
	return nil
}

// Purchase credits the user after an external payment and appends a
// purchase transaction tied to the payment reference.
func (l *Ledger) Purchase(ctx context.Context, userID string, amount int, paymentRef string) error {
	if amount <= 0 {
		return fmt.Errorf("purchase amount must be positive, got %d", amount)
	}
	if _, err := l.store.AdjustBalance(ctx, userID, amount); err != nil {
		return fmt.Errorf("add purchased credits: %w", err)
	}
	l.appendTransaction(ctx, &domain.CreditTransaction{
		UserID:     userID,
		Amount:     amount,
		Type:       domain.TransactionPurchase,
		PaymentRef: paymentRef,
	})
	l.logger.Info().Str("user_id", userID).Str("payment_ref", paymentRef).Int("amount", amount).Msg("credits: purchased")
	return nil
}

// Balance returns the user's current credit balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	return l.store.Balance(ctx, userID)
}

// HasCredits reports whether the user's balance covers the requirement.
func (l *Ledger) HasCredits(ctx context.Context, userID string, required int) (bool, error) {
	balance, err := l.store.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= required, nil
}

// History returns the user's transaction audit trail, newest first.
func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]domain.CreditTransaction, error) {
	return l.store.ListTransactions(ctx, userID, limit)
}

func (l *Ledger) appendTransaction(ctx context.Context, tx *domain.CreditTransaction) {
	if err := l.store.InsertTransaction(ctx, tx); err != nil {
		// The balance already moved; the audit trail is secondary.
		l.logger.Error().Err(err).
			Str("user_id", tx.UserID).
			Str("type", string(tx.Type)).
			Int("amount", tx.Amount).
			Msg("credits: failed to log transaction")
	}
}
