package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reelcraft/internal/domain"
)

// CreditStorePG implements domain.CreditStore. Balance mutations happen in
// a single guarded UPDATE so concurrent adjustments for the same user are
// serialized by the database, never read-modify-written by the service.
type CreditStorePG struct {
	pool *pgxpool.Pool
}

// NewCreditStore creates a credit store backed by PostgreSQL.
func NewCreditStore(pool *pgxpool.Pool) *CreditStorePG {
	return &CreditStorePG{pool: pool}
}

// AdjustBalance atomically applies a signed delta to the user's balance.
// The WHERE guard refuses any update that would drive the balance negative.
func (s *CreditStorePG) AdjustBalance(ctx context.Context, userID string, delta int) (int, error) {
	query := `
UPDATE users
SET credits = credits + $2, updated_at = NOW()
WHERE id = $1 AND credits + $2 >= 0
RETURNING credits;
`
	var balance int
	if err := s.pool.QueryRow(ctx, query, userID, delta).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the user does not exist or the guard rejected the
			// delta; disambiguate for the caller.
			exists, lookupErr := s.userExists(ctx, userID)
			if lookupErr != nil {
				return 0, lookupErr
			}
			if !exists {
				return 0, domain.ErrNotFound
			}
			return 0, domain.ErrInsufficientCredits
		}
		return 0, err
	}
	return balance, nil
}

// Balance returns the user's current credit balance.
func (s *CreditStorePG) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.pool.QueryRow(ctx, `SELECT credits FROM users WHERE id = $1;`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return balance, err
}

// InsertTransaction appends an audit record. Records are never updated or
// deleted.
func (s *CreditStorePG) InsertTransaction(ctx context.Context, tx *domain.CreditTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	query := `
INSERT INTO credit_transactions (id, user_id, amount, transaction_type, related_job_id, payment_ref)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''));
`
	_, err := s.pool.Exec(ctx, query, tx.ID, tx.UserID, tx.Amount, tx.Type, tx.RelatedJobID, tx.PaymentRef)
	return err
}

// ListTransactions returns the user's audit trail, newest first.
func (s *CreditStorePG) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT id, user_id, amount, transaction_type, COALESCE(related_job_id, ''), COALESCE(payment_ref, ''), created_at
FROM credit_transactions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.CreditTransaction
	for rows.Next() {
		var tx domain.CreditTransaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.RelatedJobID, &tx.PaymentRef, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *CreditStorePG) userExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1);`, userID).Scan(&exists)
	return exists, err
}

var _ domain.CreditStore = (*CreditStorePG)(nil)
