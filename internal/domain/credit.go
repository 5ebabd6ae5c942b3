package domain

import "time"

// TransactionType enumerates credit ledger entry kinds.
type TransactionType string

const (
	TransactionUsage    TransactionType = "usage"
	TransactionRefund   TransactionType = "refund"
	TransactionPurchase TransactionType = "purchase"
)

// CreditTransaction is an append-only audit record of a balance change.
// Amount is signed: negative for usage, positive for refund and purchase.
type CreditTransaction struct {
	ID           string
	UserID       string
	Amount       int
	Type         TransactionType
	RelatedJobID string
	PaymentRef   string
	CreatedAt    time.Time
}
