package models

import (
	"time"
)

// Mint intent states. An intent records one attempted chain purchase so a
// confirmed transaction whose store writes never landed can be completed later.
const (
	IntentPending   = "pending"
	IntentSubmitted = "submitted"
	IntentConfirmed = "confirmed"
	IntentCompleted = "completed"
	IntentFailed    = "failed"

	// IntentRefundDue marks a confirmed payment that found the event
	// sold out at settlement. No ticket exists for it, the operator
	// refunds it from the contract wallet.
	IntentRefundDue = "refund_due"
)

type MintIntent struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	EventID        string    `json:"event_id"`
	WalletAddress  string    `json:"wallet_address"`
	IdempotencyKey string    `json:"idempotency_key"`
	TxHash         string    `json:"tx_hash"`
	State          string    `json:"state"`
	CreatedAt      time.Time `json:"created_at"`
}
