package models

import (
	"time"
)

type Ticket struct {
	ID                  string    `json:"id"`
	EventID             string    `json:"event_id"`
	UserID              string    `json:"user_id"`
	OwnerAddress        string    `json:"owner_address"`
	Attended            bool      `json:"attended"`
	Refunded            bool      `json:"refunded"`
	ReputationDecreased bool      `json:"reputation_decreased"`
	TxHash              string    `json:"tx_hash"`
	CreatedAt           time.Time `json:"created_at"`
}
