package chain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProviderName represents different chain gateway types
type ProviderName string

const (
	ProviderEVM ProviderName = "evm"
)

// ReceiptStatus is the settlement state of a submitted transaction.
type ReceiptStatus string

const (
	StatusPending   ReceiptStatus = "pending"
	StatusConfirmed ReceiptStatus = "confirmed"
	StatusFailed    ReceiptStatus = "failed"
)

// MintRequest is a request to mint a ticket on the contract.
type MintRequest struct {
	Wallet         string          `json:"wallet"`
	EventID        string          `json:"event_id"`
	MetadataURI    string          `json:"metadata_uri"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// ResaleRequest is a request to buy a resale listing, paying the
// listed price to the seller address.
type ResaleRequest struct {
	BuyerWallet    string          `json:"buyer_wallet"`
	SellerWallet   string          `json:"seller_wallet"`
	EventID        string          `json:"event_id"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// Receipt is the confirmed-or-failed result of a chain call.
type Receipt struct {
	TxHash      string          `json:"tx_hash"`
	Status      ReceiptStatus   `json:"status"`
	BlockNumber int64           `json:"block_number"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   int64           `json:"timestamp"`
}

// TxNotification is an out-of-band settlement notification pushed by
// the gateway.
type TxNotification struct {
	TxHash    string        `json:"tx_hash"`
	Reference string        `json:"reference"`
	Status    ReceiptStatus `json:"status"`
}

// Provider defines the common interface for all chain gateway providers
type Provider interface {
	// GetProvider returns the chain provider type
	GetProvider() ProviderName

	// MintTicket submits a mint transaction and waits for its receipt.
	// The context deadline bounds how long confirmation is awaited.
	MintTicket(ctx context.Context, req *MintRequest) (*Receipt, error)

	// BuyResale submits a resale purchase transaction and waits for its receipt.
	BuyResale(ctx context.Context, req *ResaleRequest) (*Receipt, error)

	// CheckTransaction checks the status of a previously submitted transaction
	CheckTransaction(ctx context.Context, txHash string) (*Receipt, error)

	// SetTransactionChannel sets the channel for receiving settlement notifications
	SetTransactionChannel(ch chan *TxNotification)

	// Close gracefully closes any connections
	Close(ctx context.Context) error
}

// ProviderFactory creates chain providers based on provider type
type ProviderFactory interface {
	CreateProvider(ctx context.Context, name ProviderName, config interface{}) (Provider, error)
	GetSupportedProviders() []ProviderName
}
