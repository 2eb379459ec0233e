package chain

import (
	"context"
	"fmt"

	"ticket-marketplace/internal/chain/evm"
)

// EVMAdapter wraps the EVM gateway to conform to Provider
type EVMAdapter struct {
	gateway *evm.Gateway
}

// NewEVMAdapter creates a new EVM adapter
func NewEVMAdapter(ctx context.Context, config *evm.Config) (*EVMAdapter, error) {
	gateway, err := evm.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create EVM gateway: %w", err)
	}

	return &EVMAdapter{
		gateway: gateway,
	}, nil
}

// GetProvider returns the chain provider type
func (a *EVMAdapter) GetProvider() ProviderName {
	return ProviderEVM
}

// MintTicket submits a mint call through the gateway and waits for its receipt
func (a *EVMAdapter) MintTicket(ctx context.Context, req *MintRequest) (*Receipt, error) {
	receipt, err := a.gateway.Mint(ctx, &evm.MintForm{
		Wallet:      req.Wallet,
		EventRef:    req.EventID,
		MetadataURI: req.MetadataURI,
		Amount:      req.Amount,
		Reference:   req.IdempotencyKey,
	})
	if err != nil {
		if receipt != nil {
			return fromGatewayReceipt(receipt), err
		}
		return nil, err
	}

	return fromGatewayReceipt(receipt), nil
}

// BuyResale submits a resale purchase through the gateway and waits for its receipt
func (a *EVMAdapter) BuyResale(ctx context.Context, req *ResaleRequest) (*Receipt, error) {
	receipt, err := a.gateway.BuyResale(ctx, &evm.ResaleForm{
		BuyerWallet:  req.BuyerWallet,
		SellerWallet: req.SellerWallet,
		EventRef:     req.EventID,
		Amount:       req.Amount,
		Reference:    req.IdempotencyKey,
	})
	if err != nil {
		if receipt != nil {
			return fromGatewayReceipt(receipt), err
		}
		return nil, err
	}

	return fromGatewayReceipt(receipt), nil
}

// CheckTransaction checks the status of a transaction
func (a *EVMAdapter) CheckTransaction(ctx context.Context, txHash string) (*Receipt, error) {
	receipt, err := a.gateway.CheckTransaction(ctx, txHash)
	if err != nil {
		return nil, err
	}

	return fromGatewayReceipt(receipt), nil
}

// SetTransactionChannel sets the channel for receiving settlement notifications
func (a *EVMAdapter) SetTransactionChannel(ch chan *TxNotification) {
	gatewayCh := make(chan *evm.Transaction, 1)
	a.gateway.SetTranChannel(gatewayCh)

	go func() {
		for tran := range gatewayCh {
			ch <- &TxNotification{
				TxHash:    tran.TxHash,
				Reference: tran.Reference,
				Status:    ReceiptStatus(tran.Status),
			}
		}
	}()
}

// Close gracefully closes any connections
func (a *EVMAdapter) Close(ctx context.Context) error {
	return a.gateway.Close(ctx)
}

func fromGatewayReceipt(r *evm.Receipt) *Receipt {
	return &Receipt{
		TxHash:      r.TxHash,
		Status:      ReceiptStatus(r.Status),
		BlockNumber: r.BlockNumber,
		Amount:      r.Amount,
		Timestamp:   r.Timestamp,
	}
}
