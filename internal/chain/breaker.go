package chain

import (
	"context"

	"ticket-marketplace/utils"
)

// BreakerProvider wraps a Provider with a circuit breaker so a dead
// gateway fails fast instead of stacking up confirmation waits.
type BreakerProvider struct {
	inner   Provider
	breaker *utils.CircuitBreaker
}

func NewBreakerProvider(inner Provider) *BreakerProvider {
	return &BreakerProvider{
		inner:   inner,
		breaker: utils.NewCircuitBreaker(string(inner.GetProvider())),
	}
}

func (p *BreakerProvider) GetProvider() ProviderName {
	return p.inner.GetProvider()
}

func (p *BreakerProvider) MintTicket(ctx context.Context, req *MintRequest) (*Receipt, error) {
	result, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return p.inner.MintTicket(ctx, req)
	})
	if receipt, ok := result.(*Receipt); ok {
		return receipt, err
	}
	return nil, err
}

func (p *BreakerProvider) BuyResale(ctx context.Context, req *ResaleRequest) (*Receipt, error) {
	result, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return p.inner.BuyResale(ctx, req)
	})
	if receipt, ok := result.(*Receipt); ok {
		return receipt, err
	}
	return nil, err
}

func (p *BreakerProvider) CheckTransaction(ctx context.Context, txHash string) (*Receipt, error) {
	result, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return p.inner.CheckTransaction(ctx, txHash)
	})
	if receipt, ok := result.(*Receipt); ok {
		return receipt, err
	}
	return nil, err
}

func (p *BreakerProvider) SetTransactionChannel(ch chan *TxNotification) {
	p.inner.SetTransactionChannel(ch)
}

func (p *BreakerProvider) Close(ctx context.Context) error {
	return p.inner.Close(ctx)
}
