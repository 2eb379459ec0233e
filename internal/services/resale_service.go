package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ticket-marketplace/internal/chain"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/internal/store"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/utils"
)

// ResaleService drives the listing lifecycle:
// not listed -> listed -> sold (terminal), or back to not listed on cancel.
type ResaleService struct {
	store    store.Store
	chain    chain.Provider
	guard    Guard
	notifier Notifier

	confirmTimeout time.Duration
}

func NewResaleService(
	st store.Store,
	provider chain.Provider,
	guard Guard,
	notifier Notifier,
	confirmTimeout time.Duration,
) *ResaleService {
	return &ResaleService{
		store:          st,
		chain:          provider,
		guard:          guard,
		notifier:       notifier,
		confirmTimeout: confirmTimeout,
	}
}

// List offers the seller's ticket for eventID at the event's original
// price. One active listing per (event, seller).
func (s *ResaleService) List(ctx context.Context, sellerID, eventID string) (*models.ResaleListing, error) {
	ticket, err := s.store.TicketByEventAndUser(ctx, eventID, sellerID)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}

	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.IsCancelled {
		return nil, status.ErrEventCancelled
	}
	if event.Expired(time.Now()) {
		return nil, status.ErrEventExpired
	}
	if ticket.Attended {
		return nil, status.ErrTicketAttended
	}

	if _, err := s.store.ActiveListing(ctx, eventID, sellerID); err == nil {
		return nil, status.ErrAlreadyListed
	}

	seller, err := s.store.Profile(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	listing := &models.ResaleListing{
		EventID:       eventID,
		TicketID:      ticket.ID,
		SellerID:      sellerID,
		SellerAddress: seller.WalletAddress,
		Price:         event.Price,
	}
	if err := s.store.CreateListing(ctx, listing); err != nil {
		return nil, err
	}

	s.notifier.PublishEvent(eventID, map[string]any{
		"type":     "listings_changed",
		"event_id": eventID,
	})

	monitoring.TrackWorkflow("resale_list", "success")
	return listing, nil
}

// Cancel removes the seller's own unsold listing for eventID.
func (s *ResaleService) Cancel(ctx context.Context, sellerID, eventID string) error {
	listing, err := s.store.ActiveListing(ctx, eventID, sellerID)
	if err != nil {
		return status.ErrListingNotFound
	}

	if err := s.store.DeleteListing(ctx, listing.ID); err != nil {
		return err
	}

	s.notifier.PublishEvent(eventID, map[string]any{
		"type":     "listings_changed",
		"event_id": eventID,
	})

	monitoring.TrackWorkflow("resale_cancel", "success")
	return nil
}

// ListingsForEvent returns the unsold listings for an event.
func (s *ResaleService) ListingsForEvent(ctx context.Context, eventID string) ([]*models.ResaleListing, error) {
	return s.store.ListingsByEvent(ctx, eventID)
}

// Buy purchases a listed ticket: chain payment to the seller address,
// then one store transaction marking the listing sold and reassigning
// the ticket.
func (s *ResaleService) Buy(ctx context.Context, buyerID, listingID string) (*models.Ticket, error) {
	listing, err := s.store.Listing(ctx, listingID)
	if err != nil {
		return nil, status.ErrListingNotFound
	}
	if listing.IsSold {
		monitoring.TrackWorkflow("resale_buy", "rejected")
		return nil, status.ErrListingSold
	}

	// Checked before any chain call.
	if listing.SellerID == buyerID {
		monitoring.TrackWorkflow("resale_buy", "rejected")
		return nil, status.ErrSelfPurchase
	}

	buyer, err := s.store.Profile(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer.WalletAddress == "" {
		monitoring.TrackWorkflow("resale_buy", "rejected")
		return nil, status.ErrWalletMissing
	}

	if err := s.guard.Acquire(ctx, buyerID, "resale-buy", listingID); err != nil {
		monitoring.TrackWorkflow("resale_buy", "rejected")
		return nil, err
	}
	defer s.guard.Release(context.WithoutCancel(ctx), buyerID, "resale-buy", listingID)

	// Fresh read under the guard; a concurrent buyer may have won.
	listing, err = s.store.Listing(ctx, listingID)
	if err != nil {
		return nil, status.ErrListingNotFound
	}
	if listing.IsSold {
		monitoring.TrackWorkflow("resale_buy", "rejected")
		return nil, status.ErrListingSold
	}

	ticket, err := s.store.Ticket(ctx, listing.TicketID)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}

	key, err := utils.GenerateCode(16)
	if err != nil {
		return nil, err
	}

	chainCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	started := time.Now()
	receipt, err := s.chain.BuyResale(chainCtx, &chain.ResaleRequest{
		BuyerWallet:    buyer.WalletAddress,
		SellerWallet:   listing.SellerAddress,
		EventID:        listing.EventID,
		Amount:         decimal.NewFromInt(listing.Price),
		IdempotencyKey: key,
	})
	monitoring.TrackChainCall("resale_buy", time.Since(started))

	if err != nil {
		monitoring.TrackWorkflow("resale_buy", "chain_failed")
		return nil, fmt.Errorf("%w: %v", status.ErrChainCallFailed, err)
	}
	if receipt.Status != chain.StatusConfirmed {
		monitoring.TrackWorkflow("resale_buy", "chain_failed")
		return nil, status.ErrChainCallFailed
	}

	err = s.store.RunInTransaction(func(tx store.Store) error {
		listing.IsSold = true
		if err := tx.UpdateListing(ctx, listing); err != nil {
			return err
		}

		ticket.UserID = buyerID
		ticket.OwnerAddress = buyer.WalletAddress
		return tx.UpdateTicket(ctx, ticket)
	})
	if err != nil {
		monitoring.TrackWorkflow("resale_buy", "settle_failed")
		return nil, fmt.Errorf("resale settle (tx %s): %w", receipt.TxHash, err)
	}

	s.notifier.PublishEvent(listing.EventID, map[string]any{
		"type":     "listings_changed",
		"event_id": listing.EventID,
	})
	s.notifier.PublishUser(buyerID, map[string]any{
		"type":      "ticket_transferred",
		"ticket_id": ticket.ID,
		"event_id":  listing.EventID,
	})
	s.notifier.PublishUser(listing.SellerID, map[string]any{
		"type":       "listing_sold",
		"listing_id": listing.ID,
		"event_id":   listing.EventID,
	})

	monitoring.TrackWorkflow("resale_buy", "success")
	return ticket, nil
}
