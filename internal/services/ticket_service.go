package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"ticket-marketplace/internal/chain"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/internal/store"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/utils"
)

// TicketService runs the mint workflow as a saga: one chain call keyed
// by an idempotency reference, then a single store transaction for the
// dependent writes. A confirmed chain transaction whose writes never
// landed is completed later by the reconciliation pass.
type TicketService struct {
	store    store.Store
	chain    chain.Provider
	guard    Guard
	notifier Notifier

	metadataURI       string
	confirmTimeout    time.Duration
	reconcileInterval time.Duration
}

func NewTicketService(
	st store.Store,
	provider chain.Provider,
	guard Guard,
	notifier Notifier,
	metadataURI string,
	confirmTimeout time.Duration,
	reconcileInterval time.Duration,
) *TicketService {
	return &TicketService{
		store:             st,
		chain:             provider,
		guard:             guard,
		notifier:          notifier,
		metadataURI:       metadataURI,
		confirmTimeout:    confirmTimeout,
		reconcileInterval: reconcileInterval,
	}
}

// validateMint checks every mint precondition. Nothing external is
// touched until all of them pass.
func validateMint(event *models.Event, buyer *models.Profile, now time.Time) error {
	if event.IsCancelled {
		return status.ErrEventCancelled
	}
	if event.Expired(now) {
		return status.ErrEventExpired
	}
	if event.Organizer == buyer.ID {
		return status.ErrOwnEvent
	}
	if event.SoldOut() {
		return status.ErrEventSoldOut
	}
	if buyer.Reputation < event.ReputationReq {
		return status.ErrLowReputation
	}
	return nil
}

// Mint purchases a ticket for userID on eventID.
func (s *TicketService) Mint(ctx context.Context, userID, eventID string) (*models.Ticket, error) {
	buyer, err := s.store.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if buyer.WalletAddress == "" {
		monitoring.TrackWorkflow("mint", "rejected")
		return nil, status.ErrWalletMissing
	}

	if err := s.guard.Acquire(ctx, userID, "mint", eventID); err != nil {
		monitoring.TrackWorkflow("mint", "rejected")
		return nil, err
	}
	defer s.guard.Release(context.WithoutCancel(ctx), userID, "mint", eventID)

	// Fresh event read under the guard, immediately before the purchase.
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := validateMint(event, buyer, time.Now()); err != nil {
		monitoring.TrackWorkflow("mint", "rejected")
		return nil, err
	}

	key, err := utils.GenerateCode(16)
	if err != nil {
		return nil, err
	}

	intent := &models.MintIntent{
		UserID:         userID,
		EventID:        eventID,
		WalletAddress:  buyer.WalletAddress,
		IdempotencyKey: key,
		State:          models.IntentPending,
	}
	if err := s.store.CreateIntent(ctx, intent); err != nil {
		return nil, err
	}

	chainCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	started := time.Now()
	receipt, err := s.chain.MintTicket(chainCtx, &chain.MintRequest{
		Wallet:         buyer.WalletAddress,
		EventID:        eventID,
		MetadataURI:    s.metadataURI,
		Amount:         decimal.NewFromInt(event.Price),
		IdempotencyKey: key,
	})
	monitoring.TrackChainCall("mint", time.Since(started))

	if err != nil {
		if receipt != nil && receipt.TxHash != "" {
			// Submitted but unconfirmed. Park it for the reconciler
			// instead of guessing whether money moved.
			intent.TxHash = receipt.TxHash
			intent.State = models.IntentSubmitted
			if uerr := s.store.UpdateIntent(ctx, intent); uerr != nil {
				log.Printf("mint: record submitted intent %s: %v", intent.ID, uerr)
			}
			monitoring.TrackWorkflow("mint", "chain_timeout")
			return nil, fmt.Errorf("%w: %v", status.ErrChainTimeout, err)
		}

		intent.State = models.IntentFailed
		if uerr := s.store.UpdateIntent(ctx, intent); uerr != nil {
			log.Printf("mint: record failed intent %s: %v", intent.ID, uerr)
		}
		monitoring.TrackWorkflow("mint", "chain_failed")
		return nil, fmt.Errorf("%w: %v", status.ErrChainCallFailed, err)
	}

	if receipt.Status != chain.StatusConfirmed {
		intent.TxHash = receipt.TxHash
		intent.State = models.IntentFailed
		if uerr := s.store.UpdateIntent(ctx, intent); uerr != nil {
			log.Printf("mint: record failed intent %s: %v", intent.ID, uerr)
		}
		monitoring.TrackWorkflow("mint", "chain_failed")
		return nil, status.ErrChainCallFailed
	}

	intent.TxHash = receipt.TxHash
	intent.State = models.IntentConfirmed
	if uerr := s.store.UpdateIntent(ctx, intent); uerr != nil {
		// The settle transaction records completion either way.
		log.Printf("mint: record confirmed intent %s: %v", intent.ID, uerr)
	}

	ticket, err := s.settleMint(ctx, intent)
	if err != nil {
		if errors.Is(err, status.ErrEventSoldOut) {
			s.notifyRefundDue(intent)
			monitoring.TrackWorkflow("mint", "oversold")
			return nil, err
		}

		// Paid on chain but not recorded yet. The reconciler retries
		// with the same tx hash, so nothing is duplicated.
		monitoring.TrackWorkflow("mint", "settle_failed")
		return nil, fmt.Errorf("mint settle (tx %s): %w", intent.TxHash, err)
	}

	s.notifier.PublishEvent(eventID, map[string]any{
		"type":     "tickets_changed",
		"event_id": eventID,
	})
	s.notifier.PublishUser(userID, map[string]any{
		"type":      "ticket_minted",
		"ticket_id": ticket.ID,
		"event_id":  eventID,
		"tx_hash":   ticket.TxHash,
	})

	monitoring.TrackWorkflow("mint", "success")
	return ticket, nil
}

// settleMint records a confirmed mint in one store transaction: ticket
// row, sold counter, buyer counter, intent completion. Keyed by tx hash
// so replays are no-ops.
func (s *TicketService) settleMint(ctx context.Context, intent *models.MintIntent) (*models.Ticket, error) {
	var ticket *models.Ticket

	err := s.store.RunInTransaction(func(tx store.Store) error {
		if existing, err := tx.TicketByTxHash(ctx, intent.TxHash); err == nil {
			ticket = existing
			intent.State = models.IntentCompleted
			return tx.UpdateIntent(ctx, intent)
		}

		event, err := tx.Event(ctx, intent.EventID)
		if err != nil {
			return err
		}

		// The guard is keyed per buyer, so two different buyers can both
		// clear the pre-chain check for the last ticket. Capacity has to
		// hold here, in the transaction that increments the counter. A
		// confirmed payment with no ticket left goes to the refund queue.
		if event.SoldOut() {
			intent.State = models.IntentRefundDue
			return tx.UpdateIntent(ctx, intent)
		}

		ticket = &models.Ticket{
			EventID:      intent.EventID,
			UserID:       intent.UserID,
			OwnerAddress: intent.WalletAddress,
			TxHash:       intent.TxHash,
		}
		if err := tx.CreateTicket(ctx, ticket); err != nil {
			return err
		}

		event.TicketSold++
		if err := tx.UpdateEvent(ctx, event); err != nil {
			return err
		}

		buyer, err := tx.Profile(ctx, intent.UserID)
		if err != nil {
			return err
		}
		buyer.TotalTicketsMinted++
		if err := tx.UpdateProfile(ctx, buyer); err != nil {
			return err
		}

		intent.State = models.IntentCompleted
		return tx.UpdateIntent(ctx, intent)
	})
	if err != nil {
		return nil, err
	}
	if intent.State == models.IntentRefundDue {
		return nil, status.ErrEventSoldOut
	}
	return ticket, nil
}

// notifyRefundDue tells the buyer their confirmed payment could not be
// backed by a ticket. The intent stays in the refund queue for the
// operator to pay back from the contract wallet.
func (s *TicketService) notifyRefundDue(intent *models.MintIntent) {
	s.notifier.PublishUser(intent.UserID, map[string]any{
		"type":     "mint_refund_due",
		"event_id": intent.EventID,
		"tx_hash":  intent.TxHash,
	})
}

// TicketsForUser lists the user's tickets. Reads no longer carry side
// effects, the penalty pass owns the missed-event bookkeeping.
func (s *TicketService) TicketsForUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	return s.store.TicketsByUser(ctx, userID)
}

// ReconcileIntents resolves mint intents stuck between chain and store:
// confirmed transactions get their store writes, failed ones are closed.
func (s *TicketService) ReconcileIntents(ctx context.Context) error {
	intents, err := s.store.OpenIntents(ctx)
	if err != nil {
		return err
	}

	for _, intent := range intents {
		if intent.TxHash == "" {
			continue
		}

		receipt, err := s.chain.CheckTransaction(ctx, intent.TxHash)
		if err != nil {
			log.Printf("reconcile: check tx %s: %v", intent.TxHash, err)
			continue
		}

		switch receipt.Status {
		case chain.StatusConfirmed:
			if _, err := s.settleMint(ctx, intent); err != nil {
				if errors.Is(err, status.ErrEventSoldOut) {
					s.notifyRefundDue(intent)
					monitoring.TrackWorkflow("mint", "oversold")
					continue
				}
				log.Printf("reconcile: settle tx %s: %v", intent.TxHash, err)
				continue
			}
			monitoring.TrackWorkflow("mint", "reconciled")

			s.notifier.PublishEvent(intent.EventID, map[string]any{
				"type":     "tickets_changed",
				"event_id": intent.EventID,
			})
			s.notifier.PublishUser(intent.UserID, map[string]any{
				"type":     "ticket_minted",
				"event_id": intent.EventID,
				"tx_hash":  intent.TxHash,
			})

		case chain.StatusFailed:
			intent.State = models.IntentFailed
			if err := s.store.UpdateIntent(ctx, intent); err != nil {
				log.Printf("reconcile: close intent %s: %v", intent.ID, err)
			}
		}
	}

	return nil
}

// ProcessTxNotifications runs a reconcile pass for every settlement
// notification the gateway pushes, until ctx is cancelled.
func (s *TicketService) ProcessTxNotifications(ctx context.Context, ch <-chan *chain.TxNotification) {
	for {
		select {
		case <-ctx.Done():
			return

		case t := <-ch:
			slog.Info("=> chain transaction notification", "txHash", t.TxHash, "status", t.Status)

			if err := s.ReconcileIntents(ctx); err != nil {
				slog.Error("reconcile on notification", "error", err)
			}
		}
	}
}

// StartReconcileLoop runs intent reconciliation on a fixed interval
// until ctx is cancelled. Also run once at startup so a restart picks
// up whatever the previous process left behind.
func (s *TicketService) StartReconcileLoop(ctx context.Context) {
	if err := s.ReconcileIntents(ctx); err != nil {
		log.Printf("reconcile: %v", err)
	}

	ticker := time.NewTicker(s.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := s.ReconcileIntents(ctx); err != nil {
				log.Printf("reconcile: %v", err)
			}
		}
	}
}
