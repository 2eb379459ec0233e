package services

import (
	"context"
	"log"
	"time"

	"ticket-marketplace/internal/store"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
)

// Fixed reputation deltas.
const (
	AttendanceReward   = 5
	MissedEventPenalty = 2
	CancelEventPenalty = 5
)

// AdjustReputation applies delta to the user's reputation, clamped at 0.
// Callers pass their transaction-scoped store so the adjustment commits
// with the rest of the workflow writes.
func AdjustReputation(ctx context.Context, st store.Store, userID string, delta int) (int, error) {
	profile, err := st.Profile(ctx, userID)
	if err != nil {
		return 0, err
	}

	profile.Reputation += delta
	if profile.Reputation < 0 {
		profile.Reputation = 0
	}

	if err := st.UpdateProfile(ctx, profile); err != nil {
		return 0, err
	}
	return profile.Reputation, nil
}

// ReputationService runs the missed-event penalty as a scheduled
// reconciliation pass instead of a read-path side effect.
type ReputationService struct {
	store    store.Store
	notifier Notifier
	interval time.Duration
}

func NewReputationService(st store.Store, notifier Notifier, interval time.Duration) *ReputationService {
	return &ReputationService{
		store:    st,
		notifier: notifier,
		interval: interval,
	}
}

// RunPenaltyPass penalizes each unsettled ticket exactly once: the
// reputation_decreased flag commits in the same transaction as the
// reputation change, so a re-run never double-penalizes.
func (s *ReputationService) RunPenaltyPass(ctx context.Context) (int, error) {
	tickets, err := s.store.UnsettledTickets(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	penalized := 0
	for _, ticket := range tickets {
		if err := s.penalize(ctx, ticket); err != nil {
			log.Printf("penalty pass: ticket %s: %v", ticket.ID, err)
			continue
		}
		penalized++

		s.notifier.PublishUser(ticket.UserID, map[string]any{
			"type":      "reputation_changed",
			"reason":    "missed_event",
			"event_id":  ticket.EventID,
			"ticket_id": ticket.ID,
		})
	}

	if penalized > 0 {
		monitoring.TrackPenalties(penalized)
	}
	return penalized, nil
}

func (s *ReputationService) penalize(ctx context.Context, ticket *models.Ticket) error {
	return s.store.RunInTransaction(func(tx store.Store) error {
		fresh, err := tx.Ticket(ctx, ticket.ID)
		if err != nil {
			return err
		}
		if fresh.ReputationDecreased {
			return nil
		}

		fresh.ReputationDecreased = true
		if err := tx.UpdateTicket(ctx, fresh); err != nil {
			return err
		}

		_, err = AdjustReputation(ctx, tx, fresh.UserID, -MissedEventPenalty)
		return err
	})
}

// StartPenaltyLoop runs the penalty pass on a fixed interval until ctx
// is cancelled.
func (s *ReputationService) StartPenaltyLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := s.RunPenaltyPass(ctx); err != nil {
				log.Printf("penalty pass: %v", err)
			}
		}
	}
}
