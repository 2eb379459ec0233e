package services

import (
	"context"
	"errors"
	"time"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/internal/store"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
)

// OrganizerService covers event creation and the organizer-only actions.
type OrganizerService struct {
	store    store.Store
	notifier Notifier
}

func NewOrganizerService(st store.Store, notifier Notifier) *OrganizerService {
	return &OrganizerService{
		store:    st,
		notifier: notifier,
	}
}

// CreateEvent validates and stores a new event owned by organizerID.
func (s *OrganizerService) CreateEvent(ctx context.Context, organizerID string, event *models.Event) error {
	if event.Name == "" {
		return errors.New("event: name required")
	}
	if event.Expired(time.Now()) {
		return status.ErrEventExpired
	}
	if event.MaxTicket < 1 {
		return errors.New("event: max_ticket must be at least 1")
	}
	if event.Price < 0 {
		return errors.New("event: price must not be negative")
	}
	if event.ReputationReq < 0 {
		return errors.New("event: reputation_req must not be negative")
	}

	event.Organizer = organizerID
	event.TicketSold = 0
	event.IsCancelled = false

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return err
	}

	s.notifier.PublishEvent(event.ID, map[string]any{
		"type":     "event_created",
		"event_id": event.ID,
	})

	monitoring.TrackWorkflow("create_event", "success")
	return nil
}

// MarkAttendance flags the attendee's ticket as used and rewards them.
// The reward intentionally has no repeat-invocation guard; whether it
// should mirror the missed-event penalty's guard is an open product
// question, so the observed behavior is kept.
func (s *OrganizerService) MarkAttendance(ctx context.Context, organizerID, eventID, attendeeID string) error {
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return status.ErrEventNotFound
	}
	if event.Organizer != organizerID {
		monitoring.TrackWorkflow("attendance", "rejected")
		return status.ErrNotOrganizer
	}

	ticket, err := s.store.TicketByEventAndUser(ctx, eventID, attendeeID)
	if err != nil {
		return status.ErrTicketNotFound
	}

	err = s.store.RunInTransaction(func(tx store.Store) error {
		ticket.Attended = true
		if err := tx.UpdateTicket(ctx, ticket); err != nil {
			return err
		}

		attendee, err := tx.Profile(ctx, attendeeID)
		if err != nil {
			return err
		}
		attendee.TotalEventsAttended++
		attendee.Reputation += AttendanceReward
		return tx.UpdateProfile(ctx, attendee)
	})
	if err != nil {
		return err
	}

	s.notifier.PublishUser(attendeeID, map[string]any{
		"type":      "attendance_marked",
		"event_id":  eventID,
		"ticket_id": ticket.ID,
	})

	monitoring.TrackWorkflow("attendance", "success")
	return nil
}

// CancelEvent cancels a still-future event: cancellation flag, refund
// marks for every outstanding ticket, and the organizer penalty commit
// together. Cancellation is one-way.
func (s *OrganizerService) CancelEvent(ctx context.Context, organizerID, eventID string) error {
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return status.ErrEventNotFound
	}
	if event.Organizer != organizerID {
		monitoring.TrackWorkflow("cancel_event", "rejected")
		return status.ErrNotOrganizer
	}
	if event.IsCancelled {
		monitoring.TrackWorkflow("cancel_event", "rejected")
		return status.ErrEventCancelled
	}
	if event.Expired(time.Now()) {
		monitoring.TrackWorkflow("cancel_event", "rejected")
		return status.ErrEventStarted
	}

	err = s.store.RunInTransaction(func(tx store.Store) error {
		event.IsCancelled = true
		if err := tx.UpdateEvent(ctx, event); err != nil {
			return err
		}

		if _, err := tx.RefundOutstandingTickets(ctx, eventID); err != nil {
			return err
		}

		_, err := AdjustReputation(ctx, tx, organizerID, -CancelEventPenalty)
		return err
	})
	if err != nil {
		return err
	}

	s.notifier.PublishEvent(eventID, map[string]any{
		"type":     "event_cancelled",
		"event_id": eventID,
	})

	monitoring.TrackWorkflow("cancel_event", "success")
	return nil
}
