package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

func TestCreateEvent_Success(t *testing.T) {
	st := new(MockStore)
	notifier := NewMockNotifier()
	svc := NewOrganizerService(st, notifier)

	event := &models.Event{
		Name:      "Launch Party",
		Date:      time.Now().Add(72 * time.Hour),
		Price:     5000,
		MaxTicket: 50,
		// Counters a client might try to smuggle in.
		TicketSold:  10,
		IsCancelled: true,
	}

	st.On("CreateEvent", mock.Anything, event).Return(nil)

	err := svc.CreateEvent(context.Background(), "organizer1", event)
	require.NoError(t, err)

	assert.Equal(t, "organizer1", event.Organizer)
	assert.Equal(t, 0, event.TicketSold)
	assert.False(t, event.IsCancelled)
	st.AssertExpectations(t)
}

func TestCreateEvent_Validation(t *testing.T) {
	tests := []struct {
		name  string
		event *models.Event
	}{
		{
			name:  "missing name",
			event: &models.Event{Date: time.Now().Add(time.Hour), MaxTicket: 10},
		},
		{
			name:  "date in the past",
			event: &models.Event{Name: "Old", Date: time.Now().Add(-time.Hour), MaxTicket: 10},
		},
		{
			name:  "zero capacity",
			event: &models.Event{Name: "Empty", Date: time.Now().Add(time.Hour), MaxTicket: 0},
		},
		{
			name: "negative price",
			event: &models.Event{
				Name: "Neg", Date: time.Now().Add(time.Hour), MaxTicket: 10, Price: -1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(MockStore)
			svc := NewOrganizerService(st, NewMockNotifier())

			err := svc.CreateEvent(context.Background(), "organizer1", tt.event)
			assert.Error(t, err)
			st.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
		})
	}
}

func TestMarkAttendance_Success(t *testing.T) {
	st := new(MockStore)
	notifier := NewMockNotifier()
	svc := NewOrganizerService(st, notifier)

	event := futureEvent()
	ticket := &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "attendee1"}
	attendee := &models.Profile{ID: "attendee1", Reputation: 10, TotalEventsAttended: 2}

	st.On("Event", mock.Anything, "event1").Return(event, nil)
	st.On("TicketByEventAndUser", mock.Anything, "event1", "attendee1").Return(ticket, nil)
	st.On("UpdateTicket", mock.Anything, ticket).Return(nil)
	st.On("Profile", mock.Anything, "attendee1").Return(attendee, nil)
	st.On("UpdateProfile", mock.Anything, attendee).Return(nil)

	err := svc.MarkAttendance(context.Background(), "organizer1", "event1", "attendee1")
	require.NoError(t, err)

	assert.True(t, ticket.Attended)
	assert.Equal(t, 15, attendee.Reputation)
	assert.Equal(t, 3, attendee.TotalEventsAttended)
	assert.Len(t, notifier.UserMessages["attendee1"], 1)
	st.AssertExpectations(t)
}

// Repeated confirmation rewards again. The reward carries no
// once-per-ticket guard, unlike the missed-event penalty.
func TestMarkAttendance_RepeatRewardsAgain(t *testing.T) {
	st := new(MockStore)
	svc := NewOrganizerService(st, NewMockNotifier())

	event := futureEvent()
	ticket := &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "attendee1"}
	attendee := &models.Profile{ID: "attendee1", Reputation: 10}

	st.On("Event", mock.Anything, "event1").Return(event, nil)
	st.On("TicketByEventAndUser", mock.Anything, "event1", "attendee1").Return(ticket, nil)
	st.On("UpdateTicket", mock.Anything, ticket).Return(nil)
	st.On("Profile", mock.Anything, "attendee1").Return(attendee, nil)
	st.On("UpdateProfile", mock.Anything, attendee).Return(nil)

	require.NoError(t, svc.MarkAttendance(context.Background(), "organizer1", "event1", "attendee1"))
	require.NoError(t, svc.MarkAttendance(context.Background(), "organizer1", "event1", "attendee1"))

	assert.Equal(t, 20, attendee.Reputation)
	assert.Equal(t, 2, attendee.TotalEventsAttended)
}

func TestMarkAttendance_NotOrganizer(t *testing.T) {
	st := new(MockStore)
	svc := NewOrganizerService(st, NewMockNotifier())

	st.On("Event", mock.Anything, "event1").Return(futureEvent(), nil)

	err := svc.MarkAttendance(context.Background(), "someone-else", "event1", "attendee1")
	assert.ErrorIs(t, err, status.ErrNotOrganizer)
	st.AssertNotCalled(t, "UpdateTicket", mock.Anything, mock.Anything)
}

func TestMarkAttendance_NoTicket(t *testing.T) {
	st := new(MockStore)
	svc := NewOrganizerService(st, NewMockNotifier())

	st.On("Event", mock.Anything, "event1").Return(futureEvent(), nil)
	st.On("TicketByEventAndUser", mock.Anything, "event1", "attendee1").
		Return(nil, status.ErrTicketNotFound)

	err := svc.MarkAttendance(context.Background(), "organizer1", "event1", "attendee1")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestCancelEvent_Success(t *testing.T) {
	st := new(MockStore)
	notifier := NewMockNotifier()
	svc := NewOrganizerService(st, notifier)

	event := futureEvent()
	organizer := &models.Profile{ID: "organizer1", Reputation: 10}

	st.On("Event", mock.Anything, "event1").Return(event, nil)
	st.On("UpdateEvent", mock.Anything, event).Return(nil)
	st.On("RefundOutstandingTickets", mock.Anything, "event1").Return(7, nil)
	st.On("Profile", mock.Anything, "organizer1").Return(organizer, nil)
	st.On("UpdateProfile", mock.Anything, organizer).Return(nil)

	err := svc.CancelEvent(context.Background(), "organizer1", "event1")
	require.NoError(t, err)

	assert.True(t, event.IsCancelled)
	assert.Equal(t, 5, organizer.Reputation)
	assert.Len(t, notifier.EventMessages, 1)
	st.AssertExpectations(t)
}

func TestCancelEvent_PenaltyFloorsAtZero(t *testing.T) {
	st := new(MockStore)
	svc := NewOrganizerService(st, NewMockNotifier())

	event := futureEvent()
	organizer := &models.Profile{ID: "organizer1", Reputation: 3}

	st.On("Event", mock.Anything, "event1").Return(event, nil)
	st.On("UpdateEvent", mock.Anything, event).Return(nil)
	st.On("RefundOutstandingTickets", mock.Anything, "event1").Return(0, nil)
	st.On("Profile", mock.Anything, "organizer1").Return(organizer, nil)
	st.On("UpdateProfile", mock.Anything, organizer).Return(nil)

	require.NoError(t, svc.CancelEvent(context.Background(), "organizer1", "event1"))
	assert.Equal(t, 0, organizer.Reputation)
}

func TestCancelEvent_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		caller   string
		mutate   func(e *models.Event)
		expected error
	}{
		{
			name:     "not the organizer",
			caller:   "someone-else",
			mutate:   func(e *models.Event) {},
			expected: status.ErrNotOrganizer,
		},
		{
			name:   "already cancelled",
			caller: "organizer1",
			mutate: func(e *models.Event) {
				e.IsCancelled = true
			},
			expected: status.ErrEventCancelled,
		},
		{
			name:   "event already started",
			caller: "organizer1",
			mutate: func(e *models.Event) {
				e.Date = time.Now().Add(-time.Hour)
			},
			expected: status.ErrEventStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(MockStore)
			svc := NewOrganizerService(st, NewMockNotifier())

			event := futureEvent()
			tt.mutate(event)
			st.On("Event", mock.Anything, "event1").Return(event, nil)

			err := svc.CancelEvent(context.Background(), tt.caller, "event1")
			assert.ErrorIs(t, err, tt.expected)
			st.AssertNotCalled(t, "RefundOutstandingTickets", mock.Anything, mock.Anything)
			st.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything)
		})
	}
}
