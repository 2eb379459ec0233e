package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-marketplace/models"
)

func TestAdjustReputation(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		delta    int
		expected int
	}{
		{name: "reward", start: 10, delta: AttendanceReward, expected: 15},
		{name: "penalty", start: 10, delta: -MissedEventPenalty, expected: 8},
		{name: "floors at zero", start: 1, delta: -MissedEventPenalty, expected: 0},
		{name: "already zero", start: 0, delta: -CancelEventPenalty, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(MockStore)
			profile := &models.Profile{ID: "user1", Reputation: tt.start}
			st.On("Profile", mock.Anything, "user1").Return(profile, nil)
			st.On("UpdateProfile", mock.Anything, profile).Return(nil)

			got, err := AdjustReputation(context.Background(), st, "user1", tt.delta)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expected, profile.Reputation)
		})
	}
}

func TestRunPenaltyPass(t *testing.T) {
	st := new(MockStore)
	notifier := NewMockNotifier()
	svc := NewReputationService(st, notifier, 10*time.Minute)

	ticket := &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "user1"}
	profile := &models.Profile{ID: "user1", Reputation: 10}

	st.On("UnsettledTickets", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*models.Ticket{ticket}, nil)
	st.On("Ticket", mock.Anything, "ticket1").Return(ticket, nil)
	st.On("UpdateTicket", mock.Anything, ticket).Return(nil)
	st.On("Profile", mock.Anything, "user1").Return(profile, nil)
	st.On("UpdateProfile", mock.Anything, profile).Return(nil)

	penalized, err := svc.RunPenaltyPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, penalized)
	assert.Equal(t, 8, profile.Reputation)
	assert.True(t, ticket.ReputationDecreased)
	assert.Len(t, notifier.UserMessages["user1"], 1)
	assert.Equal(t, "missed_event", notifier.UserMessages["user1"][0]["reason"])
}

// A ticket whose flag committed between the scan and the transaction is
// skipped; the flag and the penalty commit together, so a re-run never
// deducts twice.
func TestRunPenaltyPass_AlreadyPenalized(t *testing.T) {
	st := new(MockStore)
	svc := NewReputationService(st, NewMockNotifier(), 10*time.Minute)

	stale := &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "user1"}
	fresh := &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "user1", ReputationDecreased: true}

	st.On("UnsettledTickets", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*models.Ticket{stale}, nil)
	st.On("Ticket", mock.Anything, "ticket1").Return(fresh, nil)

	penalized, err := svc.RunPenaltyPass(context.Background())
	require.NoError(t, err)

	// Counted as processed, but no reputation write happened.
	assert.Equal(t, 1, penalized)
	st.AssertNotCalled(t, "UpdateTicket", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestRunPenaltyPass_PenaltyFloorsAtZero(t *testing.T) {
	st := new(MockStore)
	svc := NewReputationService(st, NewMockNotifier(), 10*time.Minute)

	ticket := &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "user1"}
	profile := &models.Profile{ID: "user1", Reputation: 1}

	st.On("UnsettledTickets", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*models.Ticket{ticket}, nil)
	st.On("Ticket", mock.Anything, "ticket1").Return(ticket, nil)
	st.On("UpdateTicket", mock.Anything, ticket).Return(nil)
	st.On("Profile", mock.Anything, "user1").Return(profile, nil)
	st.On("UpdateProfile", mock.Anything, profile).Return(nil)

	_, err := svc.RunPenaltyPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, profile.Reputation)
}

func TestRunPenaltyPass_NothingToDo(t *testing.T) {
	st := new(MockStore)
	svc := NewReputationService(st, NewMockNotifier(), 10*time.Minute)

	st.On("UnsettledTickets", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*models.Ticket{}, nil)

	penalized, err := svc.RunPenaltyPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, penalized)
}
