package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-marketplace/internal/chain"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

func newResaleService(st *MockStore, provider *MockChainProvider, guard *MockGuard, notifier *MockNotifier) *ResaleService {
	return NewResaleService(st, provider, guard, notifier, 3*time.Minute)
}

func TestList_Success(t *testing.T) {
	st := new(MockStore)
	notifier := NewMockNotifier()
	svc := newResaleService(st, new(MockChainProvider), new(MockGuard), notifier)

	event := futureEvent()
	ticket := &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "seller1"}
	seller := &models.Profile{ID: "seller1", WalletAddress: "0xSeller"}

	st.On("TicketByEventAndUser", mock.Anything, "event1", "seller1").Return(ticket, nil)
	st.On("Event", mock.Anything, "event1").Return(event, nil)
	st.On("ActiveListing", mock.Anything, "event1", "seller1").Return(nil, errors.New("not found"))
	st.On("Profile", mock.Anything, "seller1").Return(seller, nil)
	st.On("CreateListing", mock.Anything, mock.MatchedBy(func(l *models.ResaleListing) bool {
		return l.TicketID == "ticket1" && l.SellerAddress == "0xSeller" && l.Price == event.Price
	})).Return(nil)

	listing, err := svc.List(context.Background(), "seller1", "event1")
	require.NoError(t, err)

	// Listed at the event's original price, never the seller's choice.
	assert.Equal(t, event.Price, listing.Price)
	assert.False(t, listing.IsSold)
	assert.Len(t, notifier.EventMessages, 1)
	st.AssertExpectations(t)
}

func TestList_Rejections(t *testing.T) {
	ticket := func() *models.Ticket {
		return &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "seller1"}
	}

	tests := []struct {
		name     string
		setup    func(st *MockStore)
		expected error
	}{
		{
			name: "no ticket",
			setup: func(st *MockStore) {
				st.On("TicketByEventAndUser", mock.Anything, "event1", "seller1").
					Return(nil, errors.New("not found"))
			},
			expected: status.ErrTicketNotFound,
		},
		{
			name: "event cancelled",
			setup: func(st *MockStore) {
				event := futureEvent()
				event.IsCancelled = true
				st.On("TicketByEventAndUser", mock.Anything, "event1", "seller1").Return(ticket(), nil)
				st.On("Event", mock.Anything, "event1").Return(event, nil)
			},
			expected: status.ErrEventCancelled,
		},
		{
			name: "event already happened",
			setup: func(st *MockStore) {
				event := futureEvent()
				event.Date = time.Now().Add(-time.Hour)
				st.On("TicketByEventAndUser", mock.Anything, "event1", "seller1").Return(ticket(), nil)
				st.On("Event", mock.Anything, "event1").Return(event, nil)
			},
			expected: status.ErrEventExpired,
		},
		{
			name: "ticket already used",
			setup: func(st *MockStore) {
				used := ticket()
				used.Attended = true
				st.On("TicketByEventAndUser", mock.Anything, "event1", "seller1").Return(used, nil)
				st.On("Event", mock.Anything, "event1").Return(futureEvent(), nil)
			},
			expected: status.ErrTicketAttended,
		},
		{
			name: "already listed",
			setup: func(st *MockStore) {
				st.On("TicketByEventAndUser", mock.Anything, "event1", "seller1").Return(ticket(), nil)
				st.On("Event", mock.Anything, "event1").Return(futureEvent(), nil)
				st.On("ActiveListing", mock.Anything, "event1", "seller1").
					Return(&models.ResaleListing{ID: "listing1"}, nil)
			},
			expected: status.ErrAlreadyListed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(MockStore)
			tt.setup(st)
			svc := newResaleService(st, new(MockChainProvider), new(MockGuard), NewMockNotifier())

			_, err := svc.List(context.Background(), "seller1", "event1")
			assert.ErrorIs(t, err, tt.expected)
			st.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything)
		})
	}
}

func TestCancel_Success(t *testing.T) {
	st := new(MockStore)
	notifier := NewMockNotifier()
	svc := newResaleService(st, new(MockChainProvider), new(MockGuard), notifier)

	listing := &models.ResaleListing{ID: "listing1", EventID: "event1", SellerID: "seller1"}
	st.On("ActiveListing", mock.Anything, "event1", "seller1").Return(listing, nil)
	st.On("DeleteListing", mock.Anything, "listing1").Return(nil)

	err := svc.Cancel(context.Background(), "seller1", "event1")
	require.NoError(t, err)

	assert.Len(t, notifier.EventMessages, 1)
	st.AssertExpectations(t)
}

func TestCancel_NoActiveListing(t *testing.T) {
	st := new(MockStore)
	svc := newResaleService(st, new(MockChainProvider), new(MockGuard), NewMockNotifier())

	st.On("ActiveListing", mock.Anything, "event1", "seller1").Return(nil, errors.New("not found"))

	err := svc.Cancel(context.Background(), "seller1", "event1")
	assert.ErrorIs(t, err, status.ErrListingNotFound)
	st.AssertNotCalled(t, "DeleteListing", mock.Anything, mock.Anything)
}

func activeListing() *models.ResaleListing {
	return &models.ResaleListing{
		ID:            "listing1",
		EventID:       "event1",
		TicketID:      "ticket1",
		SellerID:      "seller1",
		SellerAddress: "0xSeller",
		Price:         5000,
	}
}

func TestBuy_Success(t *testing.T) {
	st := new(MockStore)
	provider := new(MockChainProvider)
	guard := new(MockGuard)
	notifier := NewMockNotifier()
	svc := newResaleService(st, provider, guard, notifier)

	listing := activeListing()
	ticket := &models.Ticket{ID: "ticket1", EventID: "event1", UserID: "seller1", OwnerAddress: "0xSeller"}
	buyer := &models.Profile{ID: "buyer1", WalletAddress: "0xBuyer"}

	st.On("Listing", mock.Anything, "listing1").Return(listing, nil)
	st.On("Profile", mock.Anything, "buyer1").Return(buyer, nil)
	guard.On("Acquire", mock.Anything, "buyer1", "resale-buy", "listing1").Return(nil)
	guard.On("Release", mock.Anything, "buyer1", "resale-buy", "listing1").Return(nil)
	st.On("Ticket", mock.Anything, "ticket1").Return(ticket, nil)

	provider.On("BuyResale", mock.Anything, mock.MatchedBy(func(req *chain.ResaleRequest) bool {
		return req.BuyerWallet == "0xBuyer" && req.SellerWallet == "0xSeller" &&
			req.Amount.IntPart() == 5000
	})).Return(&chain.Receipt{TxHash: "0xresale", Status: chain.StatusConfirmed}, nil)

	st.On("UpdateListing", mock.Anything, listing).Return(nil)
	st.On("UpdateTicket", mock.Anything, ticket).Return(nil)

	got, err := svc.Buy(context.Background(), "buyer1", "listing1")
	require.NoError(t, err)

	assert.True(t, listing.IsSold)
	assert.Equal(t, "buyer1", got.UserID)
	assert.Equal(t, "0xBuyer", got.OwnerAddress)

	// Event channel refresh plus a message to each side of the trade.
	assert.Len(t, notifier.EventMessages, 1)
	assert.Len(t, notifier.UserMessages["buyer1"], 1)
	assert.Len(t, notifier.UserMessages["seller1"], 1)

	st.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestBuy_SelfPurchaseRejectedBeforeChain(t *testing.T) {
	st := new(MockStore)
	provider := new(MockChainProvider)
	guard := new(MockGuard)
	svc := newResaleService(st, provider, guard, NewMockNotifier())

	st.On("Listing", mock.Anything, "listing1").Return(activeListing(), nil)

	_, err := svc.Buy(context.Background(), "seller1", "listing1")
	assert.ErrorIs(t, err, status.ErrSelfPurchase)

	provider.AssertNotCalled(t, "BuyResale", mock.Anything, mock.Anything)
	guard.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBuy_AlreadySold(t *testing.T) {
	st := new(MockStore)
	provider := new(MockChainProvider)
	svc := newResaleService(st, provider, new(MockGuard), NewMockNotifier())

	listing := activeListing()
	listing.IsSold = true
	st.On("Listing", mock.Anything, "listing1").Return(listing, nil)

	_, err := svc.Buy(context.Background(), "buyer1", "listing1")
	assert.ErrorIs(t, err, status.ErrListingSold)
	provider.AssertNotCalled(t, "BuyResale", mock.Anything, mock.Anything)
}

func TestBuy_SoldWhileWaitingForGuard(t *testing.T) {
	st := new(MockStore)
	provider := new(MockChainProvider)
	guard := new(MockGuard)
	svc := newResaleService(st, provider, guard, NewMockNotifier())

	fresh := activeListing()
	fresh.IsSold = true

	// First read sees it unsold, the re-read under the guard does not.
	st.On("Listing", mock.Anything, "listing1").Return(activeListing(), nil).Once()
	st.On("Listing", mock.Anything, "listing1").Return(fresh, nil).Once()

	st.On("Profile", mock.Anything, "buyer1").
		Return(&models.Profile{ID: "buyer1", WalletAddress: "0xBuyer"}, nil)
	guard.On("Acquire", mock.Anything, "buyer1", "resale-buy", "listing1").Return(nil)
	guard.On("Release", mock.Anything, "buyer1", "resale-buy", "listing1").Return(nil)

	_, err := svc.Buy(context.Background(), "buyer1", "listing1")
	assert.ErrorIs(t, err, status.ErrListingSold)
	provider.AssertNotCalled(t, "BuyResale", mock.Anything, mock.Anything)
}

func TestBuy_WalletMissing(t *testing.T) {
	st := new(MockStore)
	provider := new(MockChainProvider)
	svc := newResaleService(st, provider, new(MockGuard), NewMockNotifier())

	st.On("Listing", mock.Anything, "listing1").Return(activeListing(), nil)
	st.On("Profile", mock.Anything, "buyer1").Return(&models.Profile{ID: "buyer1"}, nil)

	_, err := svc.Buy(context.Background(), "buyer1", "listing1")
	assert.ErrorIs(t, err, status.ErrWalletMissing)
	provider.AssertNotCalled(t, "BuyResale", mock.Anything, mock.Anything)
}

func TestBuy_ChainFailureLeavesListingUntouched(t *testing.T) {
	st := new(MockStore)
	provider := new(MockChainProvider)
	guard := new(MockGuard)
	svc := newResaleService(st, provider, guard, NewMockNotifier())

	listing := activeListing()
	st.On("Listing", mock.Anything, "listing1").Return(listing, nil)
	st.On("Profile", mock.Anything, "buyer1").
		Return(&models.Profile{ID: "buyer1", WalletAddress: "0xBuyer"}, nil)
	guard.On("Acquire", mock.Anything, "buyer1", "resale-buy", "listing1").Return(nil)
	guard.On("Release", mock.Anything, "buyer1", "resale-buy", "listing1").Return(nil)
	st.On("Ticket", mock.Anything, "ticket1").
		Return(&models.Ticket{ID: "ticket1", UserID: "seller1"}, nil)

	provider.On("BuyResale", mock.Anything, mock.Anything).
		Return(nil, errors.New("gateway unreachable"))

	_, err := svc.Buy(context.Background(), "buyer1", "listing1")
	assert.ErrorIs(t, err, status.ErrChainCallFailed)

	assert.False(t, listing.IsSold)
	st.AssertNotCalled(t, "UpdateListing", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "UpdateTicket", mock.Anything, mock.Anything)
}

func TestListingsForEvent(t *testing.T) {
	st := new(MockStore)
	svc := newResaleService(st, new(MockChainProvider), new(MockGuard), NewMockNotifier())

	listings := []*models.ResaleListing{{ID: "listing1"}, {ID: "listing2"}}
	st.On("ListingsByEvent", mock.Anything, "event1").Return(listings, nil)

	got, err := svc.ListingsForEvent(context.Background(), "event1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
