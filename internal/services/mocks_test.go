package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ticket-marketplace/internal/chain"
	"ticket-marketplace/internal/store"
	"ticket-marketplace/models"
)

// MockStore implements store.Store. RunInTransaction runs the callback
// against the mock itself, so expectations cover transactional reads
// and writes too.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) RunInTransaction(fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *MockStore) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStore) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockStore) Event(ctx context.Context, eventID string) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockStore) Events(ctx context.Context) ([]*models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockStore) CreateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStore) UpdateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStore) Ticket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockStore) TicketByEventAndUser(ctx context.Context, eventID, userID string) (*models.Ticket, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockStore) TicketByTxHash(ctx context.Context, txHash string) (*models.Ticket, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockStore) TicketsByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockStore) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockStore) UnsettledTickets(ctx context.Context, now time.Time) ([]*models.Ticket, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockStore) RefundOutstandingTickets(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) Listing(ctx context.Context, listingID string) (*models.ResaleListing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResaleListing), args.Error(1)
}

func (m *MockStore) ActiveListing(ctx context.Context, eventID, sellerID string) (*models.ResaleListing, error) {
	args := m.Called(ctx, eventID, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResaleListing), args.Error(1)
}

func (m *MockStore) ListingsByEvent(ctx context.Context, eventID string) ([]*models.ResaleListing, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ResaleListing), args.Error(1)
}

func (m *MockStore) CreateListing(ctx context.Context, listing *models.ResaleListing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockStore) UpdateListing(ctx context.Context, listing *models.ResaleListing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockStore) DeleteListing(ctx context.Context, listingID string) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

func (m *MockStore) CreateIntent(ctx context.Context, intent *models.MintIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockStore) UpdateIntent(ctx context.Context, intent *models.MintIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockStore) OpenIntents(ctx context.Context) ([]*models.MintIntent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MintIntent), args.Error(1)
}

// MockChainProvider implements chain.Provider.
type MockChainProvider struct {
	mock.Mock
}

func (m *MockChainProvider) GetProvider() chain.ProviderName {
	return chain.ProviderName("mock")
}

func (m *MockChainProvider) MintTicket(ctx context.Context, req *chain.MintRequest) (*chain.Receipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.Receipt), args.Error(1)
}

func (m *MockChainProvider) BuyResale(ctx context.Context, req *chain.ResaleRequest) (*chain.Receipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.Receipt), args.Error(1)
}

func (m *MockChainProvider) CheckTransaction(ctx context.Context, txHash string) (*chain.Receipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.Receipt), args.Error(1)
}

func (m *MockChainProvider) SetTransactionChannel(ch chan *chain.TxNotification) {
	m.Called(ch)
}

func (m *MockChainProvider) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockGuard implements Guard.
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Acquire(ctx context.Context, userID, action, resource string) error {
	args := m.Called(ctx, userID, action, resource)
	return args.Error(0)
}

func (m *MockGuard) Release(ctx context.Context, userID, action, resource string) error {
	args := m.Called(ctx, userID, action, resource)
	return args.Error(0)
}

// MockNotifier records published notifications.
type MockNotifier struct {
	EventMessages []map[string]any
	UserMessages  map[string][]map[string]any
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{UserMessages: map[string][]map[string]any{}}
}

func (n *MockNotifier) PublishEvent(eventID string, message map[string]any) {
	n.EventMessages = append(n.EventMessages, message)
}

func (n *MockNotifier) PublishUser(userID string, message map[string]any) {
	n.UserMessages[userID] = append(n.UserMessages[userID], message)
}
