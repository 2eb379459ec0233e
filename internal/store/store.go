package store

import (
	"context"
	"time"

	"ticket-marketplace/models"
)

// Collection names.
const (
	CollectionUsers    = "users"
	CollectionEvents   = "events"
	CollectionTickets  = "tickets"
	CollectionListings = "resale_listings"
	CollectionIntents  = "mint_intents"
)

// Store is the workflow-facing view of the record store. All multi-row
// workflow writes go through RunInTransaction so a partial failure never
// leaves mixed state in the store.
type Store interface {
	// RunInTransaction runs fn against a transaction-scoped Store.
	RunInTransaction(fn func(tx Store) error) error

	Profile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error

	Event(ctx context.Context, eventID string) (*models.Event, error)
	Events(ctx context.Context) ([]*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error

	Ticket(ctx context.Context, ticketID string) (*models.Ticket, error)
	TicketByEventAndUser(ctx context.Context, eventID, userID string) (*models.Ticket, error)
	TicketByTxHash(ctx context.Context, txHash string) (*models.Ticket, error)
	TicketsByUser(ctx context.Context, userID string) ([]*models.Ticket, error)
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	UpdateTicket(ctx context.Context, ticket *models.Ticket) error

	// UnsettledTickets returns tickets whose event date has passed without
	// attendance, on non-cancelled events, that have not been penalized yet.
	UnsettledTickets(ctx context.Context, now time.Time) ([]*models.Ticket, error)

	// RefundOutstandingTickets marks every non-refunded ticket of the event
	// as refunded in one statement and returns the affected count.
	RefundOutstandingTickets(ctx context.Context, eventID string) (int, error)

	Listing(ctx context.Context, listingID string) (*models.ResaleListing, error)
	ActiveListing(ctx context.Context, eventID, sellerID string) (*models.ResaleListing, error)
	ListingsByEvent(ctx context.Context, eventID string) ([]*models.ResaleListing, error)
	CreateListing(ctx context.Context, listing *models.ResaleListing) error
	UpdateListing(ctx context.Context, listing *models.ResaleListing) error
	DeleteListing(ctx context.Context, listingID string) error

	CreateIntent(ctx context.Context, intent *models.MintIntent) error
	UpdateIntent(ctx context.Context, intent *models.MintIntent) error

	// OpenIntents returns mint intents that were submitted to the chain but
	// never completed, oldest first.
	OpenIntents(ctx context.Context) ([]*models.MintIntent, error)
}
