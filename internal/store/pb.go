package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"ticket-marketplace/models"
)

// PBStore implements Store on top of an embedded PocketBase app.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) RunInTransaction(fn func(tx Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(&PBStore{app: txApp})
	})
}

// --- profiles (users auth collection) ---

func (s *PBStore) Profile(_ context.Context, userID string) (*models.Profile, error) {
	record, err := s.app.FindRecordById(CollectionUsers, userID)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}
	return profileFromRecord(record), nil
}

func (s *PBStore) UpdateProfile(_ context.Context, profile *models.Profile) error {
	record, err := s.app.FindRecordById(CollectionUsers, profile.ID)
	if err != nil {
		return fmt.Errorf("profile %s: %w", profile.ID, err)
	}

	record.Set("name", profile.Name)
	record.Set("wallet_address", profile.WalletAddress)
	record.Set("reputation", profile.Reputation)
	record.Set("total_tickets_minted", profile.TotalTicketsMinted)
	record.Set("total_events_attended", profile.TotalEventsAttended)
	record.Set("total_flags", profile.TotalFlags)

	return s.app.Save(record)
}

// --- events ---

func (s *PBStore) Event(_ context.Context, eventID string) (*models.Event, error) {
	record, err := s.app.FindRecordById(CollectionEvents, eventID)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}
	return eventFromRecord(record), nil
}

func (s *PBStore) Events(_ context.Context) ([]*models.Event, error) {
	records, err := s.app.FindRecordsByFilter(CollectionEvents, "id != ''", "-date", -1, 0)
	if err != nil {
		return nil, err
	}

	events := make([]*models.Event, len(records))
	for i, record := range records {
		events[i] = eventFromRecord(record)
	}
	return events, nil
}

func (s *PBStore) CreateEvent(_ context.Context, event *models.Event) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionEvents)
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	applyEvent(record, event)

	if err := s.app.Save(record); err != nil {
		return err
	}
	event.ID = record.Id
	return nil
}

func (s *PBStore) UpdateEvent(_ context.Context, event *models.Event) error {
	record, err := s.app.FindRecordById(CollectionEvents, event.ID)
	if err != nil {
		return fmt.Errorf("event %s: %w", event.ID, err)
	}

	applyEvent(record, event)
	return s.app.Save(record)
}

// --- tickets ---

func (s *PBStore) Ticket(_ context.Context, ticketID string) (*models.Ticket, error) {
	record, err := s.app.FindRecordById(CollectionTickets, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, err)
	}
	return ticketFromRecord(record), nil
}

func (s *PBStore) TicketByEventAndUser(_ context.Context, eventID, userID string) (*models.Ticket, error) {
	record, err := s.app.FindFirstRecordByFilter(
		CollectionTickets,
		"event = {:event} && user = {:user}",
		dbx.Params{"event": eventID, "user": userID},
	)
	if err != nil {
		return nil, err
	}
	return ticketFromRecord(record), nil
}

func (s *PBStore) TicketByTxHash(_ context.Context, txHash string) (*models.Ticket, error) {
	record, err := s.app.FindFirstRecordByFilter(
		CollectionTickets,
		"tx_hash = {:hash}",
		dbx.Params{"hash": txHash},
	)
	if err != nil {
		return nil, err
	}
	return ticketFromRecord(record), nil
}

func (s *PBStore) TicketsByUser(_ context.Context, userID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionTickets,
		"user = {:user}",
		"-created",
		-1,
		0,
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, err
	}

	tickets := make([]*models.Ticket, len(records))
	for i, record := range records {
		tickets[i] = ticketFromRecord(record)
	}
	return tickets, nil
}

func (s *PBStore) CreateTicket(_ context.Context, ticket *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionTickets)
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	applyTicket(record, ticket)

	if err := s.app.Save(record); err != nil {
		return err
	}
	ticket.ID = record.Id
	return nil
}

func (s *PBStore) UpdateTicket(_ context.Context, ticket *models.Ticket) error {
	record, err := s.app.FindRecordById(CollectionTickets, ticket.ID)
	if err != nil {
		return fmt.Errorf("ticket %s: %w", ticket.ID, err)
	}

	applyTicket(record, ticket)
	return s.app.Save(record)
}

func (s *PBStore) UnsettledTickets(_ context.Context, now time.Time) ([]*models.Ticket, error) {
	cutoff, err := types.ParseDateTime(now.UTC())
	if err != nil {
		return nil, err
	}

	records, err := s.app.FindRecordsByFilter(
		CollectionTickets,
		"attended = false && reputation_decreased = false && refunded = false && event.date < {:cutoff} && event.is_cancelled = false",
		"created",
		-1,
		0,
		dbx.Params{"cutoff": cutoff.String()},
	)
	if err != nil {
		return nil, err
	}

	tickets := make([]*models.Ticket, len(records))
	for i, record := range records {
		tickets[i] = ticketFromRecord(record)
	}
	return tickets, nil
}

func (s *PBStore) RefundOutstandingTickets(_ context.Context, eventID string) (int, error) {
	result, err := s.app.DB().
		NewQuery("UPDATE tickets SET refunded = TRUE WHERE event = {:event} AND refunded = FALSE").
		Bind(dbx.Params{"event": eventID}).
		Execute()
	if err != nil {
		return 0, err
	}

	affected, _ := result.RowsAffected()
	return int(affected), nil
}

// --- resale listings ---

func (s *PBStore) Listing(_ context.Context, listingID string) (*models.ResaleListing, error) {
	record, err := s.app.FindRecordById(CollectionListings, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, err)
	}
	return listingFromRecord(record), nil
}

func (s *PBStore) ActiveListing(_ context.Context, eventID, sellerID string) (*models.ResaleListing, error) {
	record, err := s.app.FindFirstRecordByFilter(
		CollectionListings,
		"event = {:event} && seller = {:seller} && is_sold = false",
		dbx.Params{"event": eventID, "seller": sellerID},
	)
	if err != nil {
		return nil, err
	}
	return listingFromRecord(record), nil
}

func (s *PBStore) ListingsByEvent(_ context.Context, eventID string) ([]*models.ResaleListing, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionListings,
		"event = {:event} && is_sold = false",
		"-created",
		-1,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, err
	}

	listings := make([]*models.ResaleListing, len(records))
	for i, record := range records {
		listings[i] = listingFromRecord(record)
	}
	return listings, nil
}

func (s *PBStore) CreateListing(_ context.Context, listing *models.ResaleListing) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionListings)
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	applyListing(record, listing)

	if err := s.app.Save(record); err != nil {
		return err
	}
	listing.ID = record.Id
	return nil
}

func (s *PBStore) UpdateListing(_ context.Context, listing *models.ResaleListing) error {
	record, err := s.app.FindRecordById(CollectionListings, listing.ID)
	if err != nil {
		return fmt.Errorf("listing %s: %w", listing.ID, err)
	}

	applyListing(record, listing)
	return s.app.Save(record)
}

func (s *PBStore) DeleteListing(_ context.Context, listingID string) error {
	record, err := s.app.FindRecordById(CollectionListings, listingID)
	if err != nil {
		return fmt.Errorf("listing %s: %w", listingID, err)
	}
	return s.app.Delete(record)
}

// --- mint intents ---

func (s *PBStore) CreateIntent(_ context.Context, intent *models.MintIntent) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionIntents)
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	applyIntent(record, intent)

	if err := s.app.Save(record); err != nil {
		return err
	}
	intent.ID = record.Id
	return nil
}

func (s *PBStore) UpdateIntent(_ context.Context, intent *models.MintIntent) error {
	record, err := s.app.FindRecordById(CollectionIntents, intent.ID)
	if err != nil {
		return fmt.Errorf("intent %s: %w", intent.ID, err)
	}

	applyIntent(record, intent)
	return s.app.Save(record)
}

func (s *PBStore) OpenIntents(_ context.Context) ([]*models.MintIntent, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionIntents,
		"state = {:submitted} || state = {:confirmed}",
		"created",
		-1,
		0,
		dbx.Params{"submitted": models.IntentSubmitted, "confirmed": models.IntentConfirmed},
	)
	if err != nil {
		return nil, err
	}

	intents := make([]*models.MintIntent, len(records))
	for i, record := range records {
		intents[i] = intentFromRecord(record)
	}
	return intents, nil
}

// --- record mapping ---

func profileFromRecord(r *core.Record) *models.Profile {
	return &models.Profile{
		ID:                  r.Id,
		Email:               r.GetString("email"),
		Name:                r.GetString("name"),
		WalletAddress:       r.GetString("wallet_address"),
		Reputation:          r.GetInt("reputation"),
		TotalTicketsMinted:  r.GetInt("total_tickets_minted"),
		TotalEventsAttended: r.GetInt("total_events_attended"),
		TotalFlags:          r.GetInt("total_flags"),
	}
}

func eventFromRecord(r *core.Record) *models.Event {
	return &models.Event{
		ID:            r.Id,
		Name:          r.GetString("name"),
		Description:   r.GetString("description"),
		Location:      r.GetString("location"),
		Date:          r.GetDateTime("date").Time(),
		Price:         int64(r.GetFloat("price")),
		MaxTicket:     r.GetInt("max_ticket"),
		TicketSold:    r.GetInt("ticket_sold"),
		Organizer:     r.GetString("organizer"),
		IsCancelled:   r.GetBool("is_cancelled"),
		ReputationReq: r.GetInt("reputation_req"),
	}
}

func applyEvent(r *core.Record, event *models.Event) {
	r.Set("name", event.Name)
	r.Set("description", event.Description)
	r.Set("location", event.Location)
	r.Set("date", event.Date.UTC())
	r.Set("price", event.Price)
	r.Set("max_ticket", event.MaxTicket)
	r.Set("ticket_sold", event.TicketSold)
	r.Set("organizer", event.Organizer)
	r.Set("is_cancelled", event.IsCancelled)
	r.Set("reputation_req", event.ReputationReq)
}

func ticketFromRecord(r *core.Record) *models.Ticket {
	return &models.Ticket{
		ID:                  r.Id,
		EventID:             r.GetString("event"),
		UserID:              r.GetString("user"),
		OwnerAddress:        r.GetString("owner_address"),
		Attended:            r.GetBool("attended"),
		Refunded:            r.GetBool("refunded"),
		ReputationDecreased: r.GetBool("reputation_decreased"),
		TxHash:              r.GetString("tx_hash"),
		CreatedAt:           r.GetDateTime("created").Time(),
	}
}

func applyTicket(r *core.Record, ticket *models.Ticket) {
	r.Set("event", ticket.EventID)
	r.Set("user", ticket.UserID)
	r.Set("owner_address", ticket.OwnerAddress)
	r.Set("attended", ticket.Attended)
	r.Set("refunded", ticket.Refunded)
	r.Set("reputation_decreased", ticket.ReputationDecreased)
	r.Set("tx_hash", ticket.TxHash)
}

func listingFromRecord(r *core.Record) *models.ResaleListing {
	return &models.ResaleListing{
		ID:            r.Id,
		EventID:       r.GetString("event"),
		TicketID:      r.GetString("ticket"),
		SellerID:      r.GetString("seller"),
		SellerAddress: r.GetString("seller_address"),
		Price:         int64(r.GetFloat("price")),
		IsSold:        r.GetBool("is_sold"),
		CreatedAt:     r.GetDateTime("created").Time(),
	}
}

func applyListing(r *core.Record, listing *models.ResaleListing) {
	r.Set("event", listing.EventID)
	r.Set("ticket", listing.TicketID)
	r.Set("seller", listing.SellerID)
	r.Set("seller_address", listing.SellerAddress)
	r.Set("price", listing.Price)
	r.Set("is_sold", listing.IsSold)
}

func intentFromRecord(r *core.Record) *models.MintIntent {
	return &models.MintIntent{
		ID:             r.Id,
		UserID:         r.GetString("user"),
		EventID:        r.GetString("event"),
		WalletAddress:  r.GetString("wallet_address"),
		IdempotencyKey: r.GetString("idempotency_key"),
		TxHash:         r.GetString("tx_hash"),
		State:          r.GetString("state"),
		CreatedAt:      r.GetDateTime("created").Time(),
	}
}

func applyIntent(r *core.Record, intent *models.MintIntent) {
	r.Set("user", intent.UserID)
	r.Set("event", intent.EventID)
	r.Set("wallet_address", intent.WalletAddress)
	r.Set("idempotency_key", intent.IdempotencyKey)
	r.Set("tx_hash", intent.TxHash)
	r.Set("state", intent.State)
}
