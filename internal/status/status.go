package status

import "errors"

// Precondition failures. These abort a workflow before any chain call
// or store write happens.
var (
	ErrWalletMissing     = errors.New("mint: wallet address missing")
	ErrEventExpired      = errors.New("event: event already expired")
	ErrEventStarted      = errors.New("event: event already started")
	ErrEventCancelled    = errors.New("event: event cancelled")
	ErrEventSoldOut      = errors.New("event: sold out")
	ErrOwnEvent          = errors.New("mint: organizer cannot buy own event")
	ErrLowReputation     = errors.New("mint: reputation below event requirement")
	ErrSelfPurchase      = errors.New("resale: buyer and seller are the same user")
	ErrTicketAttended    = errors.New("resale: ticket already used for attendance")
	ErrAlreadyListed     = errors.New("resale: active listing already exists")
	ErrNotOrganizer      = errors.New("organizer: caller does not own event")
	ErrOperationInFlight = errors.New("guard: operation already in flight")
)

// External-call and partial-completion failures.
var (
	ErrChainCallFailed = errors.New("chain: transaction rejected")
	ErrChainTimeout    = errors.New("chain: confirmation timed out")
	ErrTicketNotFound  = errors.New("ticket: ticket not found")
	ErrEventNotFound   = errors.New("event: event not found")
	ErrListingNotFound = errors.New("resale: listing not found")
	ErrListingSold     = errors.New("resale: listing already sold")
)
