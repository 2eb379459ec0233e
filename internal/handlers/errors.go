package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/apis"

	"ticket-marketplace/internal/status"
)

// toAPIError maps workflow sentinels onto API errors. Anything
// unrecognized stays a generic bad request so internals never leak.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, status.ErrNotOrganizer):
		return apis.NewForbiddenError(err.Error(), err)

	case errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrTicketNotFound),
		errors.Is(err, status.ErrListingNotFound):
		return apis.NewNotFoundError(err.Error(), err)

	case errors.Is(err, status.ErrOperationInFlight):
		return apis.NewTooManyRequestsError(err.Error(), err)

	case errors.Is(err, status.ErrWalletMissing),
		errors.Is(err, status.ErrEventExpired),
		errors.Is(err, status.ErrEventStarted),
		errors.Is(err, status.ErrEventCancelled),
		errors.Is(err, status.ErrEventSoldOut),
		errors.Is(err, status.ErrOwnEvent),
		errors.Is(err, status.ErrLowReputation),
		errors.Is(err, status.ErrSelfPurchase),
		errors.Is(err, status.ErrTicketAttended),
		errors.Is(err, status.ErrAlreadyListed),
		errors.Is(err, status.ErrListingSold):
		return apis.NewBadRequestError(err.Error(), err)

	case errors.Is(err, status.ErrChainCallFailed),
		errors.Is(err, status.ErrChainTimeout):
		return apis.NewBadRequestError("Chain transaction did not complete", err)

	default:
		return apis.NewBadRequestError("Request failed", err)
	}
}
