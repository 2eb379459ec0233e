package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/chain"
	"ticket-marketplace/internal/chain/evm"
	"ticket-marketplace/internal/services"
)

// ChainHandler receives settlement callbacks the gateway POSTs when a
// transaction reaches a terminal state. This is the HTTP fallback for
// the PubNub channel, so the same HMAC key signs the body and the
// registered callback secret authenticates the caller.
type ChainHandler struct {
	app           *pocketbase.PocketBase
	ticketService *services.TicketService

	hmacKey    string
	secretHash string
}

func NewChainHandler(app *pocketbase.PocketBase, ticketService *services.TicketService, hmacKey, callbackSecret string) (*ChainHandler, error) {
	// Only the bcrypt hash of the registered secret is kept in memory.
	secretHash, err := evm.HashCallbackSecret([]byte(callbackSecret))
	if err != nil {
		return nil, err
	}

	return &ChainHandler{
		app:           app,
		ticketService: ticketService,
		hmacKey:       hmacKey,
		secretHash:    secretHash,
	}, nil
}

// verifyCallback checks the presented callback secret and the HMAC
// signature over the raw body.
func (h *ChainHandler) verifyCallback(secret, signedHash string, body []byte) bool {
	if !evm.CompareCallbackSecret([]byte(h.secretHash), []byte(secret)) {
		return false
	}
	_, ok := evm.VerifyHMACAndRetrieveReference(h.hmacKey, string(body), signedHash)
	return ok
}

// SettlementCallback - Gateway settlement notification over HTTP
func (h *ChainHandler) SettlementCallback(e *core.RequestEvent) error {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	secret := e.Request.Header.Get("X-Callback-Secret")
	signedHash := e.Request.Header.Get("SignedHash")
	if !h.verifyCallback(secret, signedHash, body) {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var n chain.TxNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	slog.Info("=> chain settlement callback", "txHash", n.TxHash, "status", n.Status)

	if err := h.ticketService.ReconcileIntents(e.Request.Context()); err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Reconcile failed", err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "accepted"})
}
