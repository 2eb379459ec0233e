package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"
)

type (
	Config struct {
		BaseURL    string `json:"baseUrl" mapstructure:"base_url"`
		ContractID string `json:"contractId" mapstructure:"contract_id"`
		ClientID   string `json:"clientId" mapstructure:"client_id"`
		ClientKey  string `json:"clientKey" mapstructure:"client_key"`
		HMACKey    string `json:"hmacKey" mapstructure:"hmac_key"`

		PNSubKey    string `json:"pn_subkey" mapstructure:"pn_subkey"`
		PNSubSecret string `json:"pn_subsecret" mapstructure:"pn_subsecret"`
		PNUUID      string `json:"pn_uuid" mapstructure:"pn_uuid"`
		PNChannel   string `json:"pn_channel" mapstructure:"pn_channel"`
		PNCipherKey string `json:"pn_cipherKey" mapstructure:"pn_cipherkey"`
	}

	// Gateway talks to the hosted contract gateway: signed HTTP calls to
	// submit contract transactions, plus a PubNub channel the gateway
	// pushes settlement notifications on.
	Gateway struct {
		ContractID string

		pnSubKey    string
		pnSubSecret string
		pnUUID      string
		pnChannels  []string
		pnCipherKey string

		sub *subscribe

		client *Client
	}
)

// MintForm is the gateway form for a mint contract call.
type MintForm struct {
	Wallet      string
	EventRef    string
	MetadataURI string
	Amount      decimal.Decimal
	Reference   string
}

// ResaleForm is the gateway form for a resale purchase contract call.
type ResaleForm struct {
	BuyerWallet  string
	SellerWallet string
	EventRef     string
	Amount       decimal.Decimal
	Reference    string
}

// Receipt is a transaction receipt as reported by the gateway.
type Receipt struct {
	TxHash      string
	Status      string // pending, confirmed, failed
	BlockNumber int64
	Amount      decimal.Decimal
	Timestamp   int64
}

// Transaction is a settlement notification pushed over PubNub.
type Transaction struct {
	TxHash    string
	Reference string
	Status    string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

type payload struct {
	TxHash     string          `json:"txHash"`
	Reference  string          `json:"idempotencyKey"`
	Status     string          `json:"txStatus"`
	Amount     decimal.Decimal `json:"value"`
	CreatedAt  string          `json:"txnDateTime"`
	SignedHash string          `json:"signedHash"`
}

// New returns a new Gateway instance.
func New(ctx context.Context, cfg *Config) (*Gateway, error) {
	client := newClient(ctx, &ClientConfig{
		BaseURL:    cfg.BaseURL,
		ContractID: cfg.ContractID,
		ClientID:   cfg.ClientID,
		ClientKey:  cfg.ClientKey,
		HMACKey:    cfg.HMACKey,
	})

	// Connect to the gateway. Get access token.
	token, err := client.connect(ctx)
	if err != nil {
		return nil, err
	}
	client.setAccessToken(token)

	// Notify access token expired.
	go client.notifyAccessTokenExpired(ctx)

	g := &Gateway{
		ContractID: cfg.ContractID,

		pnSubKey:    cfg.PNSubKey,
		pnSubSecret: cfg.PNSubSecret,
		pnUUID:      cfg.PNUUID,
		pnChannels:  []string{cfg.PNChannel},
		pnCipherKey: cfg.PNCipherKey,

		client: client,
	}

	// Settlement notifications are optional; receipt polling alone is
	// enough when no subscribe key is configured.
	if g.pnSubKey != "" {
		pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(g.pnUUID))
		pnCfg.SubscribeKey = g.pnSubKey
		pnCfg.CipherKey = g.pnCipherKey
		pnCfg.SecretKey = g.pnSubSecret

		sub, err := g.newSubscription(ctx, pnCfg, cfg.HMACKey)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to gateway's PubNub channel: %v", err)
		}

		sub.pn.AddListener(sub.lis)
		sub.pn.Subscribe().Channels(g.pnChannels).Execute()
		g.sub = sub
	}

	return g, nil
}

type subscribe struct {
	pn      *pubnub.PubNub
	lis     *pubnub.Listener
	ch      chan *Transaction
	hmacKey string
}

func (g *Gateway) newSubscription(ctx context.Context, pnCfg *pubnub.Config, hmacKey string) (*subscribe, error) {
	sub := &subscribe{
		pn:      pubnub.NewPubNub(pnCfg),
		lis:     pubnub.NewListener(),
		hmacKey: hmacKey,
	}

	go sub.processSubscription(ctx)

	return sub, nil
}

func (s *subscribe) processSubscription(ctx context.Context) error {
	listener := s.lis
	for {
		select {
		case status := <-listener.Status:
			switch status.Category {
			case pubnub.PNConnectedCategory:
				log.Println("connected to pubnub")

			case pubnub.PNReconnectedCategory:
				log.Println("reconnected to pubnub")

			case pubnub.PNDisconnectedCategory:
				log.Println("disconnected from pubnub")

			case pubnub.PNAccessDeniedCategory:
				log.Println("access denied connect to pubnub")

			case pubnub.PNTimeoutCategory:
				log.Println("timeout connect to pubnub")

			default:
				log.Println("pubnub status category:", status.Category)
			}

		case message := <-listener.Message:
			log.Println("message received pubnub: ", message.Message)

			tran, err := decodeNotification(message.Message, s.hmacKey)
			if err != nil {
				log.Println(err)
				continue
			}
			if s.ch != nil {
				s.ch <- tran
			}

		case <-ctx.Done():
			log.Println("close subscribe")
			return nil
		}
	}
}

// decodeNotification parses one PubNub message into a settlement
// notification. The gateway signs the idempotency reference with the
// shared HMAC key, anything unsigned or tampered with is dropped.
func decodeNotification(raw interface{}, hmacKey string) (*Transaction, error) {
	text, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("decodeNotification: unexpected payload type %T", raw)
	}

	var p payload
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}

	if _, ok := VerifyHMACAndRetrieveReference(hmacKey, p.Reference, p.SignedHash); !ok {
		return nil, fmt.Errorf("decodeNotification: signature mismatch for tx %s", p.TxHash)
	}

	return p.ToDomain()
}

func (p *payload) ToDomain() (*Transaction, error) {
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", p.CreatedAt, time.Local)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		TxHash:    p.TxHash,
		Reference: p.Reference,
		Status:    p.Status,
		Amount:    p.Amount,
		CreatedAt: ts,
	}, nil
}

// SetTranChannel sets the channel settlement notifications are forwarded to.
func (g *Gateway) SetTranChannel(ch chan *Transaction) {
	if g.sub != nil {
		g.sub.ch = ch
	}
}

// Mint submits a mint transaction and waits until the gateway reports a
// terminal receipt or ctx expires.
func (g *Gateway) Mint(ctx context.Context, f *MintForm) (*Receipt, error) {
	txHash, err := g.client.submitMint(ctx, f)
	if err != nil {
		return nil, err
	}

	return g.awaitReceipt(ctx, txHash)
}

// BuyResale submits a resale purchase transaction and waits for its receipt.
func (g *Gateway) BuyResale(ctx context.Context, f *ResaleForm) (*Receipt, error) {
	txHash, err := g.client.submitResale(ctx, f)
	if err != nil {
		return nil, err
	}

	return g.awaitReceipt(ctx, txHash)
}

// CheckTransaction checks the receipt of a previously submitted transaction.
func (g *Gateway) CheckTransaction(ctx context.Context, txHash string) (*Receipt, error) {
	return g.client.getReceipt(ctx, txHash)
}

// awaitReceipt polls the gateway with exponential backoff until the
// transaction reaches a terminal state. A still-pending receipt at ctx
// expiry is returned as-is so the caller can reconcile it later.
func (g *Gateway) awaitReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	backOff := time.Second
	last := &Receipt{TxHash: txHash, Status: "pending"}

	for {
		receipt, err := g.client.getReceipt(ctx, txHash)
		if err == nil {
			last = receipt
			if receipt.Status != "pending" {
				return receipt, nil
			}
		} else {
			log.Printf("awaitReceipt: %v", err)
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()

		case <-time.After(backOff):
			if backOff < 16*time.Second {
				backOff *= 2
			}
		}
	}
}

// Close unsubscribes from the settlement channel.
func (g *Gateway) Close(_ context.Context) error {
	if g.sub != nil {
		g.sub.pn.Unsubscribe().Channels(g.pnChannels).Execute()
	}
	return nil
}
