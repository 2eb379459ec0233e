package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type ClientConfig struct {
	BaseURL    string `json:"baseUrl" mapstructure:"base_url"`
	ContractID string `json:"contractId" mapstructure:"contract_id"`
	ClientID   string `json:"clientId" mapstructure:"client_id"`
	ClientKey  string `json:"clientKey" mapstructure:"client_key"`
	HMACKey    string `json:"hmacKey" mapstructure:"hmac_key"`
}

type Client struct {
	// baseURL is the base url of the chain gateway.
	baseURL string

	// contractID is the ticket contract the gateway submits calls against.
	contractID string

	// clientID is the client id of the gateway account.
	clientID string

	// clientKey is the client key of the gateway account.
	clientKey string

	// hmacKey signs every request body.
	hmacKey string

	// access Token is used to authenticate with the gateway.
	accessToken string

	// mu is used to lock access token.
	mu sync.Mutex

	// toggleTokenRefresher is used to notify token refresher to refresh token.
	toggleTokenRefresher chan struct{}

	// hc is the http client.
	hc *http.Client
}

// newClient creates new instance of the gateway client.
func newClient(_ context.Context, c *ClientConfig) *Client {
	return &Client{
		baseURL:    c.BaseURL,
		contractID: c.ContractID,
		clientID:   c.ClientID,
		clientKey:  c.ClientKey,
		hmacKey:    c.HMACKey,

		// make a buffered channel to avoid blocking.
		toggleTokenRefresher: make(chan struct{}, 1),

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// notifyAccessTokenExpired do infinite loop with period of time
// to perform auto renew token from the gateway with
// exponential backOff strategy.
func (c *Client) notifyAccessTokenExpired(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return

		case <-ticker.C:

		case <-c.toggleTokenRefresher:
			log.Println("notifyAccessTokenExpired: toggleTokenRefresher => token refreshed")
		}

		// reconnect with exponential backOff strategy
		backOff := time.Second

	Retry:
		for {
			token, err := c.connect(ctx)
			switch err {
			case nil:
				c.setAccessToken(token)
				break Retry

			default:
				log.Printf("notifyAccessTokenExpired: %v", err)
				select {
				case <-ctx.Done():
					return

				case <-time.After(backOff):
					backOff *= 2
				}
			}
		}
	}
}

// setAccessToken set access token to client.
func (c *Client) setAccessToken(accessToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
}

// getAccessToken get access token from client.
func (c *Client) getAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// connect makes http call to perform authentication with the gateway.
func (c *Client) connect(ctx context.Context) (string, error) {
	number, err := randomNumber()
	if err != nil {
		return "", fmt.Errorf("connectGateway: randomNumber: %v", err)
	}

	body := fmt.Sprintf(`{"requestId":%q,"clientId":%q,"clientSecret":%q}`, number, c.clientID, c.clientKey)

	var reply struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AccessToken string `json:"accessToken"`
			TokenType   string `json:"tokenType"`
		} `json:"data"`
	}
	if err := c.do(ctx, "/api/gateway/authenticate", body, false, &reply); err != nil {
		return "", fmt.Errorf("connectGateway: %w", err)
	}
	if reply.Status != "OK" {
		return "", fmt.Errorf("connectGateway: reply.Status: %v, reply.Message: %v", reply.Status, reply.Message)
	}

	accessToken := fmt.Sprintf("%s %s", reply.Data.TokenType, reply.Data.AccessToken)
	return accessToken, nil
}

// submitMint submits a mint call against the ticket contract and
// returns the pending transaction hash.
func (c *Client) submitMint(ctx context.Context, f *MintForm) (string, error) {
	number, err := randomNumber()
	if err != nil {
		return "", fmt.Errorf("submitMint: randomNumber: %v", err)
	}

	body := fmt.Sprintf(`{"requestId":%q,"contractId":%q,"method":"mintTicket","wallet":%q,"eventRef":%q,"metadataUri":%q,"value":%s,"idempotencyKey":%q}`,
		number, c.contractID, f.Wallet, f.EventRef, f.MetadataURI, f.Amount, f.Reference)

	return c.submitTx(ctx, "submitMint", body)
}

// submitResale submits a resale purchase call paying the listed price
// to the seller wallet.
func (c *Client) submitResale(ctx context.Context, f *ResaleForm) (string, error) {
	number, err := randomNumber()
	if err != nil {
		return "", fmt.Errorf("submitResale: randomNumber: %v", err)
	}

	body := fmt.Sprintf(`{"requestId":%q,"contractId":%q,"method":"buyResale","wallet":%q,"sellerWallet":%q,"eventRef":%q,"value":%s,"idempotencyKey":%q}`,
		number, c.contractID, f.BuyerWallet, f.SellerWallet, f.EventRef, f.Amount, f.Reference)

	return c.submitTx(ctx, "submitResale", body)
}

func (c *Client) submitTx(ctx context.Context, op, body string) (string, error) {
	var reply struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			TxHash string `json:"txHash"`
		} `json:"data"`
	}
	if err := c.do(ctx, "/api/gateway/contract/call", body, true, &reply); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if reply.Status != "OK" {
		return "", fmt.Errorf("%s: reply.Status: %v, reply.Message: %v", op, reply.Status, reply.Message)
	}

	return reply.Data.TxHash, nil
}

// getReceipt checks the receipt of a submitted transaction.
func (c *Client) getReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	number, err := randomNumber()
	if err != nil {
		return nil, fmt.Errorf("getReceipt: randomNumber: %v", err)
	}

	body := fmt.Sprintf(`{"requestId":%q,"txHash":%q}`, number, txHash)

	var reply struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			TxHash      string          `json:"txHash"`
			TxStatus    string          `json:"txStatus"`
			BlockNumber int64           `json:"blockNumber"`
			Value       decimal.Decimal `json:"value"`
			Timestamp   int64           `json:"timestamp"`
		} `json:"data"`
	}
	if err := c.do(ctx, "/api/gateway/tx/receipt", body, true, &reply); err != nil {
		return nil, fmt.Errorf("getReceipt: %w", err)
	}
	if reply.Status != "OK" {
		return nil, fmt.Errorf("getReceipt: reply.Status: %v, reply.Message: %v", reply.Status, reply.Message)
	}

	return &Receipt{
		TxHash:      reply.Data.TxHash,
		Status:      reply.Data.TxStatus,
		BlockNumber: reply.Data.BlockNumber,
		Amount:      reply.Data.Value,
		Timestamp:   reply.Data.Timestamp,
	}, nil
}

// do performs one signed gateway call and decodes the reply envelope.
func (c *Client) do(ctx context.Context, path, body string, authed bool, reply interface{}) error {
	bodyReader := bytes.NewReader([]byte(body))

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), path), bodyReader)
	if err != nil {
		return fmt.Errorf("http.NewReq: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("SignedHash", Hmac256([]byte(body), []byte(c.hmacKey)))
	if authed {
		req.Header.Set("Authorization", c.getAccessToken())
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("http.Do: %v", err)
	}
	defer resp.Body.Close()

	// toggle token refresher if unauthorized
	if resp.StatusCode == http.StatusUnauthorized {
		c.toggleTokenRefresher <- struct{}{}
		return errors.New("resp.StatusCode: 401 => Unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http.StatusCode: %v", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(reply); err != nil {
		return fmt.Errorf("json.Decode: %v", err)
	}

	return nil
}
