package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ariefcatur/go-shop-api/internal/config"
)

type Redirect struct {
	RedirectURL  string `json:"redirectUrl"`
	PaymentToken string `json:"paymentToken"`
}

// Transaction is the gateway's record of a payment for one order.
type Transaction struct {
	Reference     string          `json:"reference"`
	TransactionID string          `json:"transaction_id"`
	Cost          decimal.Decimal `json:"cost"`
	Message       string          `json:"message"`
	Payer         string          `json:"payer"`
}

func (t *Transaction) Successful() bool { return strings.EqualFold(t.Message, "successful") }

// MonCash talks to the MonCash REST API. Requests carry a client-credentials
// bearer token that the oauth2 transport fetches and refreshes.
type MonCash struct {
	HTTP        *http.Client
	BaseURL     string
	GatewayBase string
}

func NewMonCash(ctx context.Context, cfg config.MonCash) *MonCash {
	base := strings.TrimRight(cfg.BaseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/oauth/token",
		Scopes:       []string{"read,write"},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 15 * time.Second})
	return &MonCash{
		HTTP:        cc.Client(ctx),
		BaseURL:     base,
		GatewayBase: strings.TrimRight(cfg.GatewayBase, "/"),
	}
}

func (m *MonCash) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("moncash %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("moncash %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("moncash %s: decode: %w", path, err)
	}
	return nil
}

func (m *MonCash) CreatePayment(ctx context.Context, orderID string, amount decimal.Decimal) (*Redirect, error) {
	var resp struct {
		PaymentToken struct {
			Token string `json:"token"`
		} `json:"payment_token"`
	}
	if err := m.post(ctx, "/v1/CreatePayment", map[string]any{"orderId": orderID, "amount": amount.InexactFloat64()}, &resp); err != nil {
		return nil, err
	}
	if resp.PaymentToken.Token == "" {
		return nil, fmt.Errorf("moncash CreatePayment: empty payment token")
	}
	return &Redirect{
		RedirectURL:  m.GatewayBase + "/Payment/Redirect?token=" + url.QueryEscape(resp.PaymentToken.Token),
		PaymentToken: resp.PaymentToken.Token,
	}, nil
}

func (m *MonCash) RetrieveOrderPayment(ctx context.Context, orderID string) (*Transaction, error) {
	var resp struct {
		Payment Transaction `json:"payment"`
	}
	if err := m.post(ctx, "/v1/RetrieveOrderPayment", map[string]string{"orderId": orderID}, &resp); err != nil {
		return nil, err
	}
	return &resp.Payment, nil
}
