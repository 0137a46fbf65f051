package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/auth"
	"github.com/ariefcatur/go-shop-api/internal/config"
	"github.com/ariefcatur/go-shop-api/internal/orders"
)

func fakeMonCash(t *testing.T, message string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "cid" || secret != "csecret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":59}`))
	})
	mux.HandleFunc("/v1/CreatePayment", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			OrderID string  `json:"orderId"`
			Amount  float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OrderID == "" || body.Amount <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"payment_token":{"token":"pay-` + body.OrderID + `"},"status":202}`))
	})
	mux.HandleFunc("/v1/RetrieveOrderPayment", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"payment":{"reference":"1","transaction_id":"tx-9","cost":12.5,"message":"` + message + `","payer":"50937000000"},"status":200}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *MonCash {
	return NewMonCash(context.Background(), config.MonCash{
		ClientID: "cid", ClientSecret: "csecret", BaseURL: srv.URL, GatewayBase: "https://gw.test/Moncash-middleware",
	})
}

type fakeOrders struct {
	order  *orders.Order
	marked []orders.PaymentStatus
}

func (f *fakeOrders) Get(_ context.Context, p auth.Principal, id int64) (*orders.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, apperr.NotFound("Order not found")
	}
	if f.order.UserID != p.UserID {
		return nil, apperr.Forbidden("nope")
	}
	return f.order, nil
}

func (f *fakeOrders) MarkPaymentsStatus(_ context.Context, _ int64, st orders.PaymentStatus) error {
	f.marked = append(f.marked, st)
	return nil
}

var buyer = auth.Principal{UserID: 1, Role: auth.RoleUser}

func TestCreateRedirectsToGateway(t *testing.T) {
	srv := fakeMonCash(t, "successful")
	ords := &fakeOrders{order: &orders.Order{ID: 42, UserID: 1, Total: decimal.RequireFromString("12.50")}}
	svc := &Service{Gateway: newClient(srv), Orders: ords, Log: zap.NewNop()}

	r, err := svc.Create(context.Background(), buyer, CreateInput{OrderID: 42})
	require.NoError(t, err)

	assert.Equal(t, "pay-42", r.PaymentToken)
	assert.Equal(t, "https://gw.test/Moncash-middleware/Payment/Redirect?token=pay-42", r.RedirectURL)
}

func TestCreateForForeignOrderIsForbidden(t *testing.T) {
	srv := fakeMonCash(t, "successful")
	ords := &fakeOrders{order: &orders.Order{ID: 42, UserID: 2, Total: decimal.NewFromInt(5)}}
	svc := &Service{Gateway: newClient(srv), Orders: ords, Log: zap.NewNop()}

	_, err := svc.Create(context.Background(), buyer, CreateInput{OrderID: 42})

	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestCaptureMarksPayments(t *testing.T) {
	for msg, want := range map[string]orders.PaymentStatus{
		"successful": orders.PaymentCompleted,
		"failed":     orders.PaymentFailed,
	} {
		t.Run(msg, func(t *testing.T) {
			srv := fakeMonCash(t, msg)
			ords := &fakeOrders{order: &orders.Order{ID: 7, UserID: 1}}
			svc := &Service{Gateway: newClient(srv), Orders: ords, Log: zap.NewNop()}

			tx, err := svc.Capture(context.Background(), buyer, 7)
			require.NoError(t, err)

			assert.Equal(t, "tx-9", tx.TransactionID)
			assert.Equal(t, []orders.PaymentStatus{want}, ords.marked)
		})
	}
}

func TestGatewayErrorIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	ords := &fakeOrders{order: &orders.Order{ID: 7, UserID: 1, Total: decimal.NewFromInt(3)}}
	svc := &Service{Gateway: newClient(srv), Orders: ords, Log: zap.NewNop()}

	_, err := svc.Create(context.Background(), buyer, CreateInput{OrderID: 7})

	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Equal(t, "Payment creation failed", apperr.PublicMessage(err))
}
