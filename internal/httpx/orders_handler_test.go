package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/auth"
	"github.com/ariefcatur/go-shop-api/internal/orders"
)

type fakeOrders struct {
	placeErr  error
	replayed  bool
	gotKey    string
	gotInput  orders.PlaceInput
	gotStatus string
	list      []orders.Order
}

func (f *fakeOrders) Place(_ context.Context, p auth.Principal, in orders.PlaceInput, idemKey string) (*orders.Order, bool, error) {
	if f.placeErr != nil {
		return nil, false, f.placeErr
	}
	f.gotKey, f.gotInput = idemKey, in
	return &orders.Order{ID: 9, UserID: p.UserID, Status: orders.StatusPending, Total: decimal.NewFromInt(20)}, f.replayed, nil
}

func (f *fakeOrders) Get(_ context.Context, p auth.Principal, id int64) (*orders.Order, error) {
	if id != 9 {
		return nil, apperr.NotFound("Order not found")
	}
	return &orders.Order{ID: id, UserID: p.UserID}, nil
}

func (f *fakeOrders) ListAll(_ context.Context, p auth.Principal) ([]orders.Order, error) {
	if err := auth.Authorize(p, auth.CapReadAllOrders); err != nil {
		return nil, err
	}
	return f.list, nil
}

func (f *fakeOrders) ListByUser(context.Context, auth.Principal, int64) ([]orders.Order, error) {
	return f.list, nil
}

func (f *fakeOrders) ListByStatus(_ context.Context, _ auth.Principal, status string) ([]orders.Order, error) {
	f.gotStatus = status
	return f.list, nil
}

func (f *fakeOrders) ListByPaymentStatus(context.Context, auth.Principal, string) ([]orders.Order, error) {
	return f.list, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, p auth.Principal, id int64, status string) (*orders.Order, error) {
	if err := auth.Authorize(p, auth.CapManageOrders); err != nil {
		return nil, err
	}
	return &orders.Order{ID: id, Status: orders.Status(status)}, nil
}

type staticLookup map[int64]auth.Principal

func (l staticLookup) PrincipalByID(_ context.Context, id int64) (auth.Principal, error) {
	p, ok := l[id]
	if !ok {
		return auth.Principal{}, auth.ErrUnknownUser
	}
	return p, nil
}

type testServer struct {
	h      http.Handler
	orders *fakeOrders
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	tokens := auth.NewTokens("test-secret", time.Hour)
	lookup := staticLookup{
		1: {UserID: 1, Email: "user@example.ht", Role: auth.RoleUser},
		2: {UserID: 2, Email: "admin@example.ht", Role: auth.RoleAdmin},
	}
	fo := &fakeOrders{}
	r := NewRouter(log, []string{"*"})
	Mount(r, auth.Middleware(tokens, lookup), &OrdersHandler{Orders: fo, Log: log})
	return &testServer{h: r, orders: fo, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, userID int64, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		tok, err := s.tokens.Issue(userID, "")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

const placeBody = `{"items":[{"productId":1,"quantity":2,"price":"10"}],"addressId":3}`

func TestCreateOrderRequiresToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/orders", 0, placeBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrderCreatedThenReplayed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/orders", 1, placeBody, HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "k-1", s.orders.gotKey)
	assert.Equal(t, int64(3), s.orders.gotInput.AddressID)
	require.Len(t, s.orders.gotInput.Items, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(s.orders.gotInput.Items[0].Price))

	var o orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, int64(9), o.ID)
	assert.Equal(t, int64(1), o.UserID)

	s.orders.replayed = true
	rec = s.do(t, http.MethodPost, "/orders", 1, placeBody, HeaderIdempotencyKey, "k-1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrderRejectsBadBodies(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/orders", 1, `{"items":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", message(t, rec))

	rec = s.do(t, http.MethodPost, "/orders", 1, `{"items":[],"addressId":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, message(t, rec), "items")

	rec = s.do(t, http.MethodPost, "/orders", 1, `{"items":[{"productId":1,"quantity":0}],"addressId":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, message(t, rec), "quantity")
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.BadRequest("Not enough stock for product Kasav. Available stock: 1"), http.StatusBadRequest, "Not enough stock for product Kasav. Available stock: 1"},
		{apperr.NotFound("Product with ID 7 not found"), http.StatusNotFound, "Product with ID 7 not found"},
		{apperr.Conflict("order status changed"), http.StatusConflict, "order status changed"},
		{apperr.Internal("An unexpected error occurred while creating the order", errors.New("pq: secret detail")), http.StatusInternalServerError, "An unexpected error occurred while creating the order"},
		{errors.New("raw failure"), http.StatusInternalServerError, "an unexpected error occurred"},
	}
	for _, tc := range cases {
		s := newTestServer(t)
		s.orders.placeErr = tc.err
		rec := s.do(t, http.MethodPost, "/orders", 1, placeBody)
		assert.Equal(t, tc.code, rec.Code)
		assert.Equal(t, tc.msg, message(t, rec))
	}
}

func TestGetOrder(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/orders/9", 1, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/orders/10", 1, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/orders/abc", 1, "").Code)
}

func TestListsRenderEmptyArrays(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/orders/status/PENDING", 1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, "PENDING", s.orders.gotStatus)

	rec = s.do(t, http.MethodGet, "/orders/byUser", 1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/orders", 1, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/orders", 2, "").Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/orders/status/9/COMPLETED", 1, "").Code)
	rec := s.do(t, http.MethodPut, "/orders/status/9/COMPLETED", 2, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var o orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, orders.StatusCompleted, o.Status)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
