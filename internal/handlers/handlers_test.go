package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/rizana/rizana-golang/internal/cache"
	"github.com/rizana/rizana-golang/internal/config"
	"github.com/rizana/rizana-golang/internal/models"
	"github.com/rizana/rizana-golang/internal/payments"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeIntentClient stands in for Stripe in handler tests.
type fakeIntentClient struct {
	createErr  error
	confirmErr error
	created    []string
	confirmed  []string
}

func (f *fakeIntentClient) CreateIntent(order *models.Order) (*payments.IntentResult, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, order.ID)
	return &payments.IntentResult{
		ClientSecret:    "cs_test_secret",
		PaymentIntentID: "pi_test_" + order.ID,
	}, nil
}

func (f *fakeIntentClient) ConfirmIntent(paymentIntentID string) (*payments.IntentResult, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	f.confirmed = append(f.confirmed, paymentIntentID)
	return &payments.IntentResult{
		ClientSecret:    "cs_test_secret",
		PaymentIntentID: paymentIntentID,
	}, nil
}

// newTestHandlers wires a Handlers around a mocked database and a fake
// payment provider.
func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock, *fakeIntentClient) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })

	stripe := &fakeIntentClient{}
	h := &Handlers{
		DB:       db,
		Cache:    memCache,
		Payments: stripe,
		Config: &config.Config{
			Stripe: config.StripeConfig{PlatformFee: 0.05},
			Cache:  config.CacheConfig{TTL: time.Minute},
		},
	}
	return h, mock, stripe
}

// newTestContext builds a gin context with an authenticated user and an
// optional JSON body.
func newTestContext(t *testing.T, method, target, userID, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		c.Set("userID", userID)
	}
	return c, w
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("got status %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}
