package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/rizana/rizana-golang/internal/models"
)

func orderByIntentRows(paymentStatus string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "item_id", "buyer_id", "seller_id", "total_price", "currency", "status", "payment_status",
	}).AddRow("order-1", "item-1", "buyer-1", "seller-1", 2000.0, "AED", models.OrderPending, paymentStatus)
}

func TestConfirmPaymentIntent(t *testing.T) {
	h, mock, stripe := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs("pi_test_1").
		WillReturnRows(orderByIntentRows(models.PaymentUnpaid))
	mock.ExpectExec("UPDATE orders SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE items SET is_sold").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payouts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, w := newTestContext(t, http.MethodPost, "/v1/payment-intents/pi_test_1/confirm", "buyer-1", "")
	c.Params = gin.Params{{Key: "id", Value: "pi_test_1"}}

	h.ConfirmPaymentIntent(c)

	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, []string{"pi_test_1"}, stripe.confirmed)
	// Payout is the order total minus the 5% platform fee.
	assert.Contains(t, w.Body.String(), `"amount":1900`)
	assert.Contains(t, w.Body.String(), `"platformFee":100`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentIntentAlreadyPaid(t *testing.T) {
	h, mock, stripe := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs("pi_test_1").
		WillReturnRows(orderByIntentRows(models.PaymentPaid))
	mock.ExpectRollback()

	c, w := newTestContext(t, http.MethodPost, "/v1/payment-intents/pi_test_1/confirm", "buyer-1", "")
	c.Params = gin.Params{{Key: "id", Value: "pi_test_1"}}

	h.ConfirmPaymentIntent(c)

	assertStatus(t, w, http.StatusConflict)
	assert.Empty(t, stripe.confirmed, "Stripe must not be called twice for the same payment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentIntentWrongUser(t *testing.T) {
	h, mock, stripe := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs("pi_test_1").
		WillReturnRows(orderByIntentRows(models.PaymentUnpaid))
	mock.ExpectRollback()

	c, w := newTestContext(t, http.MethodPost, "/v1/payment-intents/pi_test_1/confirm", "seller-1", "")
	c.Params = gin.Params{{Key: "id", Value: "pi_test_1"}}

	h.ConfirmPaymentIntent(c)

	assertStatus(t, w, http.StatusForbidden)
	assert.Empty(t, stripe.confirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func fullOrderRows(buyerID, status, paymentStatus string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "item_id", "buyer_id", "seller_id", "total_price", "currency", "status", "payment_status",
		"payment_intent_id", "payment_method_id", "billing_address_id", "created_at", "updated_at",
	}).AddRow("order-1", "item-1", buyerID, "seller-1", 2000.0, "AED", status, paymentStatus,
		nil, "pm-1", nil, time.Now(), time.Now())
}

func TestCreatePaymentIntent(t *testing.T) {
	h, mock, stripe := newTestHandlers(t)

	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs("order-1").
		WillReturnRows(fullOrderRows("buyer-1", models.OrderPending, models.PaymentUnpaid))
	mock.ExpectExec("UPDATE orders SET payment_intent_id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := newTestContext(t, http.MethodPost, "/v1/orders/order-1/payment-intent", "buyer-1", "")
	c.Params = gin.Params{{Key: "id", Value: "order-1"}}

	h.CreatePaymentIntent(c)

	assertStatus(t, w, http.StatusCreated)
	assert.Equal(t, []string{"order-1"}, stripe.created)
	assert.Contains(t, w.Body.String(), "cs_test_secret")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentIntentCanceledOrder(t *testing.T) {
	h, mock, stripe := newTestHandlers(t)

	mock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs("order-1").
		WillReturnRows(fullOrderRows("buyer-1", models.OrderCanceled, models.PaymentUnpaid))

	c, w := newTestContext(t, http.MethodPost, "/v1/orders/order-1/payment-intent", "buyer-1", "")
	c.Params = gin.Params{{Key: "id", Value: "order-1"}}

	h.CreatePaymentIntent(c)

	assertStatus(t, w, http.StatusConflict)
	assert.Empty(t, stripe.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPaymentMethodValidation(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad card type", `{"cardType":"UnionPay","cardNumber":"4242424242424242","expiryDate":"12/30","holderName":"Omar K"}`},
		{"bad card number", `{"cardType":"Visa","cardNumber":"4242","expiryDate":"12/30","holderName":"Omar K"}`},
		{"expired card", `{"cardType":"Visa","cardNumber":"4242424242424242","expiryDate":"01/20","holderName":"Omar K"}`},
		{"missing holder", `{"cardType":"Visa","cardNumber":"4242424242424242","expiryDate":"12/30"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newTestContext(t, http.MethodPost, "/v1/payment-methods", "buyer-1", tc.body)
			h.AddPaymentMethod(c)
			assertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestAddPaymentMethodStoresOnlyLast4(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectExec("INSERT INTO payment_methods").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"cardType":"Visa","cardNumber":"4242424242424242","expiryDate":"12/30","holderName":"Omar K"}`
	c, w := newTestContext(t, http.MethodPost, "/v1/payment-methods", "buyer-1", body)

	h.AddPaymentMethod(c)

	assertStatus(t, w, http.StatusCreated)
	assert.Contains(t, w.Body.String(), `"cardLast4":"4242"`)
	assert.NotContains(t, w.Body.String(), "4242424242424242", "the full card number must never be returned")
	assert.NoError(t, mock.ExpectationsWereMet())
}
