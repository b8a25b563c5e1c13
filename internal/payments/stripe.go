package payments

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"github.com/rizana/rizana-golang/internal/models"
)

// IntentResult carries the two fields the frontend needs to finish a payment.
type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// IntentClient is the slice of the payment provider the handlers use. The
// real implementation talks to Stripe; tests substitute a fake.
type IntentClient interface {
	CreateIntent(order *models.Order) (*IntentResult, error)
	ConfirmIntent(paymentIntentID string) (*IntentResult, error)
}

// StripeService wraps the Stripe SDK.
type StripeService struct{}

// NewStripeService sets the package-level API key and returns the service.
func NewStripeService(apiKey string) *StripeService {
	stripe.Key = apiKey
	return &StripeService{}
}

// CreateIntent creates a Stripe PaymentIntent for an order. The amount is
// sent in the currency's minor unit (fils for AED).
func (s *StripeService) CreateIntent(order *models.Order) (*IntentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(order.TotalPrice * 100)),
		Currency: stripe.String(order.Currency),
	}
	params.AddMetadata("order_id", order.ID)
	params.AddMetadata("buyer_id", order.BuyerID)
	params.AddMetadata("seller_id", order.SellerID)
	params.AddMetadata("item_id", order.ItemID)
	params.AddMetadata("payment_status", order.PaymentStatus)
	params.AddMetadata("order_created_at", order.CreatedAt.Format(time.RFC3339))

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent for order %s: %w", order.ID, err)
	}

	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// ConfirmIntent confirms a Stripe PaymentIntent.
func (s *StripeService) ConfirmIntent(paymentIntentID string) (*IntentResult, error) {
	intent, err := paymentintent.Confirm(paymentIntentID, &stripe.PaymentIntentConfirmParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment intent %s: %w", paymentIntentID, err)
	}

	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}
