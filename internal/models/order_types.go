package models

import "time"

// Order status values.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderCanceled  = "canceled"
)

// Payment status values.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Order records a purchase of one item, with payment method and billing
// address snapshots taken at creation time.
type Order struct {
	ID               string    `json:"id" db:"id"`
	ItemID           string    `json:"itemId" db:"item_id"`
	BuyerID          string    `json:"buyerId" db:"buyer_id"`
	SellerID         string    `json:"sellerId" db:"seller_id"`
	TotalPrice       float64   `json:"totalPrice" db:"total_price"`
	Currency         string    `json:"currency" db:"currency"`
	Status           string    `json:"status" db:"status"`
	PaymentStatus    string    `json:"paymentStatus" db:"payment_status"`
	PaymentIntentID  *string   `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	PaymentMethodID  *string   `json:"paymentMethodId,omitempty" db:"payment_method_id"`
	BillingAddressID *string   `json:"billingAddressId,omitempty" db:"billing_address_id"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// CharityContribution is an optional donation the buyer attaches to an
// order, either a fixed amount or a round-up of the total.
type CharityContribution struct {
	ID        string    `json:"id" db:"id"`
	OrderID   string    `json:"orderId" db:"order_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	IsRounded bool      `json:"isRounded" db:"is_rounded"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// OrderCancellation keeps the reason a buyer gave when canceling.
type OrderCancellation struct {
	ID                 string    `json:"id" db:"id"`
	OrderID            string    `json:"orderId" db:"order_id"`
	UserID             string    `json:"userId" db:"user_id"`
	CancellationReason string    `json:"cancellationReason" db:"cancellation_reason"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
}

// Payout is the seller-side disbursement recorded after a payment intent is
// confirmed: order total minus the platform fee.
type Payout struct {
	ID          string    `json:"id" db:"id"`
	Reference   string    `json:"reference" db:"reference"`
	OrderID     string    `json:"orderId" db:"order_id"`
	SellerID    string    `json:"sellerId" db:"seller_id"`
	Amount      float64   `json:"amount" db:"amount"`
	PlatformFee float64   `json:"platformFee" db:"platform_fee"`
	Currency    string    `json:"currency" db:"currency"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
