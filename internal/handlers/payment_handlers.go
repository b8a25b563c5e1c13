package handlers

import (
	"database/sql"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- Payment Method & Billing Address Handlers ---
//

// AddPaymentMethodInput holds the input for POST /v1/payment-methods. The raw
// card number is hashed immediately; only the last four digits survive.
type AddPaymentMethodInput struct {
	CardType   string `json:"cardType" binding:"required"`
	CardNumber string `json:"cardNumber" binding:"required"`
	ExpiryDate string `json:"expiryDate" binding:"required"`
	HolderName string `json:"holderName" binding:"required,min=2,max=100"`
}

// AddPaymentMethod is the handler for POST /v1/payment-methods.
func (h *Handlers) AddPaymentMethod(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	// 1. --- Bind & Validate ---
	var input AddPaymentMethodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidCardType(input.CardType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported card type"})
		return
	}
	if !models.ValidateCardNumber(input.CardNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Card number must be 12 to 19 digits"})
		return
	}
	if !models.ValidateExpiryDate(input.ExpiryDate, time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expiry date must be MM/YY and not in the past"})
		return
	}

	// 2. --- Hash the Card Number ---
	hash, err := bcrypt.GenerateFromPassword([]byte(input.CardNumber), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store card"})
		return
	}

	method := &models.PaymentMethod{
		ID:             uuid.New().String(),
		UserID:         userID,
		CardType:       input.CardType,
		CardNumberHash: string(hash),
		CardLast4:      input.CardNumber[len(input.CardNumber)-4:],
		ExpiryDate:     input.ExpiryDate,
		HolderName:     input.HolderName,
		CreatedAt:      time.Now(),
	}

	// 3. --- Save to Database ---
	_, err = h.DB.Exec(`
		INSERT INTO payment_methods (id, user_id, card_type, card_number_hash, card_last4, expiry_date, holder_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		method.ID, method.UserID, method.CardType, method.CardNumberHash,
		method.CardLast4, method.ExpiryDate, method.HolderName, method.CreatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save payment method"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"paymentMethod": method})
}

// ListPaymentMethods is the handler for GET /v1/payment-methods.
func (h *Handlers) ListPaymentMethods(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	rows, err := h.DB.Query(`
		SELECT id, user_id, card_type, card_number_hash, card_last4, expiry_date, holder_name, created_at
		FROM payment_methods
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment methods"})
		return
	}
	defer rows.Close()

	methods := []models.PaymentMethod{}
	for rows.Next() {
		var m models.PaymentMethod
		if err := rows.Scan(&m.ID, &m.UserID, &m.CardType, &m.CardNumberHash, &m.CardLast4, &m.ExpiryDate, &m.HolderName, &m.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan payment method"})
			return
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read payment methods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"paymentMethods": methods})
}

// DeletePaymentMethod is the handler for DELETE /v1/payment-methods/:id.
func (h *Handlers) DeletePaymentMethod(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	methodID := c.Param("id")

	result, err := h.DB.Exec("DELETE FROM payment_methods WHERE id = ? AND user_id = ?", methodID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete payment method"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment method not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted"})
}

// AddBillingAddressInput holds the input for POST /v1/billing-addresses.
type AddBillingAddressInput struct {
	Street     string  `json:"street" binding:"required,min=3,max=200"`
	City       string  `json:"city" binding:"required,min=2,max=100"`
	State      *string `json:"state"`
	Country    string  `json:"country" binding:"required"`
	PostalCode string  `json:"postalCode" binding:"required,min=3,max=20"`
}

// AddBillingAddress is the handler for POST /v1/billing-addresses.
func (h *Handlers) AddBillingAddress(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	var input AddBillingAddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidateCountryCode(input.Country) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Country must be a valid 3-letter country code"})
		return
	}

	address := &models.BillingAddress{
		ID:         uuid.New().String(),
		UserID:     userID,
		Street:     input.Street,
		City:       input.City,
		State:      input.State,
		Country:    input.Country,
		PostalCode: input.PostalCode,
		CreatedAt:  time.Now(),
	}

	_, err := h.DB.Exec(`
		INSERT INTO billing_addresses (id, user_id, street, city, state, country, postal_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		address.ID, address.UserID, address.Street, address.City,
		address.State, address.Country, address.PostalCode, address.CreatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save billing address"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"billingAddress": address})
}

// ListBillingAddresses is the handler for GET /v1/billing-addresses.
func (h *Handlers) ListBillingAddresses(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	rows, err := h.DB.Query(`
		SELECT id, user_id, street, city, state, country, postal_code, created_at
		FROM billing_addresses
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch billing addresses"})
		return
	}
	defer rows.Close()

	addresses := []models.BillingAddress{}
	for rows.Next() {
		var a models.BillingAddress
		if err := rows.Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.State, &a.Country, &a.PostalCode, &a.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan billing address"})
			return
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read billing addresses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"billingAddresses": addresses})
}

// DeleteBillingAddress is the handler for DELETE /v1/billing-addresses/:id.
func (h *Handlers) DeleteBillingAddress(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	addressID := c.Param("id")

	result, err := h.DB.Exec("DELETE FROM billing_addresses WHERE id = ? AND user_id = ?", addressID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete billing address"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Billing address not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Billing address deleted"})
}

//
// --- Payment Intent Handlers ---
//

// CreatePaymentIntent is the handler for POST /v1/orders/:id/payment-intent.
// Buyer only, while the order is pending and unpaid. Calling it again reuses
// the order but creates a fresh intent.
func (h *Handlers) CreatePaymentIntent(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	orderID := c.Param("id")

	// 1. --- Load & Authorize the Order ---
	order, err := h.fetchOrder(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	if order.BuyerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the buyer can pay for this order"})
		return
	}
	if order.Status != models.OrderPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Only pending orders can be paid"})
		return
	}
	if order.PaymentStatus == models.PaymentPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "This order has already been paid"})
		return
	}
	if order.PaymentMethodID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The order has no payment method attached"})
		return
	}
	if order.TotalPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The order total must be positive"})
		return
	}

	// 2. --- Create the Intent at Stripe ---
	result, err := h.Payments.CreateIntent(order)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider error"})
		return
	}

	// 3. --- Attach the Intent to the Order ---
	_, err = h.DB.Exec(
		"UPDATE orders SET payment_intent_id = ?, updated_at = ? WHERE id = ?",
		result.PaymentIntentID, time.Now(), order.ID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save payment intent"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"clientSecret":    result.ClientSecret,
		"paymentIntentId": result.PaymentIntentID,
	})
}

// ConfirmPaymentIntent is the handler for POST /v1/payment-intents/:id/confirm.
// On success, in one transaction: the order is completed and paid, the item is
// marked sold, the seller payout is recorded and the seller is notified.
func (h *Handlers) ConfirmPaymentIntent(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	paymentIntentID := c.Param("id")

	// 1. --- Lock the Order Behind the Intent ---
	tx, err := h.DB.BeginTx(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.QueryRow(`
		SELECT id, item_id, buyer_id, seller_id, total_price, currency, status, payment_status
		FROM orders
		WHERE payment_intent_id = ?
		FOR UPDATE`,
		paymentIntentID,
	).Scan(&order.ID, &order.ItemID, &order.BuyerID, &order.SellerID,
		&order.TotalPrice, &order.Currency, &order.Status, &order.PaymentStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment intent not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	// 2. --- Authorize & Check State ---
	if order.BuyerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the buyer can confirm this payment"})
		return
	}
	if order.PaymentStatus == models.PaymentPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "This payment has already been confirmed"})
		return
	}
	if order.Status != models.OrderPending {
		c.JSON(http.StatusConflict, gin.H{"error": "This order is no longer payable"})
		return
	}

	// 3. --- Confirm at Stripe ---
	if _, err := h.Payments.ConfirmIntent(paymentIntentID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider error"})
		return
	}

	// 4. --- Complete the Order & Mark the Item Sold ---
	now := time.Now()
	_, err = tx.Exec(
		"UPDATE orders SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?",
		models.OrderCompleted, models.PaymentPaid, now, order.ID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	if _, err := tx.Exec("UPDATE items SET is_sold = 1, updated_at = ? WHERE id = ?", now, order.ItemID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	// 5. --- Record the Seller Payout ---
	fee := order.TotalPrice * h.Config.Stripe.PlatformFee
	payout := &models.Payout{
		ID:          uuid.New().String(),
		Reference:   ulid.MustNew(ulid.Timestamp(now), rand.New(rand.NewSource(now.UnixNano()))).String(),
		OrderID:     order.ID,
		SellerID:    order.SellerID,
		Amount:      order.TotalPrice - fee,
		PlatformFee: fee,
		Currency:    order.Currency,
		Status:      "scheduled",
		CreatedAt:   now,
	}
	_, err = tx.Exec(`
		INSERT INTO payouts (id, reference, order_id, seller_id, amount, platform_fee, currency, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payout.ID, payout.Reference, payout.OrderID, payout.SellerID,
		payout.Amount, payout.PlatformFee, payout.Currency, payout.Status, payout.CreatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payout"})
		return
	}

	// 6. --- Notify the Seller ---
	link := "/orders/" + order.ID
	notice := fmt.Sprintf("Your item was sold for %.2f %s", order.TotalPrice, order.Currency)
	if err := h.addNotificationTx(tx, order.SellerID, notice, models.NotificationOrderUpdate, &link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	// The cached item detail still shows the listing as available.
	_ = h.Cache.Delete(c.Request.Context(), "item:"+order.ItemID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmed",
		"payout":  payout,
	})
}

// ListPayouts is the handler for GET /v1/payouts. Sellers see their own
// disbursements.
func (h *Handlers) ListPayouts(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	rows, err := h.DB.Query(`
		SELECT id, reference, order_id, seller_id, amount, platform_fee, currency, status, created_at
		FROM payouts
		WHERE seller_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payouts"})
		return
	}
	defer rows.Close()

	payouts := []models.Payout{}
	for rows.Next() {
		var p models.Payout
		if err := rows.Scan(&p.ID, &p.Reference, &p.OrderID, &p.SellerID, &p.Amount, &p.PlatformFee, &p.Currency, &p.Status, &p.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan payout"})
			return
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read payouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}
