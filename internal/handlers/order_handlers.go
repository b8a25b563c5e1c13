package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- Order Handlers ---
//

// InlineCardInput is a card snapshot supplied with an order. The raw number
// is hashed before it reaches the database.
type InlineCardInput struct {
	CardType   string `json:"cardType" binding:"required"`
	CardNumber string `json:"cardNumber" binding:"required"`
	ExpiryDate string `json:"expiryDate" binding:"required"`
	HolderName string `json:"holderName" binding:"required,min=2,max=100"`
}

// InlineAddressInput is a billing address snapshot supplied with an order.
type InlineAddressInput struct {
	Street     string  `json:"street" binding:"required,min=3,max=100"`
	City       string  `json:"city" binding:"required,min=2,max=50"`
	State      *string `json:"state"`
	Country    string  `json:"country" binding:"required"`
	PostalCode string  `json:"postalCode" binding:"required,min=3,max=20"`
}

// CharityContributionInput is an optional donation attached to a new order.
type CharityContributionInput struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	IsRounded bool    `json:"isRounded"`
}

// CreateOrderInput holds the input for POST /v1/orders. Card and address can
// be given inline (snapshots are stored) or as references to saved ones.
type CreateOrderInput struct {
	ItemID              string                    `json:"itemId" binding:"required"`
	PaymentMethod       *InlineCardInput          `json:"paymentMethod"`
	BillingAddress      *InlineAddressInput       `json:"billingAddress"`
	PaymentMethodID     *string                   `json:"paymentMethodId"`
	BillingAddressID    *string                   `json:"billingAddressId"`
	CharityContribution *CharityContributionInput `json:"charityContribution"`
}

// CreateOrder is the handler for POST /v1/orders. The price is the accepted
// proposal price when the buyer negotiated one, otherwise the listing price.
func (h *Handlers) CreateOrder(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	// 1. --- Bind & Validate Input ---
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.PaymentMethod != nil && input.PaymentMethodID != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Give either paymentMethod or paymentMethodId, not both"})
		return
	}
	if input.BillingAddress != nil && input.BillingAddressID != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Give either billingAddress or billingAddressId, not both"})
		return
	}
	if card := input.PaymentMethod; card != nil {
		if !models.ValidCardType(card.CardType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported card type"})
			return
		}
		if !models.ValidateCardNumber(card.CardNumber) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Card number must be 12 to 19 digits"})
			return
		}
		if !models.ValidateExpiryDate(card.ExpiryDate, time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Expiry date must be MM/YY and not in the past"})
			return
		}
	}
	if addr := input.BillingAddress; addr != nil && !models.ValidateCountryCode(addr.Country) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Country must be a valid 3-letter country code"})
		return
	}

	// 2. --- Start Transaction & Lock the Item ---
	tx, err := h.DB.BeginTx(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var item models.Item
	err = tx.QueryRow(`
		SELECT id, user_id, price, currency, is_sold
		FROM items
		WHERE id = ?
		FOR UPDATE`,
		input.ItemID,
	).Scan(&item.ID, &item.UserID, &item.Price, &item.Currency, &item.IsSold)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}

	if item.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot order your own item"})
		return
	}
	if item.IsSold {
		c.JSON(http.StatusConflict, gin.H{"error": "This item has already been sold"})
		return
	}

	// Only one open order per buyer and item.
	var openOrders int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM orders
		WHERE item_id = ? AND buyer_id = ? AND status = ?`,
		item.ID, userID, models.OrderPending,
	).Scan(&openOrders)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing orders"})
		return
	}
	if openOrders > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have a pending order for this item"})
		return
	}

	// 3. --- Store or Verify the Snapshots ---
	now := time.Now()

	paymentMethodID := input.PaymentMethodID
	if card := input.PaymentMethod; card != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(card.CardNumber), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store card"})
			return
		}
		id := uuid.New().String()
		_, err = tx.Exec(`
			INSERT INTO payment_methods (id, user_id, card_type, card_number_hash, card_last4, expiry_date, holder_name, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, userID, card.CardType, string(hash),
			card.CardNumber[len(card.CardNumber)-4:], card.ExpiryDate, card.HolderName, now,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save payment method"})
			return
		}
		paymentMethodID = &id
	} else if paymentMethodID != nil {
		var one int
		err := tx.QueryRow("SELECT 1 FROM payment_methods WHERE id = ? AND user_id = ?", *paymentMethodID, userID).Scan(&one)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check payment method"})
			return
		}
	}

	billingAddressID := input.BillingAddressID
	if addr := input.BillingAddress; addr != nil {
		id := uuid.New().String()
		_, err = tx.Exec(`
			INSERT INTO billing_addresses (id, user_id, street, city, state, country, postal_code, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, userID, addr.Street, addr.City, addr.State, addr.Country, addr.PostalCode, now,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save billing address"})
			return
		}
		billingAddressID = &id
	} else if billingAddressID != nil {
		var one int
		err := tx.QueryRow("SELECT 1 FROM billing_addresses WHERE id = ? AND user_id = ?", *billingAddressID, userID).Scan(&one)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Billing address not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check billing address"})
			return
		}
	}

	// 4. --- Resolve the Price ---
	// An accepted proposal between these parties overrides the listing price.
	price := item.Price
	var proposedPrice float64
	err = tx.QueryRow(`
		SELECT p.proposed_price
		FROM proposals p
		JOIN conversations conv ON conv.id = p.conversation_id
		WHERE conv.item_id = ? AND conv.buyer_id = ? AND p.status = ?
		ORDER BY p.created_at DESC
		LIMIT 1`,
		item.ID, userID, models.ProposalAccepted,
	).Scan(&proposedPrice)
	if err == nil {
		price = proposedPrice
	} else if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve price"})
		return
	}

	// 5. --- Insert the Order ---
	order := &models.Order{
		ID:               uuid.New().String(),
		ItemID:           item.ID,
		BuyerID:          userID,
		SellerID:         item.UserID,
		TotalPrice:       price,
		Currency:         item.Currency,
		Status:           models.OrderPending,
		PaymentStatus:    models.PaymentUnpaid,
		PaymentMethodID:  paymentMethodID,
		BillingAddressID: billingAddressID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err = tx.Exec(`
		INSERT INTO orders (id, item_id, buyer_id, seller_id, total_price, currency, status, payment_status, payment_method_id, billing_address_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.ItemID, order.BuyerID, order.SellerID, order.TotalPrice, order.Currency,
		order.Status, order.PaymentStatus, order.PaymentMethodID, order.BillingAddressID,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	// 6. --- Record the Charity Contribution ---
	var contribution *models.CharityContribution
	if donation := input.CharityContribution; donation != nil {
		contribution = &models.CharityContribution{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			UserID:    userID,
			Amount:    donation.Amount,
			IsRounded: donation.IsRounded,
			CreatedAt: now,
		}
		_, err = tx.Exec(`
			INSERT INTO charity_contributions (id, order_id, user_id, amount, is_rounded, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			contribution.ID, contribution.OrderID, contribution.UserID,
			contribution.Amount, contribution.IsRounded, contribution.CreatedAt,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record charity contribution"})
			return
		}
	}

	// 7. --- Notify the Seller ---
	link := "/orders/" + order.ID
	if err := h.addNotificationTx(tx, order.SellerID, "You have a new order", models.NotificationOrderUpdate, &link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	response := gin.H{"order": order}
	if contribution != nil {
		response["charityContribution"] = contribution
	}
	c.JSON(http.StatusCreated, response)
}

// GetOrder is the handler for GET /v1/orders/:id. Buyer and seller only.
func (h *Handlers) GetOrder(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	orderID := c.Param("id")

	order, err := h.fetchOrder(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	if userID != order.BuyerID && userID != order.SellerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListOrders is the handler for GET /v1/orders. By default it returns the
// current user's purchases; role=seller switches to sales.
func (h *Handlers) ListOrders(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	query := `
		SELECT id, item_id, buyer_id, seller_id, total_price, currency, status, payment_status, payment_intent_id, payment_method_id, billing_address_id, created_at, updated_at
		FROM orders`
	var args []interface{}

	switch c.Query("role") {
	case "seller":
		query += " WHERE seller_id = ?"
		args = append(args, userID)
	case "all":
		query += " WHERE buyer_id = ? OR seller_id = ?"
		args = append(args, userID, userID)
	default:
		query += " WHERE buyer_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.ID, &o.ItemID, &o.BuyerID, &o.SellerID, &o.TotalPrice, &o.Currency,
			&o.Status, &o.PaymentStatus, &o.PaymentIntentID, &o.PaymentMethodID,
			&o.BillingAddressID, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order"})
			return
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// CancelOrderInput holds the input for POST /v1/orders/:id/cancel.
type CancelOrderInput struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// CancelOrder is the handler for POST /v1/orders/:id/cancel. Buyer only,
// while the order is pending and unpaid; the reason is kept.
func (h *Handlers) CancelOrder(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	orderID := c.Param("id")

	var input CancelOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1. --- Lock the Order Row ---
	tx, err := h.DB.BeginTx(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.QueryRow(`
		SELECT id, item_id, buyer_id, seller_id, status, payment_status
		FROM orders
		WHERE id = ?
		FOR UPDATE`,
		orderID,
	).Scan(&order.ID, &order.ItemID, &order.BuyerID, &order.SellerID, &order.Status, &order.PaymentStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	// 2. --- Authorize & Check State ---
	if userID != order.BuyerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the buyer can cancel an order"})
		return
	}
	if order.Status != models.OrderPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Only pending orders can be canceled"})
		return
	}
	if order.PaymentStatus == models.PaymentPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "Paid orders cannot be canceled"})
		return
	}

	// 3. --- Cancel & Record the Reason ---
	now := time.Now()
	if _, err := tx.Exec("UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", models.OrderCanceled, now, order.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel order"})
		return
	}

	_, err = tx.Exec(`
		INSERT INTO order_cancellations (id, order_id, user_id, cancellation_reason, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), order.ID, userID, input.Reason, now,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record cancellation"})
		return
	}

	// 4. --- Notify the Seller ---
	link := "/orders/" + order.ID
	if err := h.addNotificationTx(tx, order.SellerID, "An order was canceled", models.NotificationOrderUpdate, &link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order canceled"})
}

// ExpireStalePendingOrders cancels pending unpaid orders older than staleAge.
// Called by the background janitor, not by a route.
func (h *Handlers) ExpireStalePendingOrders(ctx context.Context, staleAge time.Duration) error {
	cutoff := time.Now().Add(-staleAge)

	rows, err := h.DB.QueryContext(ctx, `
		SELECT id, buyer_id FROM orders
		WHERE status = ? AND payment_status = ? AND created_at < ?`,
		models.OrderPending, models.PaymentUnpaid, cutoff,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	type staleOrder struct{ id, buyerID string }
	var stale []staleOrder
	for rows.Next() {
		var so staleOrder
		if err := rows.Scan(&so.id, &so.buyerID); err != nil {
			return err
		}
		stale = append(stale, so)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, so := range stale {
		tx, err := h.DB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		now := time.Now()
		result, err := tx.Exec(`
			UPDATE orders SET status = ?, updated_at = ?
			WHERE id = ? AND status = ? AND payment_status = ?`,
			models.OrderCanceled, now, so.id, models.OrderPending, models.PaymentUnpaid,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
		// Skip orders that were paid or canceled since we listed them.
		if n, _ := result.RowsAffected(); n == 0 {
			tx.Rollback()
			continue
		}

		_, err = tx.Exec(`
			INSERT INTO order_cancellations (id, order_id, user_id, cancellation_reason, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), so.id, so.buyerID, "Order expired: payment was not completed in time", now,
		)
		if err != nil {
			tx.Rollback()
			return err
		}

		link := "/orders/" + so.id
		if err := h.addNotificationTx(tx, so.buyerID, "Your order expired because payment was not completed", models.NotificationOrderUpdate, &link); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		log.Printf("expired stale order %s", so.id)
	}

	return nil
}

// fetchOrder loads one order row by ID.
func (h *Handlers) fetchOrder(orderID string) (*models.Order, error) {
	query := `
		SELECT id, item_id, buyer_id, seller_id, total_price, currency, status, payment_status, payment_intent_id, payment_method_id, billing_address_id, created_at, updated_at
		FROM orders
		WHERE id = ?`

	var o models.Order
	err := h.DB.QueryRow(query, orderID).Scan(
		&o.ID, &o.ItemID, &o.BuyerID, &o.SellerID, &o.TotalPrice, &o.Currency,
		&o.Status, &o.PaymentStatus, &o.PaymentIntentID, &o.PaymentMethodID,
		&o.BillingAddressID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
