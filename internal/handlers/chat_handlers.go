package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- Chat & Negotiation Handlers ---
//

// getOrCreateConversation returns the conversation between buyer and seller
// about an item, creating it on first contact. Must run inside tx so the
// first message or proposal and its conversation commit together.
func getOrCreateConversation(tx *sql.Tx, buyerID string, sellerID string, itemID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := tx.QueryRow(`
		SELECT id, buyer_id, seller_id, item_id, created_at, updated_at
		FROM conversations
		WHERE buyer_id = ? AND seller_id = ? AND item_id = ?`,
		buyerID, sellerID, itemID,
	).Scan(&conv.ID, &conv.BuyerID, &conv.SellerID, &conv.ItemID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == nil {
		return &conv, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now()
	conv = models.Conversation{
		ID:        uuid.New().String(),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		ItemID:    itemID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = tx.Exec(`
		INSERT INTO conversations (id, buyer_id, seller_id, item_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.BuyerID, conv.SellerID, conv.ItemID, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// chatAddress is the common addressing block for messages and proposals:
// exactly one of ItemID / ConversationID, plus an optional explicit receiver.
type chatAddress struct {
	ItemID         *string `json:"itemId"`
	ConversationID *string `json:"conversationId"`
	ReceiverID     *string `json:"receiverId"`
}

// resolveAddress turns a chatAddress into the conversation parties for the
// given sender. The item owner is always the seller; the buyer is whichever
// party does not own the item. Writes the error response itself on failure.
func (h *Handlers) resolveAddress(c *gin.Context, tx *sql.Tx, addr chatAddress, senderID string) (conv *models.Conversation, receiverID string, ok bool) {
	if (addr.ItemID == nil) == (addr.ConversationID == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exactly one of itemId or conversationId is required"})
		return nil, "", false
	}

	// 1. --- Addressed by Conversation ---
	if addr.ConversationID != nil {
		var existing models.Conversation
		err := tx.QueryRow(`
			SELECT id, buyer_id, seller_id, item_id, created_at, updated_at
			FROM conversations
			WHERE id = ?`,
			*addr.ConversationID,
		).Scan(&existing.ID, &existing.BuyerID, &existing.SellerID, &existing.ItemID, &existing.CreatedAt, &existing.UpdatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
				return nil, "", false
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
			return nil, "", false
		}

		switch senderID {
		case existing.BuyerID:
			receiverID = existing.SellerID
		case existing.SellerID:
			receiverID = existing.BuyerID
		default:
			c.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this conversation"})
			return nil, "", false
		}
		if addr.ReceiverID != nil && *addr.ReceiverID != receiverID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId does not match this conversation"})
			return nil, "", false
		}
		return &existing, receiverID, true
	}

	// 2. --- Addressed by Item ---
	item, err := h.fetchItem(*addr.ItemID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return nil, "", false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return nil, "", false
	}

	var buyerID string
	if item.UserID == senderID {
		// Seller initiating: the buyer must be named explicitly.
		if addr.ReceiverID == nil || *addr.ReceiverID == senderID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId is required when contacting a buyer about your own item"})
			return nil, "", false
		}
		buyerID = *addr.ReceiverID
		receiverID = *addr.ReceiverID
	} else {
		// Buyer initiating: the receiver is always the item owner.
		if addr.ReceiverID != nil && *addr.ReceiverID != item.UserID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId must be the item owner"})
			return nil, "", false
		}
		buyerID = senderID
		receiverID = item.UserID
	}

	conv, err = getOrCreateConversation(tx, buyerID, item.UserID, item.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open conversation"})
		return nil, "", false
	}
	return conv, receiverID, true
}

// SendMessageInput holds the input for POST /v1/chat/messages.
type SendMessageInput struct {
	chatAddress
	Message string `json:"message" binding:"required,max=2000"`
}

// SendMessage is the handler for POST /v1/chat/messages. The conversation is
// created on first contact when addressed by item.
func (h *Handlers) SendMessage(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	// 1. --- Bind Input ---
	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Start Transaction & Resolve the Conversation ---
	tx, err := h.DB.BeginTx(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	conv, receiverID, ok := h.resolveAddress(c, tx, input.chatAddress, userID)
	if !ok {
		return
	}

	// 3. --- Insert the Message ---
	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       userID,
		ReceiverID:     receiverID,
		Message:        input.Message,
		IsRead:         false,
		SentAt:         time.Now(),
	}
	_, err = tx.Exec(`
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, message, is_read, sent_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Message, msg.SentAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	if _, err := tx.Exec("UPDATE conversations SET updated_at = ? WHERE id = ?", msg.SentAt, conv.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update conversation"})
		return
	}

	// 4. --- Notify the Receiver ---
	link := "/chat/conversations/" + conv.ID
	if err := h.addNotificationTx(tx, receiverID, "You have a new message", models.NotificationMessage, &link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg, "conversation": conv})
}

// CreateProposalInput holds the input for POST /v1/chat/proposals.
type CreateProposalInput struct {
	chatAddress
	ProposedPrice float64 `json:"proposedPrice" binding:"required,gt=0"`
}

// CreateProposal is the handler for POST /v1/chat/proposals. A proposal is a
// priced offer inside the conversation; either party can make one.
func (h *Handlers) CreateProposal(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	// 1. --- Bind Input ---
	var input CreateProposalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Start Transaction & Resolve the Conversation ---
	tx, err := h.DB.BeginTx(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	conv, receiverID, ok := h.resolveAddress(c, tx, input.chatAddress, userID)
	if !ok {
		return
	}

	// Offers on an already sold item make no sense.
	var isSold bool
	if err := tx.QueryRow("SELECT is_sold FROM items WHERE id = ?", conv.ItemID).Scan(&isSold); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}
	if isSold {
		c.JSON(http.StatusConflict, gin.H{"error": "This item has already been sold"})
		return
	}

	// 3. --- Insert the Proposal ---
	proposal := &models.Proposal{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       userID,
		ReceiverID:     receiverID,
		ProposedPrice:  input.ProposedPrice,
		Status:         models.ProposalPending,
		CreatedAt:      time.Now(),
	}
	_, err = tx.Exec(`
		INSERT INTO proposals (id, conversation_id, sender_id, receiver_id, proposed_price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		proposal.ID, proposal.ConversationID, proposal.SenderID, proposal.ReceiverID,
		proposal.ProposedPrice, proposal.Status, proposal.CreatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create proposal"})
		return
	}

	if _, err := tx.Exec("UPDATE conversations SET updated_at = ? WHERE id = ?", proposal.CreatedAt, conv.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update conversation"})
		return
	}

	// 4. --- Notify the Receiver ---
	link := "/chat/conversations/" + conv.ID
	notice := fmt.Sprintf("New price proposal: %.2f", proposal.ProposedPrice)
	if err := h.addNotificationTx(tx, receiverID, notice, models.NotificationMessage, &link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"proposal": proposal, "conversation": conv})
}

// AcceptProposal is the handler for POST /v1/chat/proposals/:id/accept. A
// user can never accept their own proposal.
func (h *Handlers) AcceptProposal(c *gin.Context) {
	h.settleProposal(c, models.ProposalAccepted)
}

// RefuseProposal is the handler for POST /v1/chat/proposals/:id/refuse. The
// sender may refuse their own proposal to withdraw it.
func (h *Handlers) RefuseProposal(c *gin.Context) {
	h.settleProposal(c, models.ProposalRejected)
}

// settleProposal moves a pending proposal to a terminal status. Terminal
// statuses are final.
func (h *Handlers) settleProposal(c *gin.Context, newStatus string) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	proposalID := c.Param("id")

	// 1. --- Lock the Proposal Row ---
	tx, err := h.DB.BeginTx(c.Request.Context(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var p models.Proposal
	err = tx.QueryRow(`
		SELECT id, conversation_id, sender_id, receiver_id, proposed_price, status, created_at
		FROM proposals
		WHERE id = ?
		FOR UPDATE`,
		proposalID,
	).Scan(&p.ID, &p.ConversationID, &p.SenderID, &p.ReceiverID, &p.ProposedPrice, &p.Status, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposal"})
		return
	}

	// 2. --- Authorize ---
	if userID != p.SenderID && userID != p.ReceiverID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this conversation"})
		return
	}
	if newStatus == models.ProposalAccepted && userID == p.SenderID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot accept your own proposal"})
		return
	}
	if p.Status != models.ProposalPending {
		c.JSON(http.StatusConflict, gin.H{"error": "This proposal has already been settled"})
		return
	}

	// 3. --- Update Status ---
	if _, err := tx.Exec("UPDATE proposals SET status = ? WHERE id = ?", newStatus, p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update proposal"})
		return
	}
	p.Status = newStatus

	// 4. --- Notify the Other Party ---
	notifyUser := p.SenderID
	if userID == p.SenderID {
		// Withdrawal: tell the receiver the offer is off the table.
		notifyUser = p.ReceiverID
	}
	var notice string
	switch {
	case newStatus == models.ProposalAccepted:
		notice = fmt.Sprintf("Your proposal of %.2f was accepted", p.ProposedPrice)
	case userID == p.SenderID:
		notice = fmt.Sprintf("A proposal of %.2f was withdrawn", p.ProposedPrice)
	default:
		notice = fmt.Sprintf("Your proposal of %.2f was refused", p.ProposedPrice)
	}
	link := "/chat/conversations/" + p.ConversationID
	if err := h.addNotificationTx(tx, notifyUser, notice, models.NotificationMessage, &link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposal": p})
}

// ListConversations is the handler for GET /v1/chat/conversations.
func (h *Handlers) ListConversations(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	query := `
		SELECT id, buyer_id, seller_id, item_id, created_at, updated_at
		FROM conversations
		WHERE buyer_id = ? OR seller_id = ?
		ORDER BY updated_at DESC`

	rows, err := h.DB.Query(query, userID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.BuyerID, &conv.SellerID, &conv.ItemID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan conversation"})
			return
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetChatHistory is the handler for
// GET /v1/chat/history/:other_user_id/:item_id. Returns the conversation
// between the current user and the other party about the item; 404 when they
// never talked.
func (h *Handlers) GetChatHistory(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	otherUserID := c.Param("other_user_id")
	itemID := c.Param("item_id")

	// The item owner is the seller; the other party is the buyer.
	item, err := h.fetchItem(itemID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}

	buyerID, sellerID := userID, otherUserID
	if item.UserID == userID {
		buyerID, sellerID = otherUserID, userID
	} else if item.UserID != otherUserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	var conv models.Conversation
	err = h.DB.QueryRow(`
		SELECT id, buyer_id, seller_id, item_id, created_at, updated_at
		FROM conversations
		WHERE buyer_id = ? AND seller_id = ? AND item_id = ?`,
		buyerID, sellerID, itemID,
	).Scan(&conv.ID, &conv.BuyerID, &conv.SellerID, &conv.ItemID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
		return
	}

	h.renderConversation(c, conv, userID)
}

// GetConversation is the handler for GET /v1/chat/conversations/:id.
func (h *Handlers) GetConversation(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	conversationID := c.Param("id")

	var conv models.Conversation
	err := h.DB.QueryRow(`
		SELECT id, buyer_id, seller_id, item_id, created_at, updated_at
		FROM conversations
		WHERE id = ?`,
		conversationID,
	).Scan(&conv.ID, &conv.BuyerID, &conv.SellerID, &conv.ItemID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
		return
	}
	if userID != conv.BuyerID && userID != conv.SellerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this conversation"})
		return
	}

	h.renderConversation(c, conv, userID)
}

// renderConversation loads the full history (messages plus proposals, oldest
// first), marks the caller's unread messages as read and writes the response.
func (h *Handlers) renderConversation(c *gin.Context, conv models.Conversation, userID string) {
	// 1. --- Load Messages ---
	rows, err := h.DB.Query(`
		SELECT id, conversation_id, sender_id, receiver_id, message, is_read, sent_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY sent_at ASC`,
		conv.ID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Message, &m.IsRead, &m.SentAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan message"})
			return
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read messages"})
		return
	}

	// 2. --- Load Proposals ---
	propRows, err := h.DB.Query(`
		SELECT id, conversation_id, sender_id, receiver_id, proposed_price, status, created_at
		FROM proposals
		WHERE conversation_id = ?
		ORDER BY created_at ASC`,
		conv.ID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposals"})
		return
	}
	defer propRows.Close()

	proposals := []models.Proposal{}
	for propRows.Next() {
		var p models.Proposal
		if err := propRows.Scan(&p.ID, &p.ConversationID, &p.SenderID, &p.ReceiverID, &p.ProposedPrice, &p.Status, &p.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan proposal"})
			return
		}
		proposals = append(proposals, p)
	}
	if err := propRows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read proposals"})
		return
	}

	// 3. --- Mark Incoming Messages as Read ---
	_, err = h.DB.Exec(
		"UPDATE messages SET is_read = 1 WHERE conversation_id = ? AND receiver_id = ? AND is_read = 0",
		conv.ID, userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark messages as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": conv,
		"messages":     messages,
		"proposals":    proposals,
	})
}
