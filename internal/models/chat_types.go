package models

import "time"

// Proposal status values. Accepted and rejected are terminal.
const (
	ProposalPending  = "pending"
	ProposalAccepted = "accepted"
	ProposalRejected = "rejected"
)

// Conversation pairs a buyer and a seller around one item. Unique per
// (buyer, seller, item) and created lazily on the first message or proposal.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	BuyerID   string    `json:"buyerId" db:"buyer_id"`
	SellerID  string    `json:"sellerId" db:"seller_id"`
	ItemID    string    `json:"itemId" db:"item_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Message is a chat line inside a conversation.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	SenderID       string    `json:"senderId" db:"sender_id"`
	ReceiverID     string    `json:"receiverId" db:"receiver_id"`
	Message        string    `json:"message" db:"message"`
	IsRead         bool      `json:"isRead" db:"is_read"`
	SentAt         time.Time `json:"sentAt" db:"sent_at"`
}

// Proposal is a priced offer inside a conversation. The receiver is always
// the conversation party that did not send it.
type Proposal struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	SenderID       string    `json:"senderId" db:"sender_id"`
	ReceiverID     string    `json:"receiverId" db:"receiver_id"`
	ProposedPrice  float64   `json:"proposedPrice" db:"proposed_price"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
