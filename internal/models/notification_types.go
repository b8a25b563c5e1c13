package models

import "time"

// Notification types.
const (
	NotificationGeneral     = "general"
	NotificationMessage     = "message"
	NotificationOrderUpdate = "order_update"
)

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Link      *string   `json:"link,omitempty" db:"link"`
	Type      string    `json:"type" db:"notification_type"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
