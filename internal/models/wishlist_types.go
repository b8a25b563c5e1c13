package models

import "time"

// Wish is one saved item on a user's wishlist. Unique per (user, item).
type Wish struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ItemID    string    `json:"itemId" db:"item_id"`
	Note      *string   `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
