package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- Wishlist Handlers ---
//

// AddWishInput holds the input for POST /v1/wishlist.
type AddWishInput struct {
	ItemID string  `json:"itemId" binding:"required"`
	Note   *string `json:"note"`
}

// AddWish is the handler for POST /v1/wishlist. An item can appear once per
// user.
func (h *Handlers) AddWish(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	var input AddWishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1. --- Check the Item Exists ---
	var ownerID string
	err := h.DB.QueryRow("SELECT user_id FROM items WHERE id = ?", input.ItemID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}
	if ownerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot wishlist your own item"})
		return
	}

	// 2. --- Insert ---
	wish := &models.Wish{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    input.ItemID,
		Note:      input.Note,
		CreatedAt: time.Now(),
	}
	_, err = h.DB.Exec(
		"INSERT INTO wishlist (id, user_id, item_id, note, created_at) VALUES (?, ?, ?, ?, ?)",
		wish.ID, wish.UserID, wish.ItemID, wish.Note, wish.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			c.JSON(http.StatusConflict, gin.H{"error": "Item is already on your wishlist"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to wishlist"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"wish": wish})
}

// ListWishlist is the handler for GET /v1/wishlist.
func (h *Handlers) ListWishlist(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	rows, err := h.DB.Query(`
		SELECT id, user_id, item_id, note, created_at
		FROM wishlist
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wishlist"})
		return
	}
	defer rows.Close()

	wishes := []models.Wish{}
	for rows.Next() {
		var w models.Wish
		if err := rows.Scan(&w.ID, &w.UserID, &w.ItemID, &w.Note, &w.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan wishlist entry"})
			return
		}
		wishes = append(wishes, w)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read wishlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wishlist": wishes})
}

// GetWish is the handler for GET /v1/wishlist/:id.
func (h *Handlers) GetWish(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	wishID := c.Param("id")

	var w models.Wish
	err := h.DB.QueryRow(
		"SELECT id, user_id, item_id, note, created_at FROM wishlist WHERE id = ? AND user_id = ?",
		wishID, userID,
	).Scan(&w.ID, &w.UserID, &w.ItemID, &w.Note, &w.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wishlist entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wishlist entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wish": w})
}

// UpdateWishInput holds the input for PUT /v1/wishlist/:id.
type UpdateWishInput struct {
	Note *string `json:"note" binding:"required"`
}

// UpdateWish is the handler for PUT /v1/wishlist/:id. Only the note can
// change.
func (h *Handlers) UpdateWish(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	wishID := c.Param("id")

	var input UpdateWishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.DB.Exec(
		"UPDATE wishlist SET note = ? WHERE id = ? AND user_id = ?",
		input.Note, wishID, userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update wishlist entry"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wishlist entry not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Wishlist entry updated"})
}

// RemoveWish is the handler for DELETE /v1/wishlist/:id.
func (h *Handlers) RemoveWish(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	wishID := c.Param("id")

	result, err := h.DB.Exec("DELETE FROM wishlist WHERE id = ? AND user_id = ?", wishID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove wishlist entry"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wishlist entry not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Wishlist entry removed"})
}
