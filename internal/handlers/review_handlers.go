package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- Review Handlers ---
//

// CreateReviewInput holds the input for POST /v1/reviews.
type CreateReviewInput struct {
	ItemID  string  `json:"itemId" binding:"required"`
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment"`
}

// CreateReview is the handler for POST /v1/reviews. One review per user and
// item.
func (h *Handlers) CreateReview(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	// 1. --- Bind & Validate ---
	var input CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Check the Item Exists ---
	var one int
	err := h.DB.QueryRow("SELECT 1 FROM items WHERE id = ?", input.ItemID).Scan(&one)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}

	// 3. --- One Review per User and Item ---
	err = h.DB.QueryRow("SELECT 1 FROM reviews WHERE item_id = ? AND user_id = ?", input.ItemID, userID).Scan(&one)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already reviewed this item"})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing review"})
		return
	}

	// 4. --- Insert ---
	review := &models.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    input.ItemID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}
	_, err = h.DB.Exec(
		"INSERT INTO reviews (id, user_id, item_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		review.ID, review.UserID, review.ItemID, review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create review"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// GetReview is the handler for GET /v1/reviews/:id.
func (h *Handlers) GetReview(c *gin.Context) {
	reviewID := c.Param("id")

	var r models.Review
	err := h.DB.QueryRow(
		"SELECT id, user_id, item_id, rating, comment, created_at FROM reviews WHERE id = ?",
		reviewID,
	).Scan(&r.ID, &r.UserID, &r.ItemID, &r.Rating, &r.Comment, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": r})
}

// ListItemReviews is the handler for GET /v1/reviews/item/:item_id. Public;
// includes the average rating.
func (h *Handlers) ListItemReviews(c *gin.Context) {
	itemID := c.Param("item_id")

	reviews, err := h.queryReviews(c, "item_id", itemID)
	if err != nil {
		return
	}

	var total int
	for _, r := range reviews {
		total += r.Rating
	}
	var average float64
	if len(reviews) > 0 {
		average = float64(total) / float64(len(reviews))
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews":       reviews,
		"averageRating": average,
	})
}

// ListUserReviews is the handler for GET /v1/reviews/user/:user_id.
func (h *Handlers) ListUserReviews(c *gin.Context) {
	userID := c.Param("user_id")

	reviews, err := h.queryReviews(c, "user_id", userID)
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// queryReviews loads a page of reviews filtered by a whitelisted column. On
// failure the error response has already been written.
func (h *Handlers) queryReviews(c *gin.Context, column, value string) ([]models.Review, error) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, user_id, item_id, rating, comment, created_at
		FROM reviews
		WHERE ` + column + ` = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	rows, err := h.DB.Query(query, value, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.ItemID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan review"})
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read reviews"})
		return nil, err
	}

	return reviews, nil
}

// UpdateReviewInput holds the input for PUT /v1/reviews/:id.
type UpdateReviewInput struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// UpdateReview is the handler for PUT /v1/reviews/:id. Author only.
func (h *Handlers) UpdateReview(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	reviewID := c.Param("id")

	var input UpdateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Rating == nil && input.Comment == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
		return
	}

	var r models.Review
	err := h.DB.QueryRow(
		"SELECT id, user_id, item_id, rating, comment, created_at FROM reviews WHERE id = ?",
		reviewID,
	).Scan(&r.ID, &r.UserID, &r.ItemID, &r.Rating, &r.Comment, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch review"})
		return
	}
	if r.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own reviews"})
		return
	}

	if input.Rating != nil {
		r.Rating = *input.Rating
	}
	if input.Comment != nil {
		r.Comment = input.Comment
	}

	if _, err := h.DB.Exec("UPDATE reviews SET rating = ?, comment = ? WHERE id = ?", r.Rating, r.Comment, r.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": r})
}

// DeleteReview is the handler for DELETE /v1/reviews/:id. Author only.
func (h *Handlers) DeleteReview(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	reviewID := c.Param("id")

	result, err := h.DB.Exec("DELETE FROM reviews WHERE id = ? AND user_id = ?", reviewID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete review"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}
