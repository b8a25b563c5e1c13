package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- Item (Listing) Handlers ---
//

// CreateItemInput holds the input for POST /v1/items.
type CreateItemInput struct {
	Title       string   `json:"title" binding:"required,min=3,max=100"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"required"`
	Currency    string   `json:"currency"`
	CategoryID  *string  `json:"categoryId"`
	ImageURL    *string  `json:"imageUrl"`
}

// CreateItem is the handler for POST /v1/items.
func (h *Handlers) CreateItem(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	// 1. --- Bind & Validate JSON ---
	var input CreateItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *input.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}
	if input.Currency == "" {
		input.Currency = "AED"
	}

	// 2. --- Check the Category Exists ---
	if input.CategoryID != nil {
		var exists int
		err := h.DB.QueryRow("SELECT 1 FROM categories WHERE id = ?", *input.CategoryID).Scan(&exists)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check category"})
			return
		}
	}

	// 3. --- Build the Item ---
	// The slug gets a short ID suffix so two listings can share a title.
	itemID := uuid.New().String()
	item := &models.Item{
		ID:          itemID,
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Title:       input.Title,
		Slug:        slug.Make(input.Title) + "-" + itemID[:8],
		Description: input.Description,
		Price:       *input.Price,
		Currency:    input.Currency,
		ImageURL:    input.ImageURL,
		IsSold:      false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	// 4. --- Save to Database ---
	query := `
		INSERT INTO items (id, user_id, category_id, title, slug, description, price, currency, image_url, is_sold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`

	_, err := h.DB.Exec(query,
		item.ID, item.UserID, item.CategoryID, item.Title, item.Slug,
		item.Description, item.Price, item.Currency, item.ImageURL,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// GetItem is the handler for GET /v1/items/:id. The detail response is
// served from the cache when warm.
func (h *Handlers) GetItem(c *gin.Context) {
	itemID := c.Param("id")

	payload, err := h.Cache.GetOrSet(c.Request.Context(), "item:"+itemID, h.Config.Cache.TTL, func() ([]byte, error) {
		item, err := h.fetchItem(itemID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(item)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// SearchItems is the handler for GET /v1/items. All filters are optional:
// q, category, min_price, max_price, include_sold, sort, limit, offset.
func (h *Handlers) SearchItems(c *gin.Context) {
	// 1. --- Build the WHERE Clause ---
	query := `
		SELECT id, user_id, category_id, title, slug, description, price, currency, image_url, is_sold, created_at, updated_at
		FROM items
		WHERE 1=1`
	args := []interface{}{}

	if q := c.Query("q"); q != "" {
		query += " AND (title LIKE ? OR description LIKE ?)"
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if categoryID := c.Query("category"); categoryID != "" {
		query += " AND category_id = ?"
		args = append(args, categoryID)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		v, err := strconv.ParseFloat(minPrice, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_price must be a number"})
			return
		}
		query += " AND price >= ?"
		args = append(args, v)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		v, err := strconv.ParseFloat(maxPrice, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_price must be a number"})
			return
		}
		query += " AND price <= ?"
		args = append(args, v)
	}
	if c.Query("include_sold") != "true" {
		query += " AND is_sold = 0"
	}

	// 2. --- Sorting & Pagination ---
	switch c.DefaultQuery("sort", "newest") {
	case "price_asc":
		query += " ORDER BY price ASC"
	case "price_desc":
		query += " ORDER BY price DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	// 3. --- Run the Query ---
	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search items"})
		return
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.CategoryID, &item.Title, &item.Slug,
			&item.Description, &item.Price, &item.Currency, &item.ImageURL,
			&item.IsSold, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan item"})
			return
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

// UpdateItemInput holds the input for PUT /v1/items/:id. All fields are
// optional; only the ones present are applied.
type UpdateItemInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	CategoryID  *string  `json:"categoryId"`
	ImageURL    *string  `json:"imageUrl"`
}

// UpdateItem is the handler for PUT /v1/items/:id. Only the owner can
// update, and only while the item is unsold.
func (h *Handlers) UpdateItem(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	itemID := c.Param("id")

	var input UpdateItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Price != nil && *input.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}

	// 1. --- Load & Authorize ---
	item, err := h.fetchItem(itemID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}
	if item.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own items"})
		return
	}
	if item.IsSold {
		c.JSON(http.StatusConflict, gin.H{"error": "Sold items can no longer be updated"})
		return
	}

	// 2. --- Apply Changes ---
	if input.Title != nil {
		item.Title = *input.Title
		item.Slug = slug.Make(*input.Title) + "-" + item.ID[:8]
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.CategoryID != nil {
		item.CategoryID = input.CategoryID
	}
	if input.ImageURL != nil {
		item.ImageURL = input.ImageURL
	}
	item.UpdatedAt = time.Now()

	query := `
		UPDATE items
		SET title = ?, slug = ?, description = ?, price = ?, category_id = ?, image_url = ?, updated_at = ?
		WHERE id = ?`

	_, err = h.DB.Exec(query,
		item.Title, item.Slug, item.Description, item.Price,
		item.CategoryID, item.ImageURL, item.UpdatedAt, item.ID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	// 3. --- Invalidate the Cached Detail ---
	_ = h.Cache.Delete(c.Request.Context(), "item:"+item.ID)

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem is the handler for DELETE /v1/items/:id. Only the owner can
// delete, and only while the item is unsold.
func (h *Handlers) DeleteItem(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	itemID := c.Param("id")

	item, err := h.fetchItem(itemID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}
	if item.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own items"})
		return
	}
	if item.IsSold {
		c.JSON(http.StatusConflict, gin.H{"error": "Sold items can no longer be deleted"})
		return
	}

	if _, err := h.DB.Exec("DELETE FROM items WHERE id = ?", itemID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	_ = h.Cache.Delete(c.Request.Context(), "item:"+itemID)

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// GetMyItems is the handler for GET /v1/items/mine.
func (h *Handlers) GetMyItems(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	query := `
		SELECT id, user_id, category_id, title, slug, description, price, currency, image_url, is_sold, created_at, updated_at
		FROM items
		WHERE user_id = ?
		ORDER BY created_at DESC`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.CategoryID, &item.Title, &item.Slug,
			&item.Description, &item.Price, &item.Currency, &item.ImageURL,
			&item.IsSold, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan item"})
			return
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// fetchItem loads one item row by ID.
func (h *Handlers) fetchItem(itemID string) (*models.Item, error) {
	query := `
		SELECT id, user_id, category_id, title, slug, description, price, currency, image_url, is_sold, created_at, updated_at
		FROM items
		WHERE id = ?`

	var item models.Item
	err := h.DB.QueryRow(query, itemID).Scan(
		&item.ID, &item.UserID, &item.CategoryID, &item.Title, &item.Slug,
		&item.Description, &item.Price, &item.Currency, &item.ImageURL,
		&item.IsSold, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
