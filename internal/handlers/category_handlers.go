package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- Category Handlers ---
//

// CreateCategoryInput holds the input for POST /v1/admin/categories.
type CreateCategoryInput struct {
	Name        string  `json:"name" binding:"required,min=2,max=50"`
	Description *string `json:"description"`
}

// CreateCategory is the handler for POST /v1/admin/categories.
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &models.Category{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
	}

	_, err := h.DB.Exec(
		"INSERT INTO categories (id, name, description) VALUES (?, ?, ?)",
		category.ID, category.Name, category.Description,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			c.JSON(http.StatusConflict, gin.H{"error": "Category already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListCategories is the handler for GET /v1/categories.
func (h *Handlers) ListCategories(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, name, description FROM categories ORDER BY name ASC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan category"})
			return
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// DeleteCategory is the handler for DELETE /v1/admin/categories/:name.
// Refused while any item still references the category.
func (h *Handlers) DeleteCategory(c *gin.Context) {
	name := c.Param("name")

	result, err := h.DB.Exec("DELETE FROM categories WHERE name = ?", name)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1451 {
			c.JSON(http.StatusConflict, gin.H{"error": "Category is still in use by items"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
