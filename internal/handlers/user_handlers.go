package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rizana/rizana-golang/internal/auth"
	"github.com/rizana/rizana-golang/internal/email"
	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- User Registration & Auth Handlers ---
//

// RegisterUserInput holds the input for POST /v1/users. Separate from
// models.User so a client can never set id, is_admin or is_active.
type RegisterUserInput struct {
	Username  string  `json:"username" binding:"required,min=3,max=50"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	Country   string  `json:"country"`
	EmirateID *string `json:"emirateId"`
}

// RegisterUser is the handler for POST /v1/users.
func (h *Handlers) RegisterUser(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Country == "" {
		input.Country = "ARE"
	}
	if !models.ValidateCountryCode(input.Country) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Country must be a valid 3-letter country code"})
		return
	}

	// Users registered in the UAE must provide a valid Emirates ID.
	if input.Country == "ARE" && input.EmirateID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Emirate ID is required for users from UAE"})
		return
	}
	if input.EmirateID != nil && !models.ValidateEmirateID(*input.EmirateID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Format of Emirate ID is not correct"})
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// 3. --- Build User Model ---
	activationKey := uuid.New().String()
	user := &models.User{
		ID:            uuid.New().String(),
		Username:      input.Username,
		Email:         input.Email,
		PasswordHash:  password.Hash,
		Country:       input.Country,
		EmirateID:     input.EmirateID,
		IsActive:      false,
		ActivationKey: &activationKey,
		CreatedAt:     time.Now(),
	}

	// 4. --- Save to Database ---
	query := `
		INSERT INTO users (id, username, email, password_hash, country, emirate_id, is_active, is_admin, activation_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`

	_, err := h.DB.Exec(query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Country, user.EmirateID, activationKey, user.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	// 5. --- Send Activation Email ---
	if err := email.SendActivationEmail(user.Email, h.Config.Server.PublicBaseURL, user.ID, activationKey); err != nil {
		// The account exists either way; the user can request a new email.
		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered, but the activation email could not be sent",
			"user":    user,
		})
		return
	}

	// 6. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Check your email to activate the account.",
		"user":    user,
	})
}

// ActivateUser is the handler for GET /v1/users/activate.
func (h *Handlers) ActivateUser(c *gin.Context) {
	userID := c.Query("user_id")
	activationKey := c.Query("activation_key")
	if userID == "" || activationKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and activation_key are required"})
		return
	}

	query := `
		UPDATE users
		SET is_active = 1, activation_key = NULL
		WHERE id = ? AND activation_key = ?`

	result, err := h.DB.Exec(query, userID, activationKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate account"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid activation link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account activated. You can now log in."})
}

// LoginInput holds the credentials for POST /v1/users/login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/users/login.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind Input ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Fetch User ---
	var userID, passwordHash string
	err := h.DB.QueryRow("SELECT id, password_hash FROM users WHERE email = ?", input.Email).
		Scan(&userID, &passwordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	// 3. --- Verify Password ---
	password := models.Password{Hash: passwordHash}
	matches, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify password"})
		return
	}
	if !matches {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// 4. --- Issue Token ---
	token, err := auth.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// GetMe is the handler for GET /v1/users/me.
func (h *Handlers) GetMe(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	user, err := h.fetchUser(c, "id", userID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUser is the handler for GET /v1/users (admin only). Exactly one of
// user_id, username, email or emirate_id must be given.
func (h *Handlers) GetUser(c *gin.Context) {
	var column, value string
	switch {
	case c.Query("user_id") != "":
		column, value = "id", c.Query("user_id")
	case c.Query("username") != "":
		column, value = "username", c.Query("username")
	case c.Query("email") != "":
		column, value = "email", c.Query("email")
	case c.Query("emirate_id") != "":
		column, value = "emirate_id", c.Query("emirate_id")
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one of user_id, username, email or emirate_id must be provided"})
		return
	}

	user, err := h.fetchUser(c, column, value)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// fetchUser loads one user row by a whitelisted column.
func (h *Handlers) fetchUser(c *gin.Context, column, value string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, country, emirate_id, is_active, is_admin, created_at
		FROM users
		WHERE ` + column + ` = ?`

	var u models.User
	err := h.DB.QueryRow(query, value).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Country, &u.EmirateID, &u.IsActive, &u.IsAdmin, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
