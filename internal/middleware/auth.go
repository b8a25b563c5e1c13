package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rizana/rizana-golang/internal/auth"
)

// AuthMiddleware validates the bearer token and checks that the account has
// been activated. The user ID lands in the context under "userID".
func AuthMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			c.Abort()
			return
		}
		tokenString := parts[1]

		// 2. --- Validate Token ---
		userID, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// 3. --- Require an activated account ---
		var isActive bool
		err = db.QueryRow("SELECT is_active FROM users WHERE id = ?", userID).Scan(&isActive)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up account"})
			}
			c.Abort()
			return
		}
		if !isActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is not activated"})
			c.Abort()
			return
		}

		// 4. --- Success ---
		c.Set("userID", userID)
		c.Next()
	}
}
