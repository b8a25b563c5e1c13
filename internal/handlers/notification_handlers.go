package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rizana/rizana-golang/internal/models"
)

//
// --- Notification Handlers ---
//

// addNotificationTx inserts a notification inside an existing transaction so
// it commits or rolls back with the action that triggered it.
func (h *Handlers) addNotificationTx(tx *sql.Tx, userID string, message string, notifType string, link *string) error {
	var nullableLink sql.NullString
	if link != nil {
		nullableLink = sql.NullString{String: *link, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO notifications (id, user_id, message, link, notification_type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		uuid.New().String(), userID, message, nullableLink, notifType, time.Now(),
	)
	return err
}

// ListNotifications is the handler for GET /v1/notifications. Unread first,
// newest first within each group.
func (h *Handlers) ListNotifications(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	query := `
		SELECT id, user_id, message, link, notification_type, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY is_read ASC, created_at DESC
		LIMIT 100`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Link, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan notification"})
			return
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationRead is the handler for PATCH /v1/notifications/:id/read.
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)
	notificationID := c.Param("id")

	result, err := h.DB.Exec(
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?",
		notificationID, userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead is the handler for PATCH /v1/notifications/read-all.
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	if _, err := h.DB.Exec("UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0", userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
