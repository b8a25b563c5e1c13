package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rizana/rizana-golang/internal/handlers"
	"github.com/rizana/rizana-golang/internal/middleware"
)

// CORSMiddleware tells the browser the configured frontend origin is allowed
// to call us with credentials and the Authorization header.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Browsers send an empty OPTIONS request first to check permissions.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SetupRouter wires every endpoint to its handler.
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware(h.Config.Server.AllowedOrigin))

	// Uploaded listing images are served straight from disk.
	router.Static("/uploads", h.Config.Upload.Dir)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Account Routes (Public) ---
		v1.POST("/users", h.RegisterUser)
		v1.GET("/users/activate", h.ActivateUser)
		v1.POST("/users/login", h.Login)

		// --- Public Catalog Routes ---
		v1.GET("/items", h.SearchItems)
		v1.GET("/items/:id", h.GetItem)
		v1.GET("/categories", h.ListCategories)
		v1.GET("/reviews/:id", h.GetReview)
		v1.GET("/reviews/item/:item_id", h.ListItemReviews)
		v1.GET("/reviews/user/:user_id", h.ListUserReviews)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(h.DB))
		{
			// Profile
			auth.GET("/users/me", h.GetMe)

			// Listings
			auth.POST("/items", h.CreateItem)
			auth.GET("/items/mine", h.GetMyItems)
			auth.PUT("/items/:id", h.UpdateItem)
			auth.DELETE("/items/:id", h.DeleteItem)
			auth.POST("/upload", h.UploadImage)

			// Chat & Negotiation
			auth.POST("/chat/messages", h.SendMessage)
			auth.POST("/chat/proposals", h.CreateProposal)
			auth.POST("/chat/proposals/:id/accept", h.AcceptProposal)
			auth.POST("/chat/proposals/:id/refuse", h.RefuseProposal)
			auth.GET("/chat/conversations", h.ListConversations)
			auth.GET("/chat/conversations/:id", h.GetConversation)
			auth.GET("/chat/history/:other_user_id/:item_id", h.GetChatHistory)

			// Orders
			auth.POST("/orders", h.CreateOrder)
			auth.GET("/orders", h.ListOrders)
			auth.GET("/orders/:id", h.GetOrder)
			auth.POST("/orders/:id/cancel", h.CancelOrder)

			// Payments
			auth.POST("/payment-methods", h.AddPaymentMethod)
			auth.GET("/payment-methods", h.ListPaymentMethods)
			auth.DELETE("/payment-methods/:id", h.DeletePaymentMethod)
			auth.POST("/billing-addresses", h.AddBillingAddress)
			auth.GET("/billing-addresses", h.ListBillingAddresses)
			auth.DELETE("/billing-addresses/:id", h.DeleteBillingAddress)
			auth.POST("/orders/:id/payment-intent", h.CreatePaymentIntent)
			auth.POST("/payment-intents/:id/confirm", h.ConfirmPaymentIntent)
			auth.GET("/payouts", h.ListPayouts)

			// Wishlist
			auth.POST("/wishlist", h.AddWish)
			auth.GET("/wishlist", h.ListWishlist)
			auth.GET("/wishlist/:id", h.GetWish)
			auth.PUT("/wishlist/:id", h.UpdateWish)
			auth.DELETE("/wishlist/:id", h.RemoveWish)

			// Reviews
			auth.POST("/reviews", h.CreateReview)
			auth.PUT("/reviews/:id", h.UpdateReview)
			auth.DELETE("/reviews/:id", h.DeleteReview)

			// Notifications
			auth.GET("/notifications", h.ListNotifications)
			auth.PATCH("/notifications/:id/read", h.MarkNotificationRead)
			auth.PATCH("/notifications/read-all", h.MarkAllNotificationsRead)

			// --- AI Assistant Route ---
			// Registered only when a Gemini key is configured.
			if h.AIService != nil {
				auth.POST("/ai/chat", h.ChatAI)
			}
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(h.DB))
		admin.Use(middleware.AdminMiddleware(h.DB))
		{
			admin.GET("/users", h.GetUser)
			admin.POST("/categories", h.CreateCategory)
			admin.DELETE("/categories/:name", h.DeleteCategory)
		}
	}

	return router
}
