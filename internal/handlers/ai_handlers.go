package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- AI Assistant Handler ---
//

// ChatAIInput holds the input for POST /v1/ai/chat.
type ChatAIInput struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// ChatAI is the handler for POST /v1/ai/chat. The route is only registered
// when an API key is configured, but a nil check stays as a guard.
func (h *Handlers) ChatAI(c *gin.Context) {
	if h.AIService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "The assistant is not available"})
		return
	}

	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(string)

	var input ChatAIInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, tokens, err := h.AIService.GenerateResponse(c.Request.Context(), userID, input.Message)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "The assistant failed to answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":     answer,
		"tokensUsed": tokens,
	})
}
