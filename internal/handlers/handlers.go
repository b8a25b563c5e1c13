package handlers

import (
	"database/sql"

	"github.com/rizana/rizana-golang/internal/ai"
	"github.com/rizana/rizana-golang/internal/cache"
	"github.com/rizana/rizana-golang/internal/config"
	"github.com/rizana/rizana-golang/internal/payments"
)

// Handlers holds all dependencies for our HTTP handlers.
type Handlers struct {
	DB        *sql.DB               // Primary Read/Write connection
	Cache     cache.Cache           // Item read cache (Redis or in-process)
	Payments  payments.IntentClient // Stripe wrapper
	AIService *ai.AIService         // Optional; nil when no API key is configured
	Config    *config.Config
}
