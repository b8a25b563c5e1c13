package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// AIService holds the Gemini client and the read-only database connection
// the assistant is allowed to query.
type AIService struct {
	Client *genai.Client
	DB     *sql.DB
	Model  string
}

// NewAIService initializes the Gemini client.
func NewAIService(apiKey string, modelName string, dbReadOnly *sql.DB) (*AIService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &AIService{Client: client, DB: dbReadOnly, Model: modelName}, nil
}

// GenerateResponse answers a marketplace question for the given user. The
// model may call the read-only SQL tool; results are fed back until it
// produces text. Returns the answer and the total token count.
func (s *AIService) GenerateResponse(ctx context.Context, userID string, userMessage string) (string, int, error) {
	model := s.Client.GenerativeModel(s.Model)

	sqlTool := &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "run_readonly_sql",
				Description: "Executes a READ-ONLY SQL query (SELECT only) to answer questions.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "The MySQL SELECT query to execute.",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
	model.Tools = []*genai.Tool{sqlTool}

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(`
			You are the Rizana marketplace assistant, talking to user %s.
			Access: MySQL database via run_readonly_sql.
			Schema: %s
			Rules: SELECT only. Only surface rows that belong to this user
			(their listings, orders, conversations) or public listings.
			Be concise.
		`, userID, s.schemaDefinition()))},
	}

	cs := model.StartChat()
	res, err := cs.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", 0, fmt.Errorf("error sending message: %w", err)
	}

	totalTokens := 0
	if res.UsageMetadata != nil {
		totalTokens = int(res.UsageMetadata.TotalTokenCount)
	}

	// Tool-call loop: keep answering SQL requests until the model replies
	// with text.
	for {
		if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
			return "No response.", totalTokens, nil
		}
		part := res.Candidates[0].Content.Parts[0]

		funcCall, ok := part.(genai.FunctionCall)
		if !ok {
			return fmt.Sprintf("%v", part), totalTokens, nil
		}

		if funcCall.Name != "run_readonly_sql" {
			return "", totalTokens, fmt.Errorf("unknown function: %s", funcCall.Name)
		}

		query, ok := funcCall.Args["query"].(string)
		if !ok {
			return "", totalTokens, fmt.Errorf("invalid query argument")
		}
		log.Printf("AI assistant running SQL: %s", query)

		sqlResult, sqlErr := s.runReadOnlyQuery(query)
		if sqlErr != nil {
			sqlResult = fmt.Sprintf("SQL Error: %v", sqlErr)
		}

		res, err = cs.SendMessage(ctx, genai.FunctionResponse{
			Name:     "run_readonly_sql",
			Response: map[string]interface{}{"result": sqlResult},
		})
		if err != nil {
			return "", totalTokens, fmt.Errorf("tool response error: %w", err)
		}

		if res.UsageMetadata != nil {
			totalTokens = int(res.UsageMetadata.TotalTokenCount)
		}
	}
}

// runReadOnlyQuery executes a SELECT against the read-only pool and returns
// the rows as JSON. Anything that smells like a write is refused before it
// reaches the database.
func (s *AIService) runReadOnlyQuery(query string) (string, error) {
	normalized := strings.ToUpper(query)
	for _, verb := range []string{"UPDATE", "DELETE", "DROP", "INSERT", "ALTER", "TRUNCATE"} {
		if strings.Contains(normalized, verb) {
			return "", fmt.Errorf("security violation: modify operations are not allowed")
		}
	}

	rows, err := s.DB.Query(query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, _ := rows.Columns()
	count := len(columns)
	tableData := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, count)
		valuePtrs := make([]interface{}, count)
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return "", err
		}
		entry := make(map[string]interface{})
		for i, col := range columns {
			var v interface{}
			val := values[i]
			if b, ok := val.([]byte); ok {
				v = string(b)
			} else {
				v = val
			}
			entry[col] = v
		}
		tableData = append(tableData, entry)
	}

	jsonData, err := json.Marshal(tableData)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (s *AIService) schemaDefinition() string {
	return `
	- users (id, username, email, country, is_active, is_admin, created_at)
	- categories (id, name, description)
	- items (id, user_id, category_id, title, slug, description, price, currency, is_sold)
	- conversations (id, buyer_id, seller_id, item_id, updated_at)
	- messages (id, conversation_id, sender_id, receiver_id, message, is_read, sent_at)
	- proposals (id, conversation_id, sender_id, receiver_id, proposed_price, status [pending, accepted, rejected])
	- orders (id, item_id, buyer_id, seller_id, total_price, currency, status [pending, completed, canceled], payment_status [unpaid, paid])
	- payouts (id, reference, order_id, seller_id, amount, platform_fee, currency, status)
	- reviews (id, user_id, item_id, rating, comment)
	- wishlist (id, user_id, item_id, note)
	`
}
