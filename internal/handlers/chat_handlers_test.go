package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/rizana/rizana-golang/internal/models"
)

func proposalRows(senderID, receiverID, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "conversation_id", "sender_id", "receiver_id", "proposed_price", "status", "created_at",
	}).AddRow("prop-1", "conv-1", senderID, receiverID, 1900.0, status, time.Now())
}

func TestAcceptProposal(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM proposals").
		WithArgs("prop-1").
		WillReturnRows(proposalRows("buyer-1", "seller-1", models.ProposalPending))
	mock.ExpectExec("UPDATE proposals SET status").
		WithArgs(models.ProposalAccepted, "prop-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, w := newTestContext(t, http.MethodPost, "/v1/chat/proposals/prop-1/accept", "seller-1", "")
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	h.AcceptProposal(c)

	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"status":"accepted"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefuseProposal(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM proposals").
		WithArgs("prop-1").
		WillReturnRows(proposalRows("buyer-1", "seller-1", models.ProposalPending))
	mock.ExpectExec("UPDATE proposals SET status").
		WithArgs(models.ProposalRejected, "prop-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, w := newTestContext(t, http.MethodPost, "/v1/chat/proposals/prop-1/refuse", "seller-1", "")
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	h.RefuseProposal(c)

	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"status":"rejected"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefuseProposalSenderWithdraws(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM proposals").
		WithArgs("prop-1").
		WillReturnRows(proposalRows("buyer-1", "seller-1", models.ProposalPending))
	mock.ExpectExec("UPDATE proposals SET status").
		WithArgs(models.ProposalRejected, "prop-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// The sender refusing their own proposal withdraws it.
	c, w := newTestContext(t, http.MethodPost, "/v1/chat/proposals/prop-1/refuse", "buyer-1", "")
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	h.RefuseProposal(c)

	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"status":"rejected"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptProposalForbiddenForSender(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM proposals").
		WithArgs("prop-1").
		WillReturnRows(proposalRows("buyer-1", "seller-1", models.ProposalPending))
	mock.ExpectRollback()

	// The buyer sent the proposal; they cannot accept it themselves.
	c, w := newTestContext(t, http.MethodPost, "/v1/chat/proposals/prop-1/accept", "buyer-1", "")
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	h.AcceptProposal(c)

	assertStatus(t, w, http.StatusForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptProposalForbiddenForStranger(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM proposals").
		WithArgs("prop-1").
		WillReturnRows(proposalRows("buyer-1", "seller-1", models.ProposalPending))
	mock.ExpectRollback()

	c, w := newTestContext(t, http.MethodPost, "/v1/chat/proposals/prop-1/accept", "intruder-9", "")
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	h.AcceptProposal(c)

	assertStatus(t, w, http.StatusForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptProposalAlreadySettled(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM proposals").
		WithArgs("prop-1").
		WillReturnRows(proposalRows("buyer-1", "seller-1", models.ProposalRejected))
	mock.ExpectRollback()

	// Terminal statuses are final; a refused proposal cannot be accepted.
	c, w := newTestContext(t, http.MethodPost, "/v1/chat/proposals/prop-1/accept", "seller-1", "")
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}

	h.AcceptProposal(c)

	assertStatus(t, w, http.StatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptProposalNotFound(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM proposals").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "conversation_id", "sender_id", "receiver_id", "proposed_price", "status", "created_at",
		}))
	mock.ExpectRollback()

	c, w := newTestContext(t, http.MethodPost, "/v1/chat/proposals/missing/accept", "seller-1", "")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.AcceptProposal(c)

	assertStatus(t, w, http.StatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func fullItemRows(ownerID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "category_id", "title", "slug", "description", "price", "currency", "image_url", "is_sold", "created_at", "updated_at",
	}).AddRow("item-1", ownerID, nil, "Phone", "phone-abc", nil, 2100.0, "AED", nil, false, time.Now(), time.Now())
}

func TestSendMessageCreatesConversation(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	// The sender does not own the item, so they are the buyer and the item
	// owner receives the message.
	mock.ExpectQuery("SELECT (.+) FROM items").
		WithArgs("item-1").
		WillReturnRows(fullItemRows("seller-1"))
	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs("buyer-1", "seller-1", "item-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer_id", "seller_id", "item_id", "created_at", "updated_at"}))
	mock.ExpectExec("INSERT INTO conversations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO messages").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE conversations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"itemId":"item-1","message":"Is this still available?"}`
	c, w := newTestContext(t, http.MethodPost, "/v1/chat/messages", "buyer-1", body)

	h.SendMessage(c)

	assertStatus(t, w, http.StatusCreated)
	assert.Contains(t, w.Body.String(), `"senderId":"buyer-1"`)
	assert.Contains(t, w.Body.String(), `"receiverId":"seller-1"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendMessageOwnerNeedsReceiver(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM items").
		WithArgs("item-1").
		WillReturnRows(fullItemRows("seller-1"))
	mock.ExpectRollback()

	// The owner is writing about their own item without naming the buyer.
	body := `{"itemId":"item-1","message":"Thanks for your interest"}`
	c, w := newTestContext(t, http.MethodPost, "/v1/chat/messages", "seller-1", body)

	h.SendMessage(c)

	assertStatus(t, w, http.StatusBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendMessageRequiresExactlyOneAddress(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	// Both itemId and conversationId given.
	body := `{"itemId":"item-1","conversationId":"conv-1","message":"hello"}`
	c, w := newTestContext(t, http.MethodPost, "/v1/chat/messages", "buyer-1", body)

	h.SendMessage(c)

	assertStatus(t, w, http.StatusBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}
