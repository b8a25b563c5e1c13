package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCreateReview(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectQuery("SELECT 1 FROM items").
		WithArgs("item-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM reviews").
		WithArgs("item-1", "buyer-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"itemId":"item-1","rating":5,"comment":"Exactly as described"}`
	c, w := newTestContext(t, http.MethodPost, "/v1/reviews", "buyer-1", body)

	h.CreateReview(c)

	assertStatus(t, w, http.StatusCreated)
	assert.Contains(t, w.Body.String(), `"rating":5`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectQuery("SELECT 1 FROM items").
		WithArgs("item-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM reviews").
		WithArgs("item-1", "buyer-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	body := `{"itemId":"item-1","rating":4}`
	c, w := newTestContext(t, http.MethodPost, "/v1/reviews", "buyer-1", body)

	h.CreateReview(c)

	assertStatus(t, w, http.StatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewRejectsUnknownItem(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectQuery("SELECT 1 FROM items").
		WithArgs("item-404").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	body := `{"itemId":"item-404","rating":3}`
	c, w := newTestContext(t, http.MethodPost, "/v1/reviews", "buyer-1", body)

	h.CreateReview(c)

	assertStatus(t, w, http.StatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewRejectsOutOfRangeRating(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	body := `{"itemId":"item-1","rating":6}`
	c, w := newTestContext(t, http.MethodPost, "/v1/reviews", "buyer-1", body)

	h.CreateReview(c)

	assertStatus(t, w, http.StatusBadRequest)
}

func reviewRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "item_id", "rating", "comment", "created_at"})
}

func TestListItemReviewsAverages(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("item-1", 20, 0).
		WillReturnRows(reviewRows().
			AddRow("rev-2", "buyer-2", "item-1", 5, nil, now).
			AddRow("rev-1", "buyer-1", "item-1", 2, "Scratched corner", now.Add(-time.Hour)))

	c, w := newTestContext(t, http.MethodGet, "/v1/reviews/item/item-1", "", "")
	c.Params = gin.Params{{Key: "item_id", Value: "item-1"}}

	h.ListItemReviews(c)

	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"averageRating":3.5`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReviewRejectsNonAuthor(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("rev-1").
		WillReturnRows(reviewRows().
			AddRow("rev-1", "buyer-1", "item-1", 4, nil, time.Now()))

	body := `{"rating":1}`
	c, w := newTestContext(t, http.MethodPut, "/v1/reviews/rev-1", "intruder-9", body)
	c.Params = gin.Params{{Key: "id", Value: "rev-1"}}

	h.UpdateReview(c)

	assertStatus(t, w, http.StatusForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReviewScopedToAuthor(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectExec("DELETE FROM reviews").
		WithArgs("rev-1", "intruder-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, w := newTestContext(t, http.MethodDelete, "/v1/reviews/rev-1", "intruder-9", "")
	c.Params = gin.Params{{Key: "id", Value: "rev-1"}}

	h.DeleteReview(c)

	assertStatus(t, w, http.StatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
