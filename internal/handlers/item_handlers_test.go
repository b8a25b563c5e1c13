package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "category_id", "title", "slug", "description", "price", "currency", "image_url", "is_sold", "created_at", "updated_at",
	}).AddRow("item-1", "seller-1", nil, "Phone", "phone-item1", nil, 2100.0, "AED", nil, false, time.Now(), time.Now())
}

func TestGetItemServesFromCacheOnSecondHit(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	// Only one database query is expected across two requests.
	mock.ExpectQuery("SELECT (.+) FROM items").
		WithArgs("item-1").
		WillReturnRows(itemRows())

	for i := 0; i < 2; i++ {
		c, w := newTestContext(t, http.MethodGet, "/v1/items/item-1", "", "")
		c.Params = gin.Params{{Key: "id", Value: "item-1"}}

		h.GetItem(c)

		assertStatus(t, w, http.StatusOK)
		assert.Contains(t, w.Body.String(), `"slug":"phone-item1"`)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItemNotFound(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectQuery("SELECT (.+) FROM items").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "category_id", "title", "slug", "description", "price", "currency", "image_url", "is_sold", "created_at", "updated_at",
		}))

	c, w := newTestContext(t, http.MethodGet, "/v1/items/missing", "", "")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.GetItem(c)

	assertStatus(t, w, http.StatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemOnlyOwner(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	mock.ExpectQuery("SELECT (.+) FROM items").
		WithArgs("item-1").
		WillReturnRows(itemRows())

	c, w := newTestContext(t, http.MethodPatch, "/v1/items/item-1", "intruder-9", `{"price":1}`)
	c.Params = gin.Params{{Key: "id", Value: "item-1"}}

	h.UpdateItem(c)

	assertStatus(t, w, http.StatusForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemRejectsSold(t *testing.T) {
	h, mock, _ := newTestHandlers(t)

	sold := sqlmock.NewRows([]string{
		"id", "user_id", "category_id", "title", "slug", "description", "price", "currency", "image_url", "is_sold", "created_at", "updated_at",
	}).AddRow("item-1", "seller-1", nil, "Phone", "phone-item1", nil, 2100.0, "AED", nil, true, time.Now(), time.Now())

	mock.ExpectQuery("SELECT (.+) FROM items").
		WithArgs("item-1").
		WillReturnRows(sold)

	c, w := newTestContext(t, http.MethodPatch, "/v1/items/item-1", "seller-1", `{"price":1800}`)
	c.Params = gin.Params{{Key: "id", Value: "item-1"}}

	h.UpdateItem(c)

	assertStatus(t, w, http.StatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchItemsRejectsBadPriceFilter(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	c, w := newTestContext(t, http.MethodGet, "/v1/items?min_price=abc", "", "")

	h.SearchItems(c)

	assertStatus(t, w, http.StatusBadRequest)
}
