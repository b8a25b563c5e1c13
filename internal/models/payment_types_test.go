package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCardNumber(t *testing.T) {
	assert.True(t, ValidateCardNumber("424242424242"))
	assert.True(t, ValidateCardNumber("4242424242424242"))
	assert.True(t, ValidateCardNumber("4242424242424242424"))

	assert.False(t, ValidateCardNumber("42424242424"), "11 digits is too short")
	assert.False(t, ValidateCardNumber("42424242424242424242"), "20 digits is too long")
	assert.False(t, ValidateCardNumber("4242 4242 4242 4242"), "spaces are not allowed")
	assert.False(t, ValidateCardNumber("4242-4242-4242-4242"))
	assert.False(t, ValidateCardNumber(""))
}

func TestValidateExpiryDate(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	assert.True(t, ValidateExpiryDate("09/26", now))
	assert.True(t, ValidateExpiryDate("08/26", now), "a card is valid through the end of its expiry month")
	assert.True(t, ValidateExpiryDate("01/30", now))

	assert.False(t, ValidateExpiryDate("07/26", now), "last month is expired")
	assert.False(t, ValidateExpiryDate("12/25", now))
	assert.False(t, ValidateExpiryDate("13/27", now), "month 13 does not exist")
	assert.False(t, ValidateExpiryDate("00/27", now))
	assert.False(t, ValidateExpiryDate("8/26", now), "month must be two digits")
	assert.False(t, ValidateExpiryDate("08/2026", now))
	assert.False(t, ValidateExpiryDate("", now))
}

func TestValidCardType(t *testing.T) {
	assert.True(t, ValidCardType(CardVisa))
	assert.True(t, ValidCardType(CardMastercard))
	assert.True(t, ValidCardType(CardAmex))
	assert.True(t, ValidCardType(CardDiscover))

	assert.False(t, ValidCardType("visa"), "brand names are case sensitive")
	assert.False(t, ValidCardType("UnionPay"))
	assert.False(t, ValidCardType(""))
}
