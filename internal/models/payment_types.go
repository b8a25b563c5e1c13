package models

import (
	"regexp"
	"time"
)

// Card types accepted at checkout.
const (
	CardVisa       = "Visa"
	CardMastercard = "MasterCard"
	CardAmex       = "American Express"
	CardDiscover   = "Discover"
)

// PaymentMethod is a stored card. The number is hashed; only the last four
// digits are kept in clear for display.
type PaymentMethod struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"userId" db:"user_id"`
	CardType       string    `json:"cardType" db:"card_type"`
	CardNumberHash string    `json:"-" db:"card_number_hash"`
	CardLast4      string    `json:"cardLast4" db:"card_last4"`
	ExpiryDate     string    `json:"expiryDate" db:"expiry_date"`
	HolderName     string    `json:"holderName" db:"holder_name"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// BillingAddress is the address snapshot attached to orders.
type BillingAddress struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	Street     string    `json:"street" db:"street"`
	City       string    `json:"city" db:"city"`
	State      *string   `json:"state,omitempty" db:"state"`
	Country    string    `json:"country" db:"country"`
	PostalCode string    `json:"postalCode" db:"postal_code"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{12,19}$`)
	expiryDatePattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
)

// ValidateCardNumber accepts digit-only numbers of 12 to 19 characters.
func ValidateCardNumber(number string) bool {
	return cardNumberPattern.MatchString(number)
}

// ValidateExpiryDate checks the MM/YY format and that the date is not in the
// past.
func ValidateExpiryDate(expiry string, now time.Time) bool {
	if !expiryDatePattern.MatchString(expiry) {
		return false
	}
	parsed, err := time.Parse("01/06", expiry)
	if err != nil {
		return false
	}
	// A card is valid through the end of its expiry month.
	endOfMonth := parsed.AddDate(0, 1, 0)
	return now.Before(endOfMonth)
}

// ValidCardType reports whether t is one of the accepted card brands.
func ValidCardType(t string) bool {
	switch t {
	case CardVisa, CardMastercard, CardAmex, CardDiscover:
		return true
	}
	return false
}
