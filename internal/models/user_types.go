package models

import (
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User model. Pointers are used for nullable columns so the JSON stays clean.
type User struct {
	ID           string `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Country      string `json:"country" db:"country"`

	// Required for users registered in the UAE.
	EmirateID *string `json:"emirateId,omitempty" db:"emirate_id"`

	IsActive bool `json:"isActive" db:"is_active"`
	IsAdmin  bool `json:"isAdmin" db:"is_admin"`

	ActivationKey *string   `json:"-" db:"activation_key"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var emirateIDPattern = regexp.MustCompile(`^784-\d{4}-\d{7}-\d{1}$`)

// ValidateEmirateID checks the national ID format 784-XXXX-XXXXXXX-X.
func ValidateEmirateID(id string) bool {
	return emirateIDPattern.MatchString(id)
}

// countryCodes is the set of ISO 3166-1 alpha-3 codes we accept at
// registration. Kept to the markets the platform ships to.
var countryCodes = map[string]bool{
	"ARE": true, "BHR": true, "EGY": true, "FRA": true, "GBR": true,
	"IND": true, "JOR": true, "KWT": true, "LBN": true, "OMN": true,
	"PAK": true, "PHL": true, "QAT": true, "SAU": true, "USA": true,
}

// ValidateCountryCode reports whether code is a supported alpha-3 code.
func ValidateCountryCode(code string) bool {
	return countryCodes[code]
}
