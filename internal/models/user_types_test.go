package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmirateID(t *testing.T) {
	assert.True(t, ValidateEmirateID("784-1990-1234567-1"))
	assert.True(t, ValidateEmirateID("784-2005-0000001-9"))

	assert.False(t, ValidateEmirateID("123-1990-1234567-1"), "must start with 784")
	assert.False(t, ValidateEmirateID("784-199-1234567-1"))
	assert.False(t, ValidateEmirateID("784-1990-123456-1"))
	assert.False(t, ValidateEmirateID("784-1990-1234567-12"))
	assert.False(t, ValidateEmirateID("784199012345671"), "dashes are required")
	assert.False(t, ValidateEmirateID(""))
}

func TestValidateCountryCode(t *testing.T) {
	assert.True(t, ValidateCountryCode("ARE"))
	assert.True(t, ValidateCountryCode("IND"))
	assert.True(t, ValidateCountryCode("GBR"))

	assert.False(t, ValidateCountryCode("are"), "codes are upper case")
	assert.False(t, ValidateCountryCode("AE"), "alpha-2 codes are rejected")
	assert.False(t, ValidateCountryCode("ZZZ"))
	assert.False(t, ValidateCountryCode(""))
}

func TestPasswordSetAndMatches(t *testing.T) {
	var p Password
	assert.NoError(t, p.Set("correct horse battery staple"))
	assert.NotEmpty(t, p.Hash)
	assert.NotEqual(t, "correct horse battery staple", p.Hash)

	ok, err := p.Matches("correct horse battery staple")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches("wrong password")
	assert.NoError(t, err)
	assert.False(t, ok)
}
