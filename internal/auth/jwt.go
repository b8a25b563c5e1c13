package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The signing key and token lifetime are set once at startup from config.
var (
	jwtSecretKey []byte
	tokenExpiry  = 72 * time.Hour
)

// Init configures the package-level signing key and token lifetime. It must
// be called before any token is generated or validated. A zero expiry keeps
// the default lifetime; any other value is honored as given.
func Init(secret string, expiry time.Duration) {
	jwtSecretKey = []byte(secret)
	if expiry != 0 {
		tokenExpiry = expiry
	}
}

// GenerateToken creates a new JWT for a given user ID.
func GenerateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,                               // subject is the user ID
		"exp": time.Now().Add(tokenExpiry).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the user ID (subject) if the token is valid.
func ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecretKey, nil
	})
	if err != nil {
		return "", err // parsing failed (expired, malformed, bad signature)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["sub"].(string)
		if !ok {
			return "", errors.New("invalid subject claim")
		}
		return userID, nil
	}

	return "", errors.New("invalid token")
}
