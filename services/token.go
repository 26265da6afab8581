package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quizio/errs"
)

// tokenTTL is the validity window of a session token. Tokens are stateless:
// there is no server-side revocation, they simply age out.
const tokenTTL = 7 * 24 * time.Hour

// TokenIssuer signs and verifies session tokens bound to a user id.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: tokenTTL}
}

// Issue mints a signed token for userID, valid for the full token window.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", errs.Wrap(err, errs.CodeInternal, "Failed to sign token")
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the subject user id.
// Malformed, tampered and expired tokens all fail the same way; callers
// are not told which.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errs.Wrap(err, errs.CodeUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errs.New(errs.CodeUnauthorized, "Invalid or expired token")
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return "", errs.New(errs.CodeUnauthorized, "Invalid or expired token")
	}

	return userID, nil
}
