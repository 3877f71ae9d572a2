package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an identity token: who, and when it was issued.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// TokenCodec signs and verifies identity tokens with a process-wide secret.
// Tokens carry no expiry; validity is bounded per-user by OldestValidIssue.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a codec signing with the given secret
func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret}
}

// Issue returns a signed token for the user, stamped with the current time.
func (c *TokenCodec) Issue(userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses and checks the signature, returning the embedded claims.
// Any failure (missing token, malformed payload, bad signature) yields
// ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
