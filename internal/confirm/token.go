// Package confirm issues and verifies the signed tokens that accompany a
// finished transcript, tying a confirm/reject request to one job and owner.
package confirm

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the token claims: the job id travels as the subject.
type Claims struct {
	OwnerID int64 `json:"owner_id"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies confirmation tokens with an HMAC secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token service. ttl bounds how long a delivered result
// can still be confirmed or rejected.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for one job and owner.
func (t *Tokens) Issue(jobID uuid.UUID, ownerID int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		OwnerID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   jobID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign confirmation token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the job id and owner id it was issued
// for.
func (t *Tokens) Verify(tokenString string) (uuid.UUID, int64, error) {
	if tokenString == "" {
		return uuid.Nil, 0, fmt.Errorf("confirmation token is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("failed to parse confirmation token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, 0, fmt.Errorf("confirmation token is not valid")
	}

	jobID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("confirmation token has invalid job id: %w", err)
	}
	return jobID, claims.OwnerID, nil
}
