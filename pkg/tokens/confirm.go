package tokens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const PurposeEmailConfirm = "email_confirm"

var ErrTokenTooOld = errors.New("token older than max age")

type ConfirmClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func NewConfirmToken(secret []byte, email string, issuedAt time.Time, maxAge time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, ConfirmClaims{
		Email:   strings.ToLower(email),
		Purpose: PurposeEmailConfirm,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        NewJTI(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(maxAge)),
		},
	})
	return t.SignedString(secret)
}

// ConfirmClaimsFromToken checks the signature, the purpose marker and that
// the token was issued no more than maxAge before now.
func ConfirmClaimsFromToken(tokenStr string, secret []byte, now time.Time, maxAge time.Duration) (*ConfirmClaims, error) {
	var claims ConfirmClaims
	err := parse(tokenStr, &claims, secret,
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeEmailConfirm || claims.Email == "" {
		return nil, fmt.Errorf("%w: wrong purpose", ErrInvalidToken)
	}
	if claims.IssuedAt == nil || now.Sub(claims.IssuedAt.Time) > maxAge {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenTooOld)
	}
	return &claims, nil
}
