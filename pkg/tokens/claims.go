package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	Role      string `json:"role"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func AccessClaimsFromToken(tokenStr string, accessSecret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(tokenStr, &claims, accessSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(tokenStr, &claims, refreshSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

// AccessClaimsIgnoringExpiry verifies the signature but accepts expired
// tokens, so their jti can still be revoked on logout.
func AccessClaimsIgnoringExpiry(tokenStr string, accessSecret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(tokenStr, &claims, accessSecret, jwt.WithoutClaimsValidation()); err != nil {
		return nil, err
	}
	return &claims, nil
}

func RefreshClaimsIgnoringExpiry(tokenStr string, refreshSecret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(tokenStr, &claims, refreshSecret, jwt.WithoutClaimsValidation()); err != nil {
		return nil, err
	}
	return &claims, nil
}

// parse keeps the jwt error in the chain so callers can still test for jwt.ErrTokenExpired.
func parse(tokenStr string, claims jwt.Claims, secret []byte, opts ...jwt.ParserOption) error {
	if tokenStr == "" {
		return fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return ErrInvalidToken
	}
	return nil
}

func NewJTI() string { return uuid.NewString() }

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
