package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessJTI    string
	RefreshJTI   string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (i *Issuer) Issue(subject, role, sessionID string, now time.Time) (*Pair, error) {
	accessExp := now.Add(i.AccessTTL)
	accessJTI := NewJTI()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        accessJTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	accessToken, err := access.SignedString(i.AccessSecret)
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(i.RefreshTTL)
	refreshJTI := NewJTI()
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        refreshJTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	refreshToken, err := refresh.SignedString(i.RefreshSecret)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessJTI:    accessJTI,
		RefreshJTI:   refreshJTI,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}
