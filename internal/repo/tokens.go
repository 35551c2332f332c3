package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// revoke inserts the jti unless it is already present and reports whether
// this call was the one that revoked it.
func revoke(tx *gorm.DB, jti string, expiresAt time.Time) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.RevokedToken{
		JTI:       jti,
		RevokedAt: time.Now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	return revoke(r.DB.WithContext(ctx), jti, expiresAt)
}

func (r *GormRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var rows []models.RevokedToken
	res := r.DB.WithContext(ctx).Select("jti").Where("jti = ?", jti).Limit(1).Find(&rows)
	if res.Error != nil {
		return false, res.Error
	}
	return len(rows) > 0, nil
}

type TokenRef struct {
	JTI       string
	ExpiresAt time.Time
}

type RotateParams struct {
	Username     string
	SessionID    string
	OldRefresh   TokenRef
	OldAccess    *TokenRef
	NewTokenHash string
	NewExpiresAt time.Time
	CheckSession bool
}

// RotateRefresh revokes the presented refresh token and, when sessions are
// tracked, moves the user's session onto the new refresh token. Two callers
// racing with the same refresh token cannot both succeed.
func (r *GormRepo) RotateRefresh(ctx context.Context, p RotateParams) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.CheckSession {
			res := tx.Model(&models.Session{}).
				Where("username = ? AND session_id = ?", p.Username, p.SessionID).
				Updates(map[string]any{"token_hash": p.NewTokenHash, "expires_at": p.NewExpiresAt.UTC()})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrStaleSession
			}
		}

		inserted, err := revoke(tx, p.OldRefresh.JTI, p.OldRefresh.ExpiresAt)
		if err != nil {
			return err
		}
		if !inserted {
			return ErrAlreadyRevoked
		}

		if p.OldAccess != nil && p.OldAccess.JTI != "" {
			if _, err := revoke(tx, p.OldAccess.JTI, p.OldAccess.ExpiresAt); err != nil {
				return err
			}
		}
		return nil
	})
}

type LogoutParams struct {
	Username  string
	SessionID string
	Revoke    []TokenRef
}

func (r *GormRepo) Logout(ctx context.Context, p LogoutParams) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range p.Revoke {
			if t.JTI == "" {
				continue
			}
			if _, err := revoke(tx, t.JTI, t.ExpiresAt); err != nil {
				return err
			}
		}
		if p.Username != "" && p.SessionID != "" {
			return tx.Where("username = ? AND session_id = ?", p.Username, p.SessionID).Delete(&models.Session{}).Error
		}
		return nil
	})
}
