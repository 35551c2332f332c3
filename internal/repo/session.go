package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// ReplaceSession drops any previous session of the user and stores s in
// the same transaction. username is the primary key and the insert upserts,
// so concurrent logins leave exactly one row: the last writer's.
func (r *GormRepo) ReplaceSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", s.Username).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			UpdateAll: true,
		}).Create(s).Error
	})
}

func (r *GormRepo) GetSession(ctx context.Context, username string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("username = ?", username).Take(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormRepo) SessionActive(ctx context.Context, username, sessionID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("username = ? AND session_id = ?", username, sessionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
