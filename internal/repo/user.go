package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *GormRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *GormRepo) exists(ctx context.Context, where string, arg any) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where(where, arg).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) MarkVerified(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Take(&user).Error; err != nil {
			return err
		}
		if user.IsVerified {
			return nil
		}
		user.IsVerified = true
		return tx.Model(&models.User{}).Where("username = ?", user.Username).Update("is_verified", true).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) setFlag(ctx context.Context, username, column string, value bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBanned flips the ban flag; banning also drops the user's live session.
func (r *GormRepo) SetBanned(ctx context.Context, username string, banned bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &GormRepo{DB: tx}
		if err := txRepo.setFlag(ctx, username, "is_banned", banned); err != nil {
			return err
		}
		if banned {
			return tx.Where("username = ?", username).Delete(&models.Session{}).Error
		}
		return nil
	})
}

func (r *GormRepo) SetAdmin(ctx context.Context, username string, admin bool) error {
	return r.setFlag(ctx, username, "is_admin", admin)
}

func (r *GormRepo) UpdateProfile(ctx context.Context, username string, fields map[string]any) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).Take(&user).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("username = ?", username).Take(&user).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

type DeletedUser struct {
	PictureKeys []string
	ProductIDs  []uint
}

// DeleteUser removes the user with everything that references it.
func (r *GormRepo) DeleteUser(ctx context.Context, username string) (*DeletedUser, error) {
	out := &DeletedUser{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("username = ?", username).Take(&user).Error; err != nil {
			return err
		}
		if user.Picture != "" {
			out.PictureKeys = append(out.PictureKeys, user.Picture)
		}

		if err := tx.Model(&models.Product{}).Where("user_username = ?", username).Pluck("id", &out.ProductIDs).Error; err != nil {
			return err
		}
		if len(out.ProductIDs) > 0 {
			var keys []string
			if err := tx.Model(&models.Picture{}).Where("product_id IN ?", out.ProductIDs).Pluck("filename", &keys).Error; err != nil {
				return err
			}
			out.PictureKeys = append(out.PictureKeys, keys...)
			if err := tx.Where("product_id IN ?", out.ProductIDs).Delete(&models.Picture{}).Error; err != nil {
				return err
			}
			if err := tx.Where("reported_product IN ?", out.ProductIDs).Delete(&models.ProductReport{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", out.ProductIDs).Delete(&models.Product{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("reporter_username = ?", username).Delete(&models.ProductReport{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reported_user = ? OR reporter_username = ?", username, username).Delete(&models.UserReport{}).Error; err != nil {
			return err
		}
		if err := tx.Where("username = ?", username).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Where("username = ?", username).Delete(&models.User{}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
