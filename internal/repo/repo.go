package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate key")
	ErrAlreadyRevoked = errors.New("token already revoked")
	ErrStaleSession   = errors.New("session no longer active")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Migrate creates or updates every table the repository uses.
func (r *GormRepo) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}

// isUniqueViolation also matches raw driver messages for dialects that do not
// translate errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
