package repository

import (
	"context"
	"errors"

	"telefonia/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultSettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *DefaultSettingRepository {
	return &DefaultSettingRepository{db: db}
}

// IntValue returns the numeric value for a settings key. The second return
// reports whether the key exists, so callers can fall back to a default.
func (s *DefaultSettingRepository) IntValue(ctx context.Context, key string) (int, bool, error) {
	var setting entity.Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return setting.Value, true, nil
}
