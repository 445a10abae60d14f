package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgresに保存する（複数インスタンスで共有する場合）
type StateGormRepository struct {
	db *gorm.DB
}

// DI
func NewStateGormRepository(db *gorm.DB) *StateGormRepository {
	return &StateGormRepository{db: db}
}

func (r *StateGormRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var s model.LocalState

	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&s).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Value, nil
}

// 同じキーは上書き（最後の書き込みが勝つ）
func (r *StateGormRepository) Set(ctx context.Context, key string, value []byte) error {
	s := model.LocalState{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}

func (r *StateGormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&model.LocalState{}).Error
}
