package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// GormActivityRepo はgormを使用した活動リポジトリ。
type GormActivityRepo struct {
	db *gorm.DB
}

// NewGormActivityRepo はGormActivityRepoを生成する。
func NewGormActivityRepo(db *gorm.DB) *GormActivityRepo {
	return &GormActivityRepo{db: db}
}

// Create は活動を作成する。
func (r *GormActivityRepo) Create(ctx context.Context, activity *model.Activity) error {
	err := r.db.WithContext(ctx).Create(activity).Error
	return translateWriteError(err, "failed to insert activity")
}

// FindByID は指定IDの活動を取得する。見つからない場合はnilを返す。
func (r *GormActivityRepo) FindByID(ctx context.Context, id string) (*model.Activity, error) {
	activity := &model.Activity{}
	err := r.db.WithContext(ctx).Preload("Category").First(activity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find activity: %w", err)
	}
	return activity, nil
}

// List は活動を開始日時の降順で取得する。
// openOnlyがtrueの場合は募集中の活動のみを返す。
func (r *GormActivityRepo) List(ctx context.Context, openOnly bool) ([]model.Activity, error) {
	q := r.db.WithContext(ctx).Preload("Category").Order("start_at DESC")
	if openOnly {
		q = q.Where("open = ?", true)
	}

	var activities []model.Activity
	if err := q.Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// Update は活動を更新する。
func (r *GormActivityRepo) Update(ctx context.Context, activity *model.Activity) error {
	err := r.db.WithContext(ctx).Save(activity).Error
	return translateWriteError(err, "failed to update activity")
}

// Delete は活動を削除する。対象が存在しない場合は未検出エラーを返す。
func (r *GormActivityRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Activity{}, "id = ?", id)
	if res.Error != nil {
		return translateWriteError(res.Error, "failed to delete activity")
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}
