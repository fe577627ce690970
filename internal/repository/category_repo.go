package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// GormCategoryRepo はgormを使用した活動カテゴリリポジトリ。
type GormCategoryRepo struct {
	db *gorm.DB
}

// NewGormCategoryRepo はGormCategoryRepoを生成する。
func NewGormCategoryRepo(db *gorm.DB) *GormCategoryRepo {
	return &GormCategoryRepo{db: db}
}

// Create はカテゴリを作成する。名称の重複は重複エラーとして返す。
func (r *GormCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	return translateWriteError(err, "failed to insert category", "category name already exists")
}

// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *GormCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	category := &model.Category{}
	err := r.db.WithContext(ctx).First(category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return category, nil
}

// List は全カテゴリを名称順で取得する。
func (r *GormCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Update はカテゴリを更新する。
func (r *GormCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	err := r.db.WithContext(ctx).Save(category).Error
	return translateWriteError(err, "failed to update category", "category name already exists")
}

// Delete はカテゴリを削除する。対象が存在しない場合は未検出エラーを返す。
func (r *GormCategoryRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Category{}, "id = ?", id)
	if res.Error != nil {
		return translateWriteError(res.Error, "failed to delete category")
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}
