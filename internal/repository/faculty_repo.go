package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// GormFacultyRepo はgormを使用した学部リポジトリ。
type GormFacultyRepo struct {
	db *gorm.DB
}

// NewGormFacultyRepo はGormFacultyRepoを生成する。
func NewGormFacultyRepo(db *gorm.DB) *GormFacultyRepo {
	return &GormFacultyRepo{db: db}
}

// Create は学部を作成する。名称の重複は重複エラーとして返す。
func (r *GormFacultyRepo) Create(ctx context.Context, faculty *model.Faculty) error {
	err := r.db.WithContext(ctx).Create(faculty).Error
	return translateWriteError(err, "failed to insert faculty", "faculty name already exists")
}

// FindByID は指定IDの学部を取得する。見つからない場合はnilを返す。
func (r *GormFacultyRepo) FindByID(ctx context.Context, id string) (*model.Faculty, error) {
	faculty := &model.Faculty{}
	err := r.db.WithContext(ctx).First(faculty, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find faculty: %w", err)
	}
	return faculty, nil
}

// List は全学部を名称順で取得する。
func (r *GormFacultyRepo) List(ctx context.Context) ([]model.Faculty, error) {
	var faculties []model.Faculty
	if err := r.db.WithContext(ctx).Order("name").Find(&faculties).Error; err != nil {
		return nil, fmt.Errorf("failed to list faculties: %w", err)
	}
	return faculties, nil
}

// Update は学部を更新する。
func (r *GormFacultyRepo) Update(ctx context.Context, faculty *model.Faculty) error {
	err := r.db.WithContext(ctx).Save(faculty).Error
	return translateWriteError(err, "failed to update faculty", "faculty name already exists")
}

// Delete は学部を削除する。対象が存在しない場合は未検出エラーを返す。
func (r *GormFacultyRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Faculty{}, "id = ?", id)
	if res.Error != nil {
		return translateWriteError(res.Error, "failed to delete faculty")
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}
