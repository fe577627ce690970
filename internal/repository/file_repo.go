package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// GormFileRepo はgormを使用したファイルメタデータリポジトリ。
type GormFileRepo struct {
	db *gorm.DB
}

// NewGormFileRepo はGormFileRepoを生成する。
func NewGormFileRepo(db *gorm.DB) *GormFileRepo {
	return &GormFileRepo{db: db}
}

// Create はファイルメタデータを作成する。
func (r *GormFileRepo) Create(ctx context.Context, file *model.StoredFile) error {
	err := r.db.WithContext(ctx).Create(file).Error
	return translateWriteError(err, "failed to insert file")
}

// FindByID は指定IDのファイルメタデータを取得する。見つからない場合はnilを返す。
func (r *GormFileRepo) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	file := &model.StoredFile{}
	err := r.db.WithContext(ctx).First(file, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find file: %w", err)
	}
	return file, nil
}

// ListByOwner は指定ユーザーのファイルを作成日時の降順で取得する。
func (r *GormFileRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.StoredFile, error) {
	var files []model.StoredFile
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Delete はファイルメタデータを削除する。対象が存在しない場合は未検出エラーを返す。
func (r *GormFileRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.StoredFile{}, "id = ?", id)
	if res.Error != nil {
		return translateWriteError(res.Error, "failed to delete file")
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}
