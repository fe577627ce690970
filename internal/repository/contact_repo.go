package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// GormContactRepo はgormを使用した問い合わせメッセージリポジトリ。
type GormContactRepo struct {
	db *gorm.DB
}

// NewGormContactRepo はGormContactRepoを生成する。
func NewGormContactRepo(db *gorm.DB) *GormContactRepo {
	return &GormContactRepo{db: db}
}

// Create は問い合わせメッセージを作成する。
func (r *GormContactRepo) Create(ctx context.Context, msg *model.ContactMessage) error {
	err := r.db.WithContext(ctx).Create(msg).Error
	return translateWriteError(err, "failed to insert contact message")
}

// List は全問い合わせメッセージを作成日時の降順で取得する。
func (r *GormContactRepo) List(ctx context.Context) ([]model.ContactMessage, error) {
	var msgs []model.ContactMessage
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return msgs, nil
}
