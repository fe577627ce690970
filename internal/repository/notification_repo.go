package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// GormNotificationRepo はgormを使用した通知リポジトリ。
type GormNotificationRepo struct {
	db *gorm.DB
}

// NewGormNotificationRepo はGormNotificationRepoを生成する。
func NewGormNotificationRepo(db *gorm.DB) *GormNotificationRepo {
	return &GormNotificationRepo{db: db}
}

// Create は通知を作成する。
func (r *GormNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	err := r.db.WithContext(ctx).Create(n).Error
	return translateWriteError(err, "failed to insert notification")
}

// ListByUser は指定ユーザーの通知を作成日時の降順で取得する。
func (r *GormNotificationRepo) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead は指定ユーザーの通知を既読にする。
// 他ユーザー宛の通知は対象外となり未検出エラーを返す。
func (r *GormNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}
