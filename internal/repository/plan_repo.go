package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// GormPlanRepo はgormを使用した活動参加申請リポジトリ。
type GormPlanRepo struct {
	db *gorm.DB
}

// NewGormPlanRepo はGormPlanRepoを生成する。
func NewGormPlanRepo(db *gorm.DB) *GormPlanRepo {
	return &GormPlanRepo{db: db}
}

// Create は参加申請を作成する。
// 同一ユーザー・同一活動の重複申請は重複エラーとして返す。
func (r *GormPlanRepo) Create(ctx context.Context, plan *model.ActivityPlan) error {
	err := r.db.WithContext(ctx).Create(plan).Error
	return translateWriteError(err, "failed to insert plan", "already joined this activity")
}

// FindByID は指定IDの参加申請を取得する。見つからない場合はnilを返す。
func (r *GormPlanRepo) FindByID(ctx context.Context, id string) (*model.ActivityPlan, error) {
	plan := &model.ActivityPlan{}
	err := r.db.WithContext(ctx).Preload("Activity").Preload("User").
		First(plan, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return plan, nil
}

// ListByUser は指定ユーザーの参加申請を作成日時の降順で取得する。
func (r *GormPlanRepo) ListByUser(ctx context.Context, userID string) ([]model.ActivityPlan, error) {
	var plans []model.ActivityPlan
	err := r.db.WithContext(ctx).Preload("Activity").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans by user: %w", err)
	}
	return plans, nil
}

// ListByActivity は指定活動の参加申請を取得する。
func (r *GormPlanRepo) ListByActivity(ctx context.Context, activityID string) ([]model.ActivityPlan, error) {
	var plans []model.ActivityPlan
	err := r.db.WithContext(ctx).Preload("User").
		Where("activity_id = ?", activityID).
		Order("created_at").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans by activity: %w", err)
	}
	return plans, nil
}

// UpdateStatus は参加申請の状態を更新する。
// fromで現在の状態を指定し、状態遷移が競合した場合は未検出エラーを返す
// （承認の二重適用による活動時間の重複加算を防ぐ）。
func (r *GormPlanRepo) UpdateStatus(ctx context.Context, id string, from, to model.PlanStatus) error {
	res := r.db.WithContext(ctx).Model(&model.ActivityPlan{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to update plan status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}

// AttachEvidence は参加申請に証憑ファイルを添付する。
func (r *GormPlanRepo) AttachEvidence(ctx context.Context, id, fileID string) error {
	res := r.db.WithContext(ctx).Model(&model.ActivityPlan{}).
		Where("id = ?", id).
		Update("evidence_file_id", fileID)
	if res.Error != nil {
		return translateWriteError(res.Error, "failed to attach evidence")
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}
