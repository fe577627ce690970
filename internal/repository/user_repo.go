package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

// GormUserRepo はgormを使用したユーザーリポジトリ。
type GormUserRepo struct {
	db *gorm.DB
}

// NewGormUserRepo はGormUserRepoを生成する。
func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

// Create はユーザーを作成する。
// メールアドレス・学籍番号の重複は重複エラーとして返す。
func (r *GormUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	return translateWriteError(err, "failed to insert user",
		"email or studentId already exists")
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *GormUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.WithContext(ctx).Preload("Faculty").First(user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
func (r *GormUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.WithContext(ctx).First(user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// List は全ユーザーを作成日時の降順で取得する。
func (r *GormUserRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Preload("Faculty").Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update はユーザーの属性を更新する。
func (r *GormUserRepo) Update(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	return translateWriteError(err, "failed to update user",
		"email or studentId already exists")
}

// Delete はユーザーを削除する。対象が存在しない場合は未検出エラーを返す。
func (r *GormUserRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}

// AddHours はユーザーの累計活動時間を加算する。
func (r *GormUserRepo) AddHours(ctx context.Context, id string, hours int) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("total_hours", gorm.Expr("total_hours + ?", hours))
	if res.Error != nil {
		return fmt.Errorf("failed to add hours: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError()
	}
	return nil
}
