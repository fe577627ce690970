// Package plan は活動参加申請のドメインサービスを提供する。
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
	"github.com/Emarwalker/project-back-deploy100/internal/realtime"
)

// PlanRepo は参加申請の永続化インターフェース。
type PlanRepo interface {
	Create(ctx context.Context, plan *model.ActivityPlan) error
	FindByID(ctx context.Context, id string) (*model.ActivityPlan, error)
	ListByUser(ctx context.Context, userID string) ([]model.ActivityPlan, error)
	ListByActivity(ctx context.Context, activityID string) ([]model.ActivityPlan, error)
	UpdateStatus(ctx context.Context, id string, from, to model.PlanStatus) error
	AttachEvidence(ctx context.Context, id, fileID string) error
}

// ActivityFinder は活動参照のインターフェース。
type ActivityFinder interface {
	FindByID(ctx context.Context, id string) (*model.Activity, error)
}

// HourCrediter はユーザーへの活動時間加算のインターフェース。
type HourCrediter interface {
	AddHours(ctx context.Context, userID string, hours int) error
}

// NotificationStore は通知の永続化インターフェース。
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

// Service は参加申請の登録・承認・却下を扱うドメインサービス。
// 承認時にはユーザーへ活動時間を加算し、通知を作成してリアルタイム配信する。
type Service struct {
	plans         PlanRepo
	activities    ActivityFinder
	users         HourCrediter
	notifications NotificationStore
	hub           *realtime.Hub
}

// NewService はServiceを生成する。
func NewService(plans PlanRepo, activities ActivityFinder, users HourCrediter, notifications NotificationStore, hub *realtime.Hub) *Service {
	return &Service{
		plans:         plans,
		activities:    activities,
		users:         users,
		notifications: notifications,
		hub:           hub,
	}
}

// Join はユーザーの参加申請を登録する。
// 募集が締め切られた活動への申請は検証エラーを返す。
func (s *Service) Join(ctx context.Context, userID, activityID string) (*model.ActivityPlan, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, model.NewNotFoundError()
	}
	if !activity.Open {
		return nil, model.NewValidationError("activity is not open for enrollment")
	}

	now := time.Now()
	p := &model.ActivityPlan{
		ID:         uuid.NewString(),
		UserID:     userID,
		ActivityID: activityID,
		Status:     model.PlanPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}

	p.Activity = activity
	return p, nil
}

// ListForUser はユーザー自身の参加申請一覧を返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]model.ActivityPlan, error) {
	return s.plans.ListByUser(ctx, userID)
}

// ListForActivity は指定活動の参加申請一覧を返す。
func (s *Service) ListForActivity(ctx context.Context, activityID string) ([]model.ActivityPlan, error) {
	return s.plans.ListByActivity(ctx, activityID)
}

// Approve は参加申請を承認する。
// 承認はpending状態の申請に対してのみ行え、状態遷移を条件付き更新で
// 行うことで活動時間の二重加算を防ぐ。承認後はユーザーに通知を作成する。
func (s *Service) Approve(ctx context.Context, planID string) (*model.ActivityPlan, error) {
	p, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError()
	}
	if p.Status != model.PlanPending {
		return nil, model.NewValidationError("plan has already been reviewed")
	}

	if err := s.plans.UpdateStatus(ctx, planID, model.PlanPending, model.PlanApproved); err != nil {
		return nil, err
	}
	p.Status = model.PlanApproved

	hours := 0
	title := ""
	if p.Activity != nil {
		hours = p.Activity.Hours
		title = p.Activity.Title
	}

	if hours > 0 {
		if err := s.users.AddHours(ctx, p.UserID, hours); err != nil {
			return nil, fmt.Errorf("failed to credit hours: %w", err)
		}
	}

	s.notify(ctx, p.UserID,
		"อนุมัติการเข้าร่วมกิจกรรม",
		fmt.Sprintf("คำขอเข้าร่วมกิจกรรม %s ได้รับการอนุมัติแล้ว (+%d ชั่วโมง)", title, hours),
	)

	return p, nil
}

// Reject は参加申請を却下し、ユーザーに通知を作成する。
func (s *Service) Reject(ctx context.Context, planID string) (*model.ActivityPlan, error) {
	p, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError()
	}
	if p.Status != model.PlanPending {
		return nil, model.NewValidationError("plan has already been reviewed")
	}

	if err := s.plans.UpdateStatus(ctx, planID, model.PlanPending, model.PlanRejected); err != nil {
		return nil, err
	}
	p.Status = model.PlanRejected

	title := ""
	if p.Activity != nil {
		title = p.Activity.Title
	}

	s.notify(ctx, p.UserID,
		"คำขอเข้าร่วมกิจกรรมไม่ได้รับการอนุมัติ",
		fmt.Sprintf("คำขอเข้าร่วมกิจกรรม %s ไม่ได้รับการอนุมัติ", title),
	)

	return p, nil
}

// AttachEvidence は自分の参加申請に証憑ファイルを添付する。
// 他ユーザーの申請への添付は未検出として扱う。
func (s *Service) AttachEvidence(ctx context.Context, planID, userID, fileID string) error {
	p, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return err
	}
	if p == nil || p.UserID != userID {
		return model.NewNotFoundError()
	}

	return s.plans.AttachEvidence(ctx, planID, fileID)
}

// notify は通知を作成し、接続中のクライアントへプッシュする。
// 通知の失敗は主処理を失敗させない（ログのみ）。
func (s *Service) notify(ctx context.Context, userID, title, body string) {
	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		// 主処理は成立しているため通知失敗で巻き戻さない
		slog.Error("failed to create notification",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	if s.hub != nil {
		s.hub.Push(ctx, n)
	}
}
