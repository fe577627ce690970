package model

import "time"

// PlanStatus は活動参加申請の状態を表す。
type PlanStatus string

const (
	// PlanPending は承認待ち。
	PlanPending PlanStatus = "pending"
	// PlanApproved は承認済み。承認時にユーザーへ活動時間が加算される。
	PlanApproved PlanStatus = "approved"
	// PlanRejected は却下。
	PlanRejected PlanStatus = "rejected"
)

// ActivityPlan はユーザーの活動参加申請を表す。
// 同一ユーザー・同一活動の組には一意制約がある。
type ActivityPlan struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	UserID         string     `gorm:"column:user_id;uniqueIndex:idx_plan_user_activity" json:"userId"`
	User           *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ActivityID     string     `gorm:"column:activity_id;uniqueIndex:idx_plan_user_activity" json:"activityId"`
	Activity       *Activity  `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
	Status         PlanStatus `gorm:"column:status" json:"status"`
	EvidenceFileID string     `gorm:"column:evidence_file_id" json:"evidenceFileId"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName はテーブル名を指定する。
func (ActivityPlan) TableName() string { return "activity_plans" }
