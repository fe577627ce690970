package model

import "time"

// Activity はボランティア活動を表す。
// Hoursは参加承認時にユーザーへ加算される活動時間。
type Activity struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Title       string    `gorm:"column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	CategoryID  string    `gorm:"column:category_id" json:"categoryId"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Location    string    `gorm:"column:location" json:"location"`
	Hours       int       `gorm:"column:hours" json:"hours"`
	MaxSeats    int       `gorm:"column:max_seats" json:"maxSeats"`
	StartAt     time.Time `gorm:"column:start_at" json:"startAt"`
	EndAt       time.Time `gorm:"column:end_at" json:"endAt"`
	Open        bool      `gorm:"column:open" json:"open"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName はテーブル名を指定する。
func (Activity) TableName() string { return "activities" }
