package model

import "time"

// Notification はユーザー宛ての通知を表す。
// 作成時にWebSocketチャネル経由でリアルタイム配信される。
type Notification struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id" json:"userId"`
	Title     string    `gorm:"column:title" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	Read      bool      `gorm:"column:read" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName はテーブル名を指定する。
func (Notification) TableName() string { return "notifications" }
