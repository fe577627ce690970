package model

import "time"

// Faculty は学部を表す。Nameには一意制約がある。
type Faculty struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName はテーブル名を指定する。
func (Faculty) TableName() string { return "faculties" }
