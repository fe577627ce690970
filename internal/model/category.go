package model

import "time"

// Category は活動カテゴリを表す。Nameには一意制約がある。
type Category struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName はテーブル名を指定する。
func (Category) TableName() string { return "categories" }
