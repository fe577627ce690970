package model

import "time"

// ContactMessage は問い合わせフォームから送信されたメッセージを表す。
type ContactMessage struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	Email     string    `gorm:"column:email" json:"email"`
	Subject   string    `gorm:"column:subject" json:"subject"`
	Body      string    `gorm:"column:body" json:"body"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName はテーブル名を指定する。
func (ContactMessage) TableName() string { return "contact_messages" }
