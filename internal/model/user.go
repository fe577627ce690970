package model

import "time"

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleStudent は一般学生ユーザー。
	RoleStudent Role = "student"
	// RoleAdmin は管理者ユーザー。
	RoleAdmin Role = "admin"
)

// User は登録ユーザーを表す。
// StudentIDとEmailには一意制約がある。
type User struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	StudentID    string    `gorm:"column:student_id;uniqueIndex" json:"studentId"`
	Email        string    `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	FirstName    string    `gorm:"column:first_name" json:"firstName"`
	LastName     string    `gorm:"column:last_name" json:"lastName"`
	Role         Role      `gorm:"column:role" json:"role"`
	FacultyID    string    `gorm:"column:faculty_id" json:"facultyId"`
	Faculty      *Faculty  `gorm:"foreignKey:FacultyID" json:"faculty,omitempty"`
	TotalHours   int       `gorm:"column:total_hours" json:"totalHours"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName はテーブル名を指定する。
func (User) TableName() string { return "users" }
