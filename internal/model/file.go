package model

import "time"

// StoredFile はアップロードされたファイルのメタデータを表す。
// 実体はローカルのアップロードディレクトリに保存される。
type StoredFile struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	OwnerID    string    `gorm:"column:owner_id" json:"ownerId"`
	FileName   string    `gorm:"column:file_name" json:"fileName"`
	StoredPath string    `gorm:"column:stored_path" json:"storedPath"`
	MimeType   string    `gorm:"column:mime_type" json:"mimeType"`
	SizeBytes  int64     `gorm:"column:size_bytes" json:"sizeBytes"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName はテーブル名を指定する。
func (StoredFile) TableName() string { return "files" }
