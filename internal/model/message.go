package model

import "time"

// 附件类型
const (
	AttachmentImage    = "image"
	AttachmentDocument = "document"
	AttachmentAudio    = "audio"
)

// Message 私聊消息
// 创建后不可修改，唯一允许的变更是 IsRead/ReadAt 由 false→true
// 消息按 FriendshipID 归属，便于按会话批量标记已读

type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SenderID       uint       `gorm:"not null;index:idx_sender_recipient" json:"sender_id"`
	RecipientID    uint       `gorm:"not null;index:idx_sender_recipient" json:"recipient_id"`
	FriendshipID   uint       `gorm:"not null;index" json:"friendship_id"`
	Content        string     `gorm:"type:varchar(2000);not null" json:"content"`
	AttachmentURL  string     `gorm:"type:varchar(255)" json:"attachment_url,omitempty"`
	AttachmentType string     `gorm:"type:varchar(32)" json:"attachment_type,omitempty"`
	IsRead         bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}

func (Message) TableName() string { return "message" }
