package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色
const (
	RoleParticipant = "participant" // 普通参会者
	RoleOrganizer   = "organizer"   // 活动组织者
	RoleAdmin       = "admin"       // 管理员
)

// User 用户模型
// 密码仅存储哈希（PasswordHash），不存储明文
// LastSeen 记录最近在线时间，由连接网关更新

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"type:varchar(128);uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         string         `gorm:"type:varchar(32);default:'participant'" json:"role"`
	Avatar       string         `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	Status       string         `gorm:"type:varchar(32);default:'offline'" json:"status"`
	LastSeen     time.Time      `json:"last_seen"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名（全局配置使用单数表名）
func (User) TableName() string { return "user" }
