package model

import (
	"time"

	"gorm.io/gorm"
)

// 大厅类型
const (
	LobbyTypeGeneral      = "general"
	LobbyTypeWorkshop     = "workshop"
	LobbyTypeNetworking   = "networking"
	LobbyTypePresentation = "presentation"
)

// Lobby 活动大厅
// 参会者在大厅中相识，好友请求只能发给同一大厅的成员
// MaxParticipants 为0表示不限制人数

type Lobby struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"type:varchar(100);not null" json:"name"`
	EventID         uint           `gorm:"not null;index" json:"event_id"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	MaxParticipants int            `gorm:"default:0" json:"max_participants"`
	LobbyType       string         `gorm:"type:varchar(32);default:'general'" json:"lobby_type"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedBy       uint           `gorm:"not null" json:"created_by"`
	StartTime       *time.Time     `json:"start_time,omitempty"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Lobby) TableName() string { return "lobby" }

// LobbyMember 大厅成员关系
// 一个用户在同一大厅中只有一条记录

type LobbyMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LobbyID   uint      `gorm:"not null;uniqueIndex:idx_lobby_member" json:"lobby_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_lobby_member;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (LobbyMember) TableName() string { return "lobby_member" }
