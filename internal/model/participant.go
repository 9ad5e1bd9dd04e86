package model

import "time"

// Participant 活动报名记录
// Code 为签到码，现场核销后 IsPresent 置true
// 只有已核销（IsPresent）的参会者才能进入大厅并建立好友关系

type Participant struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex:idx_user_event" json:"user_id"`
	EventID          uint       `gorm:"not null;uniqueIndex:idx_user_event;index" json:"event_id"`
	Phone            string     `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Code             string     `gorm:"type:varchar(16);not null" json:"-"`
	IsPresent        bool       `gorm:"default:false" json:"is_present"`
	PresentTime      *time.Time `json:"present_time,omitempty"`
	HasAccessedLobby bool       `gorm:"default:false" json:"has_accessed_lobby"`
	FirstLobbyAccess *time.Time `json:"first_lobby_access,omitempty"`
	LastLobbyAccess  *time.Time `json:"last_lobby_access,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Participant) TableName() string { return "participant" }
