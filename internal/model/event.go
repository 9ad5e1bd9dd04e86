package model

import (
	"time"

	"gorm.io/gorm"
)

// Event 活动模型
// 活动是所有社交关系的来源：参会者在活动的大厅中相识并建立好友关系

type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `gorm:"type:varchar(200)" json:"location"`
	ImageURL    string         `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	Category    string         `gorm:"type:varchar(128)" json:"category,omitempty"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	CreatedBy   uint           `gorm:"not null;index" json:"created_by"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string { return "event" }
