package repository

import (
	"eventlink/internal/model"

	"gorm.io/gorm"
)

// EventRepository 活动数据仓储
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建EventRepository实例
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create 创建活动
func (r *EventRepository) Create(e *model.Event) error {
	return r.db.Create(e).Error
}

// GetByID 根据ID获取活动
func (r *EventRepository) GetByID(id uint) (*model.Event, error) {
	var e model.Event
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ListActive 查询全部活跃活动，按开始时间排序
func (r *EventRepository) ListActive() ([]*model.Event, error) {
	var events []*model.Event
	err := r.db.Where("is_active = ?", true).
		Order("start_date ASC").
		Find(&events).Error
	return events, err
}
