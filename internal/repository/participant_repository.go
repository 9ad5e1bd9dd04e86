package repository

import (
	"eventlink/internal/model"

	"gorm.io/gorm"
)

// ParticipantRepository 报名记录数据仓储
type ParticipantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository 创建ParticipantRepository实例
func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create 创建报名记录
func (r *ParticipantRepository) Create(p *model.Participant) error {
	return r.db.Create(p).Error
}

// GetByUserAndEvent 查询用户在某活动的报名记录
func (r *ParticipantRepository) GetByUserAndEvent(userID, eventID uint) (*model.Participant, error) {
	var p model.Participant
	err := r.db.Where("user_id = ? AND event_id = ?", userID, eventID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByCode 根据签到码查询某活动的报名记录
func (r *ParticipantRepository) GetByCode(eventID uint, code string) (*model.Participant, error) {
	var p model.Participant
	err := r.db.Where("event_id = ? AND code = ?", eventID, code).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save 保存报名记录变更（签到、大厅访问时间）
func (r *ParticipantRepository) Save(p *model.Participant) error {
	return r.db.Save(p).Error
}

// IsVerified 判断用户是否为某活动的已核销参会者
func (r *ParticipantRepository) IsVerified(userID, eventID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Participant{}).
		Where("user_id = ? AND event_id = ? AND is_present = ?", userID, eventID, true).
		Count(&count).Error
	return count > 0, err
}

// ListByUser 查询用户的全部报名记录
func (r *ParticipantRepository) ListByUser(userID uint) ([]*model.Participant, error) {
	var participants []*model.Participant
	err := r.db.Where("user_id = ?", userID).Find(&participants).Error
	return participants, err
}

// ListByEvent 查询活动下的全部报名记录
func (r *ParticipantRepository) ListByEvent(eventID uint) ([]*model.Participant, error) {
	var participants []*model.Participant
	err := r.db.Where("event_id = ?", eventID).Find(&participants).Error
	return participants, err
}
