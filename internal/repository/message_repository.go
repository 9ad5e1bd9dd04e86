package repository

import (
	"time"

	"eventlink/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 消息数据仓储
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建MessageRepository实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 创建消息
func (r *MessageRepository) Create(message *model.Message) error {
	return r.db.Create(message).Error
}

// GetByID 根据ID获取消息
func (r *MessageRepository) GetByID(id uint) (*model.Message, error) {
	var message model.Message
	if err := r.db.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByFriendship 按好友关系分页查询消息，最新的在前
func (r *MessageRepository) ListByFriendship(friendshipID uint, limit, offset int) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("friendship_id = ?", friendshipID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

// CountByFriendship 统计好友关系下的消息总数（用于分页）
func (r *MessageRepository) CountByFriendship(friendshipID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("friendship_id = ?", friendshipID).
		Count(&count).Error
	return count, err
}

// MarkConversationRead 将某好友关系下发给recipient的未读消息全部置为已读
// 返回实际更新的条数；重复调用时没有可更新的行，天然幂等
func (r *MessageRepository) MarkConversationRead(friendshipID, recipientID uint) (int64, error) {
	result := r.db.Model(&model.Message{}).
		Where("friendship_id = ? AND recipient_id = ? AND is_read = ?", friendshipID, recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// CountUnread 统计某好友关系下发给recipient的未读消息数
// 会话未读映射出现偏差时可用它重算
func (r *MessageRepository) CountUnread(friendshipID, recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("friendship_id = ? AND recipient_id = ? AND is_read = ?", friendshipID, recipientID, false).
		Count(&count).Error
	return count, err
}
