package repository

import (
	"errors"

	"eventlink/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 会话数据仓储
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建ConversationRepository实例
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create 创建会话
// friendship_id 上有唯一约束：并发创建时冲突方收到错误后
// 改为读取已存在的记录（见 GetOrCreate）
func (r *ConversationRepository) Create(c *model.Conversation) error {
	return r.db.Create(c).Error
}

// GetOrCreate 创建会话；若该好友关系的会话已存在则返回已有记录
// 唯一约束保证并发创建最终只落一条记录
func (r *ConversationRepository) GetOrCreate(c *model.Conversation) (*model.Conversation, error) {
	if err := r.db.Create(c).Error; err != nil {
		// 唯一约束冲突：读取已存在的会话
		existing, getErr := r.GetByFriendshipID(c.FriendshipID)
		if getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return c, nil
}

// GetByID 根据ID获取会话
func (r *ConversationRepository) GetByID(id uint) (*model.Conversation, error) {
	var c model.Conversation
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByFriendshipID 根据好友关系ID获取会话
func (r *ConversationRepository) GetByFriendshipID(friendshipID uint) (*model.Conversation, error) {
	var c model.Conversation
	if err := r.db.Where("friendship_id = ?", friendshipID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Save 保存会话变更（未读计数、最后消息、激活状态）
func (r *ConversationRepository) Save(c *model.Conversation) error {
	return r.db.Save(c).Error
}

// ListActiveByUser 查询用户的全部活跃会话，按最近更新排序
func (r *ConversationRepository) ListActiveByUser(userID uint) ([]*model.Conversation, error) {
	var conversations []*model.Conversation
	err := r.db.Where(
		"(user_a_id = ? OR user_b_id = ?) AND is_active = ?",
		userID, userID, true,
	).
		Order("updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// IsNotFound 判断是否为记录不存在错误
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
