package repository

import (
	"eventlink/internal/model"

	"gorm.io/gorm"
)

// FriendshipRepository 好友关系数据仓储
type FriendshipRepository struct {
	db *gorm.DB
}

// NewFriendshipRepository 创建FriendshipRepository实例
func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create 创建好友关系记录
func (r *FriendshipRepository) Create(f *model.Friendship) error {
	return r.db.Create(f).Error
}

// GetByID 根据ID获取好友关系
func (r *FriendshipRepository) GetByID(id uint) (*model.Friendship, error) {
	var f model.Friendship
	if err := r.db.First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// GetBetween 查询两个用户之间的关系记录（方向无关）
// 不存在时返回 gorm.ErrRecordNotFound
func (r *FriendshipRepository) GetBetween(userA, userB uint) (*model.Friendship, error) {
	var f model.Friendship
	err := r.db.Where(
		"(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
		userA, userB, userB, userA,
	).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Save 保存好友关系变更
func (r *FriendshipRepository) Save(f *model.Friendship) error {
	return r.db.Save(f).Error
}

// Delete 删除好友关系记录（解除拉黑/删除好友）
func (r *FriendshipRepository) Delete(id uint) error {
	return r.db.Delete(&model.Friendship{}, id).Error
}

// ListByUserAndStatus 查询用户参与的指定状态的关系（双向）
func (r *FriendshipRepository) ListByUserAndStatus(userID uint, status string) ([]*model.Friendship, error) {
	var friendships []*model.Friendship
	err := r.db.Where(
		"(requester_id = ? OR recipient_id = ?) AND status = ?",
		userID, userID, status,
	).
		Order("last_interaction DESC").
		Find(&friendships).Error
	return friendships, err
}

// ListByUser 查询用户参与的全部关系记录
func (r *FriendshipRepository) ListByUser(userID uint) ([]*model.Friendship, error) {
	var friendships []*model.Friendship
	err := r.db.Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Find(&friendships).Error
	return friendships, err
}

// ListPendingReceived 查询用户收到的待处理请求
func (r *FriendshipRepository) ListPendingReceived(userID uint) ([]*model.Friendship, error) {
	var friendships []*model.Friendship
	err := r.db.Where("recipient_id = ? AND status = ?", userID, model.FriendshipPending).
		Order("created_at DESC").
		Find(&friendships).Error
	return friendships, err
}

// ListPendingSent 查询用户发出的待处理请求
func (r *FriendshipRepository) ListPendingSent(userID uint) ([]*model.Friendship, error) {
	var friendships []*model.Friendship
	err := r.db.Where("requester_id = ? AND status = ?", userID, model.FriendshipPending).
		Order("created_at DESC").
		Find(&friendships).Error
	return friendships, err
}

// ListBlockedBy 查询用户主动拉黑的关系
func (r *FriendshipRepository) ListBlockedBy(userID uint) ([]*model.Friendship, error) {
	var friendships []*model.Friendship
	err := r.db.Where("requester_id = ? AND status = ?", userID, model.FriendshipBlocked).
		Order("last_interaction DESC").
		Find(&friendships).Error
	return friendships, err
}

// AcceptedFriendIDs 返回用户所有已接受好友的用户ID
// 连接网关用它确定上下线广播的接收方
func (r *FriendshipRepository) AcceptedFriendIDs(userID uint) ([]uint, error) {
	friendships, err := r.ListByUserAndStatus(userID, model.FriendshipAccepted)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.OtherUser(userID))
	}
	return ids, nil
}
