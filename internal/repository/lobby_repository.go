package repository

import (
	"eventlink/internal/model"

	"gorm.io/gorm"
)

// LobbyRepository 大厅数据仓储
type LobbyRepository struct {
	db *gorm.DB
}

// NewLobbyRepository 创建LobbyRepository实例
func NewLobbyRepository(db *gorm.DB) *LobbyRepository {
	return &LobbyRepository{db: db}
}

// Create 创建大厅
func (r *LobbyRepository) Create(l *model.Lobby) error {
	return r.db.Create(l).Error
}

// GetByID 根据ID获取大厅
func (r *LobbyRepository) GetByID(id uint) (*model.Lobby, error) {
	var l model.Lobby
	if err := r.db.First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByEvent 查询活动下的全部活跃大厅
func (r *LobbyRepository) ListByEvent(eventID uint) ([]*model.Lobby, error) {
	var lobbies []*model.Lobby
	err := r.db.Where("event_id = ? AND is_active = ?", eventID, true).
		Order("created_at ASC").
		Find(&lobbies).Error
	return lobbies, err
}

// AddMember 将用户加入大厅
func (r *LobbyRepository) AddMember(lobbyID, userID uint) error {
	return r.db.Create(&model.LobbyMember{LobbyID: lobbyID, UserID: userID}).Error
}

// RemoveMember 将用户移出大厅
func (r *LobbyRepository) RemoveMember(lobbyID, userID uint) error {
	return r.db.Where("lobby_id = ? AND user_id = ?", lobbyID, userID).
		Delete(&model.LobbyMember{}).Error
}

// IsMember 判断用户是否在大厅中
func (r *LobbyRepository) IsMember(lobbyID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.LobbyMember{}).
		Where("lobby_id = ? AND user_id = ?", lobbyID, userID).
		Count(&count).Error
	return count > 0, err
}

// MemberIDs 查询大厅全部成员的用户ID
func (r *LobbyRepository) MemberIDs(lobbyID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.LobbyMember{}).
		Where("lobby_id = ?", lobbyID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// FindShared 查询某活动中两个用户共同所在的大厅
// 不存在时返回 gorm.ErrRecordNotFound
func (r *LobbyRepository) FindShared(eventID, userA, userB uint) (*model.Lobby, error) {
	var l model.Lobby
	err := r.db.Where("event_id = ? AND is_active = ?", eventID, true).
		Where("id IN (?)", r.db.Model(&model.LobbyMember{}).
			Select("lobby_id").
			Where("user_id = ?", userA),
		).
		Where("id IN (?)", r.db.Model(&model.LobbyMember{}).
			Select("lobby_id").
			Where("user_id = ?", userB),
		).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CountMembers 统计大厅成员数
func (r *LobbyRepository) CountMembers(lobbyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.LobbyMember{}).
		Where("lobby_id = ?", lobbyID).
		Count(&count).Error
	return count, err
}
