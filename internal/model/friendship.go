package model

import "time"

// 好友关系状态
// 状态机：pending → accepted | rejected；任意状态 → blocked
// 解除拉黑与删除好友直接删除记录，而不是状态迁移
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRejected = "rejected"
	FriendshipBlocked  = "blocked"
)

// Friendship 好友关系
// 一对用户之间最多存在一条记录（方向不影响查询语义）
// EventID/LobbyID 记录两人相识的活动和大厅

type Friendship struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RequesterID     uint      `gorm:"not null;uniqueIndex:idx_friend_pair;index:idx_requester_status" json:"requester_id"`
	RecipientID     uint      `gorm:"not null;uniqueIndex:idx_friend_pair;index:idx_recipient_status" json:"recipient_id"`
	Status          string    `gorm:"type:varchar(32);default:'pending';index:idx_requester_status;index:idx_recipient_status" json:"status"`
	EventID         uint      `gorm:"not null;index" json:"event_id"`
	LobbyID         uint      `gorm:"not null" json:"lobby_id"`
	LastInteraction time.Time `json:"last_interaction"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Friendship) TableName() string { return "friendship" }

// Involves 判断用户是否为关系双方之一
func (f *Friendship) Involves(userID uint) bool {
	return f.RequesterID == userID || f.RecipientID == userID
}

// OtherUser 返回关系中的另一方
func (f *Friendship) OtherUser(userID uint) uint {
	if f.RequesterID == userID {
		return f.RecipientID
	}
	return f.RequesterID
}
