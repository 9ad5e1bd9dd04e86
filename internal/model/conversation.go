package model

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// UnreadMap 每个参与者的未读计数，key为十进制用户ID
// 会话创建时即初始化双方的key，避免缺失key的歧义
type UnreadMap map[string]int64

// Conversation 私聊会话
// 与一条已接受的好友关系一一对应（friendship_id 唯一约束），
// 并发创建时由唯一约束保证最终只有一条记录
// IsActive=false 为软删除，再次创建时复活而不是新建

type Conversation struct {
	ID            uint                           `gorm:"primaryKey" json:"id"`
	UserAID       uint                           `gorm:"not null;index" json:"user_a_id"`
	UserBID       uint                           `gorm:"not null;index" json:"user_b_id"`
	FriendshipID  uint                           `gorm:"not null;uniqueIndex" json:"friendship_id"`
	LastMessageID *uint                          `json:"last_message_id,omitempty"`
	UnreadCounts  datatypes.JSONType[UnreadMap]  `json:"unread_counts"`
	IsActive      bool                           `gorm:"default:true;index" json:"is_active"`
	EventID       uint                           `gorm:"not null" json:"event_id"`
	LobbyID       uint                           `gorm:"not null" json:"lobby_id"`
	CreatedAt     time.Time                      `json:"created_at"`
	UpdatedAt     time.Time                      `gorm:"index" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }

// NewUnreadCounts 为双方初始化零值未读映射
func NewUnreadCounts(userA, userB uint) datatypes.JSONType[UnreadMap] {
	return datatypes.NewJSONType(UnreadMap{
		unreadKey(userA): 0,
		unreadKey(userB): 0,
	})
}

func unreadKey(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// HasParticipant 判断用户是否为会话参与者
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// OtherParticipant 返回会话中的另一方
func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// UnreadFor 返回某个参与者的未读数，key缺失按0处理
func (c *Conversation) UnreadFor(userID uint) int64 {
	m := c.UnreadCounts.Data()
	if m == nil {
		return 0
	}
	return m[unreadKey(userID)]
}

// IncrementUnread 将某个参与者的未读数加1
func (c *Conversation) IncrementUnread(userID uint) {
	m := c.UnreadCounts.Data()
	if m == nil {
		m = UnreadMap{}
	}
	m[unreadKey(userID)]++
	c.UnreadCounts = datatypes.NewJSONType(m)
}

// ResetUnread 将某个参与者的未读数清零
func (c *Conversation) ResetUnread(userID uint) {
	m := c.UnreadCounts.Data()
	if m == nil {
		m = UnreadMap{}
	}
	m[unreadKey(userID)] = 0
	c.UnreadCounts = datatypes.NewJSONType(m)
}
