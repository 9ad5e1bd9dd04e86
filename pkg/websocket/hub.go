package websocket

import (
	"strconv"
	"sync"
)

// 房间命名约定
// 每个用户有一个私有房间用于定向推送，每个会话有一个房间用于双方实时收发
const (
	userRoomPrefix         = "user:"
	conversationRoomPrefix = "conversation:"
)

// Hub 管理全部在线连接
// 同一用户允许多个并发连接（多设备/多标签页），按连接ID区分，
// 用户下线以其连接集合清空为准
type Hub struct {
	mu sync.RWMutex

	// 连接ID -> 客户端
	clients map[string]*Client
	// 用户ID -> 该用户的全部连接
	users map[uint]map[string]*Client
	// 房间名 -> 房间内的连接
	rooms map[string]map[string]*Client
}

// NewHub 创建Hub实例
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		users:   make(map[uint]map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// UserRoom 用户私有房间名
func UserRoom(userID uint) string {
	return userRoomPrefix + formatUint(userID)
}

// ConversationRoom 会话房间名
func ConversationRoom(conversationID uint) string {
	return conversationRoomPrefix + formatUint(conversationID)
}

// Register 注册新连接并加入用户私有房间
// 返回该用户当前的连接数
func (h *Hub) Register(client *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[string]*Client)
	}
	h.users[client.UserID][client.ID] = client
	h.joinRoomLocked(client, UserRoom(client.UserID))

	return len(h.users[client.UserID])
}

// Unregister 注销连接，清理其加入的全部房间
// 返回该用户剩余的连接数，为0表示用户已完全下线
func (h *Hub) Unregister(client *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return len(h.users[client.UserID])
	}
	delete(h.clients, client.ID)

	for room := range client.rooms {
		h.leaveRoomLocked(client, room)
	}

	conns := h.users[client.UserID]
	delete(conns, client.ID)
	remaining := len(conns)
	if remaining == 0 {
		delete(h.users, client.UserID)
	}

	close(client.send)
	return remaining
}

// JoinRoom 将连接加入房间
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinRoomLocked(client, room)
}

// LeaveRoom 将连接移出房间
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveRoomLocked(client, room)
}

func (h *Hub) joinRoomLocked(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][client.ID] = client
	client.rooms[room] = true
}

func (h *Hub) leaveRoomLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// BroadcastRoom 向房间内全部连接推送，可排除某个连接（通常是发起方自己）
// 发送缓冲已满的连接直接跳过，不阻塞其他接收方
func (h *Hub) BroadcastRoom(room string, payload []byte, exceptConnID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.rooms[room] {
		if id == exceptConnID {
			continue
		}
		select {
		case client.send <- payload:
		default:
		}
	}
}

// SendToUser 向某用户的全部连接推送
func (h *Hub) SendToUser(userID uint, payload []byte) {
	h.BroadcastRoom(UserRoom(userID), payload, "")
}

// IsOnline 判断用户是否至少有一个活跃连接
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// IsUserInRoom 判断用户是否有任一连接在房间中
func (h *Hub) IsUserInRoom(userID uint, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.rooms[room] {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

// ConnectionCount 某用户当前的连接数
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// OnlineMap 批量查询一组用户的在线状态
func (h *Hub) OnlineMap(userIDs []uint) map[uint]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		result[id] = len(h.users[id]) > 0
	}
	return result
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
