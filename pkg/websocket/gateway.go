package websocket

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"eventlink/config"
	"eventlink/internal/repository"
	"eventlink/internal/service"
	"eventlink/pkg/apperr"
	"eventlink/pkg/jwt"
	"eventlink/pkg/logger"
	"eventlink/pkg/redis"
	"eventlink/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// 客户端事件
const (
	EventSendMessage       = "send-message"
	EventMarkAsRead        = "mark-as-read"
	EventTyping            = "typing"
	EventJoinConversation  = "join-conversation"
	EventLeaveConversation = "leave-conversation"
	EventGetOnlineStatus   = "get-online-status"
	EventHeartbeat         = "heartbeat"
)

// 服务端推送事件
const (
	EventNewMessage          = "new-message"
	EventMessageNotification = "message-notification"
	EventMessagesRead        = "messages-read"
	EventTypingIndicator     = "typing-indicator"
	EventFriendStatusChange  = "friend-status-change"
	EventAck                 = "ack"
	EventError               = "error"
)

// Frame 连接上的统一帧格式
// ID由客户端生成，服务端在ack/error应答中原样带回用于请求应答配对
type Frame struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Gateway WebSocket连接网关
// 只做连接管理、鉴权和事件分发，业务判定全部委托给服务层，
// 与HTTP接口共用同一套授权与落库路径
type Gateway struct {
	hub            *Hub
	chatService    *service.ChatService
	friendService  *service.FriendService
	userRepo       *repository.UserRepository
	friendshipRepo *repository.FriendshipRepository
	jwtService     *jwt.JWTService
	cfg            config.WebSocketConfig
}

// NewGateway 创建Gateway实例
func NewGateway(
	hub *Hub,
	chatService *service.ChatService,
	friendService *service.FriendService,
	userRepo *repository.UserRepository,
	friendshipRepo *repository.FriendshipRepository,
	jwtService *jwt.JWTService,
	cfg config.WebSocketConfig,
) *Gateway {
	return &Gateway{
		hub:            hub,
		chatService:    chatService,
		friendService:  friendService,
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		jwtService:     jwtService,
		cfg:            cfg,
	}
}

// Handler Gin路由处理函数：鉴权、升级连接、启动读写协程
func (g *Gateway) Handler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(c, "missing token")
		return
	}

	claims, err := g.jwtService.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}
	userID64, _ := strconv.ParseUint(claims.Subject, 10, 32)
	if userID64 == 0 {
		response.Unauthorized(c, "invalid token")
		return
	}
	userID := uint(userID64)
	username, _ := claims.Data["username"].(string)

	// 回显子协议，避免客户端提示 "Server sent no subprotocol"
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		return
	}

	client := NewClient(uuid.NewString(), userID, username, g.hub, conn, g.cfg.SendBuffer)
	connections := g.hub.Register(client)
	g.onConnect(client, connections)

	go client.writePump(g.cfg)

	// 读协程结束即连接关闭
	client.readPump(g.cfg, g.dispatch)

	remaining := g.hub.Unregister(client)
	g.onDisconnect(client, remaining)
}

// onConnect 连接建立后的状态同步：数据库、Redis、好友广播
// 只在用户的首个连接上广播上线，避免多设备重复通知
func (g *Gateway) onConnect(client *Client, connections int) {
	_ = g.userRepo.UpdateStatus(client.UserID, "online")
	if err := redis.SetUserPresence(client.UserID, client.Username, connections); err != nil {
		logger.Debug("写入在线状态失败", zap.Uint("user_id", client.UserID), zap.Error(err))
	}

	if connections == 1 {
		g.broadcastStatusToFriends(client, "online")
	}
	logger.Info("连接建立",
		zap.String("conn_id", client.ID),
		zap.Uint("user_id", client.UserID),
		zap.Int("connections", connections),
	)
}

// onDisconnect 连接关闭后的状态同步
// 仅当用户的全部连接都关闭后才视为下线
func (g *Gateway) onDisconnect(client *Client, remaining int) {
	if remaining > 0 {
		if err := redis.SetUserPresence(client.UserID, client.Username, remaining); err != nil {
			logger.Debug("更新在线状态失败", zap.Uint("user_id", client.UserID), zap.Error(err))
		}
		return
	}

	_ = g.userRepo.UpdateStatus(client.UserID, "offline")
	if err := redis.RemoveUserPresence(client.UserID); err != nil {
		logger.Debug("清除在线状态失败", zap.Uint("user_id", client.UserID), zap.Error(err))
	}
	g.broadcastStatusToFriends(client, "offline")
	logger.Info("连接全部关闭", zap.Uint("user_id", client.UserID))
}

// broadcastStatusToFriends 向全部已接受好友推送状态变化
func (g *Gateway) broadcastStatusToFriends(client *Client, status string) {
	friendIDs, err := g.friendshipRepo.AcceptedFriendIDs(client.UserID)
	if err != nil {
		logger.Warn("查询好友列表失败", zap.Uint("user_id", client.UserID), zap.Error(err))
		return
	}

	payload := mustMarshal(Frame{
		Event: EventFriendStatusChange,
		Data: mustMarshalRaw(gin.H{
			"user_id":  client.UserID,
			"username": client.Username,
			"status":   status,
		}),
	})
	for _, id := range friendIDs {
		g.hub.SendToUser(id, payload)
	}
}

// dispatch 解析客户端帧并分发到对应事件处理
func (g *Gateway) dispatch(client *Client, payload []byte) {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		g.sendError(client, "", "invalid frame")
		return
	}

	switch frame.Event {
	case EventSendMessage:
		g.handleSendMessage(client, frame)
	case EventMarkAsRead:
		g.handleMarkAsRead(client, frame)
	case EventTyping:
		g.handleTyping(client, frame)
	case EventJoinConversation:
		g.handleJoinConversation(client, frame)
	case EventLeaveConversation:
		g.handleLeaveConversation(client, frame)
	case EventGetOnlineStatus:
		g.handleGetOnlineStatus(client, frame)
	case EventHeartbeat:
		g.handleHeartbeat(client)
	default:
		g.sendError(client, frame.ID, "unknown event")
	}
}

type sendMessageData struct {
	ConversationID uint   `json:"conversation_id"`
	Content        string `json:"content"`
	AttachmentURL  string `json:"attachment_url"`
	AttachmentType string `json:"attachment_type"`
}

// handleSendMessage 实时发送消息
// 落库走与HTTP相同的权威路径，成功后向会话房间广播，
// 接收方在线但不在会话房间时另发通知
func (g *Gateway) handleSendMessage(client *Client, frame Frame) {
	var data sendMessageData
	if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == 0 {
		g.sendError(client, frame.ID, "invalid send-message data")
		return
	}

	result, err := g.chatService.SendToConversation(client.UserID, data.ConversationID, data.Content, data.AttachmentURL, data.AttachmentType)
	if err != nil {
		g.sendError(client, frame.ID, apperr.MessageOf(err, "failed to send message"))
		return
	}

	room := ConversationRoom(data.ConversationID)
	push := mustMarshal(Frame{
		Event: EventNewMessage,
		Data: mustMarshalRaw(gin.H{
			"conversation_id": data.ConversationID,
			"message":         result.Message,
			"sender": gin.H{
				"id":       result.Sender.ID,
				"username": result.Sender.Username,
				"avatar":   result.Sender.Avatar,
			},
		}),
	})
	g.hub.BroadcastRoom(room, push, "")

	recipientID := result.Message.RecipientID
	if g.hub.IsOnline(recipientID) && !g.hub.IsUserInRoom(recipientID, room) {
		// 携带完整消息，接收方无需再发HTTP请求即可渲染和入库
		notify := mustMarshal(Frame{
			Event: EventMessageNotification,
			Data: mustMarshalRaw(gin.H{
				"conversation_id": data.ConversationID,
				"message":         result.Message,
				"sender_id":       result.Sender.ID,
				"sender_name":     result.Sender.Username,
				"preview":         preview(result.Message.Content),
			}),
		})
		g.hub.SendToUser(recipientID, notify)
	}

	g.sendAck(client, frame.ID, gin.H{"message_id": result.Message.ID})
}

type conversationData struct {
	ConversationID uint `json:"conversation_id"`
}

// handleMarkAsRead 标记会话已读并通知对方
// 回执直接推送到对方的用户房间：发送方在线即可收到，
// 不要求其已加入会话房间
func (g *Gateway) handleMarkAsRead(client *Client, frame Frame) {
	var data conversationData
	if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == 0 {
		g.sendError(client, frame.ID, "invalid mark-as-read data")
		return
	}

	conv, err := g.chatService.GetConversationForUser(client.UserID, data.ConversationID)
	if err != nil {
		g.sendError(client, frame.ID, apperr.MessageOf(err, "failed to mark as read"))
		return
	}

	count, err := g.chatService.MarkRead(client.UserID, data.ConversationID)
	if err != nil {
		g.sendError(client, frame.ID, apperr.MessageOf(err, "failed to mark as read"))
		return
	}

	push := mustMarshal(Frame{
		Event: EventMessagesRead,
		Data: mustMarshalRaw(gin.H{
			"conversation_id": data.ConversationID,
			"reader_id":       client.UserID,
			"count":           count,
		}),
	})
	g.hub.SendToUser(conv.OtherParticipant(client.UserID), push)

	g.sendAck(client, frame.ID, gin.H{"count": count})
}

type typingData struct {
	ConversationID uint `json:"conversation_id"`
	IsTyping       bool `json:"is_typing"`
}

// handleTyping 输入状态指示，仅转发不落库
func (g *Gateway) handleTyping(client *Client, frame Frame) {
	var data typingData
	if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == 0 {
		g.sendError(client, frame.ID, "invalid typing data")
		return
	}

	room := ConversationRoom(data.ConversationID)
	if !g.hub.IsUserInRoom(client.UserID, room) {
		g.sendError(client, frame.ID, "you have not joined this conversation")
		return
	}

	push := mustMarshal(Frame{
		Event: EventTypingIndicator,
		Data: mustMarshalRaw(gin.H{
			"conversation_id": data.ConversationID,
			"user_id":         client.UserID,
			"username":        client.Username,
			"is_typing":       data.IsTyping,
		}),
	})
	g.hub.BroadcastRoom(room, push, client.ID)
}

// handleJoinConversation 加入会话房间
// 必须是会话参与者，防止旁听他人会话
func (g *Gateway) handleJoinConversation(client *Client, frame Frame) {
	var data conversationData
	if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == 0 {
		g.sendError(client, frame.ID, "invalid join-conversation data")
		return
	}

	if _, err := g.chatService.GetConversationForUser(client.UserID, data.ConversationID); err != nil {
		g.sendError(client, frame.ID, apperr.MessageOf(err, "failed to join conversation"))
		return
	}

	g.hub.JoinRoom(client, ConversationRoom(data.ConversationID))
	g.sendAck(client, frame.ID, gin.H{"conversation_id": data.ConversationID})
}

// handleLeaveConversation 离开会话房间
func (g *Gateway) handleLeaveConversation(client *Client, frame Frame) {
	var data conversationData
	if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConversationID == 0 {
		g.sendError(client, frame.ID, "invalid leave-conversation data")
		return
	}

	g.hub.LeaveRoom(client, ConversationRoom(data.ConversationID))
	g.sendAck(client, frame.ID, gin.H{"conversation_id": data.ConversationID})
}

type onlineStatusData struct {
	UserIDs []uint `json:"user_ids"`
}

// handleGetOnlineStatus 批量查询在线状态
func (g *Gateway) handleGetOnlineStatus(client *Client, frame Frame) {
	var data onlineStatusData
	if err := json.Unmarshal(frame.Data, &data); err != nil {
		g.sendError(client, frame.ID, "invalid get-online-status data")
		return
	}

	g.sendAck(client, frame.ID, gin.H{"statuses": g.hub.OnlineMap(data.UserIDs)})
}

// handleHeartbeat 刷新在线状态TTL
func (g *Gateway) handleHeartbeat(client *Client) {
	if err := redis.RefreshUserPresence(client.UserID); err != nil {
		logger.Debug("刷新在线状态失败", zap.Uint("user_id", client.UserID), zap.Error(err))
	}
	_ = g.userRepo.UpdateStatus(client.UserID, "online")
}

func (g *Gateway) sendAck(client *Client, id string, data gin.H) {
	g.push(client, Frame{Event: EventAck, ID: id, Data: mustMarshalRaw(data)})
}

func (g *Gateway) sendError(client *Client, id string, message string) {
	g.push(client, Frame{Event: EventError, ID: id, Data: mustMarshalRaw(gin.H{"message": message})})
}

func (g *Gateway) push(client *Client, frame Frame) {
	select {
	case client.send <- mustMarshal(frame):
	default:
	}
}

// preview 通知中的消息预览，截断长内容
func preview(content string) string {
	const maxPreview = 80
	runes := []rune(content)
	if len(runes) <= maxPreview {
		return content
	}
	return string(runes[:maxPreview]) + "..."
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("序列化推送帧失败", zap.Error(err))
		return []byte("{}")
	}
	return b
}

func mustMarshalRaw(v interface{}) json.RawMessage {
	return json.RawMessage(mustMarshal(v))
}
