package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"eventlink/config"
	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/internal/service"
	"eventlink/internal/testutil"
	"eventlink/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 网关测试不建立真实连接：直接注册Client并调用事件处理函数，
// 从send缓冲里取出推送帧做断言
type gatewayFixture struct {
	db      *gorm.DB
	hub     *Hub
	gateway *Gateway
	chatSvc *service.ChatService

	alice *model.User
	bob   *model.User
	carol *model.User
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	userRepo := repository.NewUserRepository(db)
	lobbyRepo := repository.NewLobbyRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	friendSvc := service.NewFriendService(friendshipRepo, userRepo, lobbyRepo, participantRepo)
	chatSvc := service.NewChatService(conversationRepo, messageRepo, friendshipRepo, userRepo, friendSvc, config.ChatConfig{
		MaxContentLength: 2000,
		DefaultPageSize:  20,
		MaxPageSize:      100,
	})

	hub := NewHub()
	jwtSvc := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour, Issuer: "eventlink"})
	gateway := NewGateway(hub, chatSvc, friendSvc, userRepo, friendshipRepo, jwtSvc, config.WebSocketConfig{SendBuffer: 16})

	f := &gatewayFixture{db: db, hub: hub, gateway: gateway, chatSvc: chatSvc}
	f.alice = f.createUser(t, "alice")
	f.bob = f.createUser(t, "bob")
	f.carol = f.createUser(t, "carol")
	return f
}

func (f *gatewayFixture) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

// befriend 直接写入已接受的好友关系并返回对应会话
func (f *gatewayFixture) befriend(t *testing.T, a, b *model.User) *model.Conversation {
	t.Helper()
	fr := &model.Friendship{
		RequesterID:     a.ID,
		RecipientID:     b.ID,
		Status:          model.FriendshipAccepted,
		EventID:         1,
		LobbyID:         1,
		LastInteraction: time.Now(),
	}
	require.NoError(t, f.db.Create(fr).Error)

	conv, err := f.chatSvc.GetOrCreateConversation(a.ID, b.ID)
	require.NoError(t, err)
	return conv
}

// connect 注册一个在线连接，自动加入用户房间
func (f *gatewayFixture) connect(t *testing.T, u *model.User) *Client {
	t.Helper()
	client := NewClient(uuid.NewString(), u.ID, u.Username, f.hub, nil, 16)
	f.hub.Register(client)
	return client
}

func newFrame(t *testing.T, event, id string, data interface{}) Frame {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Frame{Event: event, ID: id, Data: raw}
}

// recvFrame 从连接的发送缓冲取出下一帧，没有则失败
func recvFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case payload := <-c.send:
		var frame Frame
		require.NoError(t, json.Unmarshal(payload, &frame))
		return frame
	default:
		t.Fatal("发送缓冲中没有帧")
		return Frame{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("不应收到帧: %s", payload)
	default:
	}
}

func TestMarkAsRead_ReceiptDeliveredToUserRoom(t *testing.T) {
	f := newGatewayFixture(t)
	conv := f.befriend(t, f.alice, f.bob)

	for _, text := range []string{"one", "two"} {
		_, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, text, "", "")
		require.NoError(t, err)
	}

	// alice在线但没有加入会话房间，回执仍应送达她的用户房间
	aliceClient := f.connect(t, f.alice)
	bobClient := f.connect(t, f.bob)

	f.gateway.handleMarkAsRead(bobClient, newFrame(t, EventMarkAsRead, "req-1", map[string]interface{}{
		"conversation_id": conv.ID,
	}))

	ack := recvFrame(t, bobClient)
	assert.Equal(t, EventAck, ack.Event)
	assert.Equal(t, "req-1", ack.ID)

	receipt := recvFrame(t, aliceClient)
	assert.Equal(t, EventMessagesRead, receipt.Event)

	var data struct {
		ConversationID uint  `json:"conversation_id"`
		ReaderID       uint  `json:"reader_id"`
		Count          int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(receipt.Data, &data))
	assert.Equal(t, conv.ID, data.ConversationID)
	assert.Equal(t, f.bob.ID, data.ReaderID)
	assert.Equal(t, int64(2), data.Count)

	// 重复标记已读，对方仍收到回执（count为0）
	f.gateway.handleMarkAsRead(bobClient, newFrame(t, EventMarkAsRead, "req-2", map[string]interface{}{
		"conversation_id": conv.ID,
	}))
	recvFrame(t, bobClient)

	receipt = recvFrame(t, aliceClient)
	assert.Equal(t, EventMessagesRead, receipt.Event)
	require.NoError(t, json.Unmarshal(receipt.Data, &data))
	assert.Equal(t, int64(0), data.Count)
}

func TestMarkAsRead_NonParticipant(t *testing.T) {
	f := newGatewayFixture(t)
	conv := f.befriend(t, f.alice, f.bob)

	carolClient := f.connect(t, f.carol)
	f.gateway.handleMarkAsRead(carolClient, newFrame(t, EventMarkAsRead, "req-1", map[string]interface{}{
		"conversation_id": conv.ID,
	}))

	frame := recvFrame(t, carolClient)
	assert.Equal(t, EventError, frame.Event)

	var data struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &data))
	assert.Equal(t, "you are not part of this conversation", data.Message)
}

func TestSendMessage_NotificationCarriesFullMessage(t *testing.T) {
	f := newGatewayFixture(t)
	conv := f.befriend(t, f.alice, f.bob)

	aliceClient := f.connect(t, f.alice)
	f.hub.JoinRoom(aliceClient, ConversationRoom(conv.ID))

	// bob在线但不在会话房间，应收到带完整消息的通知
	bobClient := f.connect(t, f.bob)

	f.gateway.handleSendMessage(aliceClient, newFrame(t, EventSendMessage, "req-1", map[string]interface{}{
		"conversation_id": conv.ID,
		"content":         "hello bob",
	}))

	// alice依次收到房间广播和ack
	broadcast := recvFrame(t, aliceClient)
	assert.Equal(t, EventNewMessage, broadcast.Event)
	ack := recvFrame(t, aliceClient)
	assert.Equal(t, EventAck, ack.Event)

	notify := recvFrame(t, bobClient)
	assert.Equal(t, EventMessageNotification, notify.Event)

	var data struct {
		ConversationID uint          `json:"conversation_id"`
		Message        model.Message `json:"message"`
		SenderID       uint          `json:"sender_id"`
		SenderName     string        `json:"sender_name"`
		Preview        string        `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(notify.Data, &data))
	assert.Equal(t, conv.ID, data.ConversationID)
	assert.NotZero(t, data.Message.ID)
	assert.Equal(t, "hello bob", data.Message.Content)
	assert.Equal(t, f.alice.ID, data.Message.SenderID)
	assert.Equal(t, f.bob.ID, data.Message.RecipientID)
	assert.Equal(t, f.alice.ID, data.SenderID)
	assert.Equal(t, "alice", data.SenderName)
	assert.Equal(t, "hello bob", data.Preview)
}

func TestSendMessage_RecipientInRoomGetsBroadcastOnly(t *testing.T) {
	f := newGatewayFixture(t)
	conv := f.befriend(t, f.alice, f.bob)

	aliceClient := f.connect(t, f.alice)
	bobClient := f.connect(t, f.bob)
	f.hub.JoinRoom(aliceClient, ConversationRoom(conv.ID))
	f.hub.JoinRoom(bobClient, ConversationRoom(conv.ID))

	f.gateway.handleSendMessage(aliceClient, newFrame(t, EventSendMessage, "req-1", map[string]interface{}{
		"conversation_id": conv.ID,
		"content":         "hi",
	}))

	frame := recvFrame(t, bobClient)
	assert.Equal(t, EventNewMessage, frame.Event)
	assertNoFrame(t, bobClient)
}
