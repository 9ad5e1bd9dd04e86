package service

import (
	"strings"
	"testing"

	"eventlink/internal/model"
	"eventlink/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage_CreatesConversation(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	result, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "hello bob", "", "")
	require.NoError(t, err)
	assert.Equal(t, "hello bob", result.Message.Content)
	assert.Equal(t, f.alice.ID, result.Message.SenderID)
	assert.Equal(t, f.bob.ID, result.Message.RecipientID)
	require.NotNil(t, result.Conversation.LastMessageID)
	assert.Equal(t, result.Message.ID, *result.Conversation.LastMessageID)

	// 第二条消息复用同一个会话
	second, err := f.chatSvc.SendMessage(f.bob.ID, f.alice.ID, "hi alice", "", "")
	require.NoError(t, err)
	assert.Equal(t, result.Conversation.ID, second.Conversation.ID)
}

func TestSendMessage_OneConversationPerFriendship(t *testing.T) {
	f := newFixture(t)
	fr := f.befriend(t, f.alice, f.bob)

	_, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "one", "", "")
	require.NoError(t, err)
	_, err = f.chatSvc.SendMessage(f.bob.ID, f.alice.ID, "two", "", "")
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&model.Conversation{}).
		Where("friendship_id = ?", fr.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSendMessage_ContentValidation(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	// 空白内容
	_, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "   ", "", "")
	require.Error(t, err)
	assert.Equal(t, "message content cannot be empty", err.Error())

	// 超长内容
	_, err = f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, strings.Repeat("a", 2001), "", "")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))

	// 长度按字符计，2000个汉字（6000字节）仍然合法
	_, err = f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, strings.Repeat("好", 2000), "", "")
	require.NoError(t, err)

	_, err = f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, strings.Repeat("好", 2001), "", "")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))

	// 非法附件类型
	_, err = f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "see attached", "https://cdn.example.com/x.exe", "executable")
	require.Error(t, err)
	assert.Equal(t, "invalid attachment type", err.Error())

	// 合法附件
	result, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "see attached", "https://cdn.example.com/x.png", model.AttachmentImage)
	require.NoError(t, err)
	assert.Equal(t, model.AttachmentImage, result.Message.AttachmentType)
}

func TestSendMessage_RequiresAcceptedFriendship(t *testing.T) {
	f := newFixture(t)

	// 没有关系
	_, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "hello", "", "")
	require.Error(t, err)
	assert.Equal(t, "friendship not found or not accepted", err.Error())
	assert.Equal(t, 404, apperr.StatusOf(err))

	// pending关系同样不行
	_, err = f.friendSvc.SendRequest(f.alice.ID, f.bob.ID, f.lobby.ID)
	require.NoError(t, err)
	_, err = f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "hello", "", "")
	require.Error(t, err)
	assert.Equal(t, "friendship not found or not accepted", err.Error())
}

func TestSendMessage_BlockedWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	_, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "before block", "", "")
	require.NoError(t, err)

	_, err = f.friendSvc.Block(f.bob.ID, f.alice.ID)
	require.NoError(t, err)

	_, err = f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "after block", "", "")
	require.Error(t, err)
	assert.Equal(t, "friendship not found or not accepted", err.Error())

	// 拒绝的发送不产生任何落库副作用
	var count int64
	require.NoError(t, f.db.Model(&model.Message{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSendToConversation_ParticipantAndFriendshipChecks(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	result, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "hello", "", "")
	require.NoError(t, err)
	convID := result.Conversation.ID

	// 非参与者不能在会话中发送
	_, err = f.chatSvc.SendToConversation(f.carol.ID, convID, "intrude", "", "")
	require.Error(t, err)
	assert.Equal(t, "you are not part of this conversation", err.Error())
	assert.Equal(t, 403, apperr.StatusOf(err))

	// 关系失效后会话不可用
	_, err = f.friendSvc.Block(f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.chatSvc.SendToConversation(f.alice.ID, convID, "still there?", "", "")
	require.Error(t, err)
	assert.Equal(t, "friendship no longer active", err.Error())
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	var convID uint
	for _, text := range []string{"one", "two", "three"} {
		result, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, text, "", "")
		require.NoError(t, err)
		convID = result.Conversation.ID
	}

	conv, err := f.conversationRepo.GetByID(convID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), conv.UnreadFor(f.bob.ID))
	assert.Equal(t, int64(0), conv.UnreadFor(f.alice.ID))

	count, err := f.chatSvc.MarkRead(f.bob.ID, convID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	conv, err = f.conversationRepo.GetByID(convID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), conv.UnreadFor(f.bob.ID))

	// 重复标记幂等
	count, err = f.chatSvc.MarkRead(f.bob.ID, convID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMarkRead_NonParticipant(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	result, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "hello", "", "")
	require.NoError(t, err)

	_, err = f.chatSvc.MarkRead(f.carol.ID, result.Conversation.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.StatusOf(err))
}

func TestListMessages_ChronologicalAndMarksRead(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	var convID uint
	for _, text := range []string{"first", "second", "third"} {
		result, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, text, "", "")
		require.NoError(t, err)
		convID = result.Conversation.ID
	}

	page, err := f.chatSvc.ListMessages(f.bob.ID, convID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Messages, 3)
	assert.Equal(t, int64(3), page.Total)

	// 升序返回
	assert.Equal(t, "first", page.Messages[0].Content)
	assert.Equal(t, "third", page.Messages[2].Content)

	// 打开会话即已读
	conv, err := f.conversationRepo.GetByID(convID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), conv.UnreadFor(f.bob.ID))
}

func TestListConversations(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)
	f.befriend(t, f.alice, f.carol)

	_, err := f.chatSvc.SendMessage(f.bob.ID, f.alice.ID, "from bob", "", "")
	require.NoError(t, err)
	_, err = f.chatSvc.SendMessage(f.carol.ID, f.alice.ID, "from carol", "", "")
	require.NoError(t, err)

	summaries, err := f.chatSvc.ListConversations(f.alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	for _, s := range summaries {
		require.NotNil(t, s.OtherUser)
		require.NotNil(t, s.LastMessage)
		assert.Equal(t, int64(1), s.UnreadCount)
	}
}

func TestSoftDeleteAndRevive(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	result, err := f.chatSvc.SendMessage(f.alice.ID, f.bob.ID, "hello", "", "")
	require.NoError(t, err)
	convID := result.Conversation.ID

	require.NoError(t, f.chatSvc.SoftDelete(f.alice.ID, convID))

	summaries, err := f.chatSvc.ListConversations(f.alice.ID)
	require.NoError(t, err)
	assert.Len(t, summaries, 0)

	// 新消息使会话复活，历史消息保留
	second, err := f.chatSvc.SendMessage(f.bob.ID, f.alice.ID, "are you there", "", "")
	require.NoError(t, err)
	assert.Equal(t, convID, second.Conversation.ID)
	assert.True(t, second.Conversation.IsActive)

	page, err := f.chatSvc.ListMessages(f.alice.ID, convID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 2)
}

func TestGetOrCreateConversation(t *testing.T) {
	f := newFixture(t)

	// 非好友不能创建会话
	_, err := f.chatSvc.GetOrCreateConversation(f.alice.ID, f.bob.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.StatusOf(err))

	f.befriend(t, f.alice, f.bob)

	conv, err := f.chatSvc.GetOrCreateConversation(f.alice.ID, f.bob.ID)
	require.NoError(t, err)

	// 双方的未读key在创建时即初始化
	assert.Equal(t, int64(0), conv.UnreadFor(f.alice.ID))
	assert.Equal(t, int64(0), conv.UnreadFor(f.bob.ID))
	m := conv.UnreadCounts.Data()
	assert.Len(t, m, 2)

	again, err := f.chatSvc.GetOrCreateConversation(f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
}

func TestTotalUnread_RecomputedFromDB(t *testing.T) {
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)
	f.befriend(t, f.alice, f.carol)

	for i := 0; i < 2; i++ {
		_, err := f.chatSvc.SendMessage(f.bob.ID, f.alice.ID, "ping", "", "")
		require.NoError(t, err)
	}
	_, err := f.chatSvc.SendMessage(f.carol.ID, f.alice.ID, "ping", "", "")
	require.NoError(t, err)

	// 测试环境没有Redis，走数据库汇总路径
	total, err := f.chatSvc.TotalUnread(f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	_, err = f.chatSvc.SendMessage(f.bob.ID, f.alice.ID, "one more", "", "")
	require.NoError(t, err)

	total, err = f.chatSvc.TotalUnread(f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}
