package handler

import (
	"strconv"

	"eventlink/internal/service"
	"eventlink/pkg/jwt"
	"eventlink/pkg/response"

	"github.com/gin-gonic/gin"
)

// ChatHandler 聊天处理器
// 与连接网关共用同一个ChatService，HTTP路径不做实时推送
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler 创建ChatHandler实例
func NewChatHandler(s *service.ChatService) *ChatHandler {
	return &ChatHandler{service: s}
}

// SendMessage 发送消息
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := jwt.GetUserID(c)

	type req struct {
		RecipientID    uint   `json:"recipient_id" binding:"required"`
		Content        string `json:"content"`
		AttachmentURL  string `json:"attachment_url"`
		AttachmentType string `json:"attachment_type"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SendMessage(userID, r.RecipientID, r.Content, r.AttachmentURL, r.AttachmentType)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, "message sent", gin.H{
		"message":         result.Message,
		"conversation_id": result.Conversation.ID,
	})
}

// GetOrCreateConversation 获取或创建与某好友的会话
func (h *ChatHandler) GetOrCreateConversation(c *gin.Context) {
	userID := jwt.GetUserID(c)
	friendID, ok := parseUintParam(c, "user_id")
	if !ok {
		return
	}

	conversation, err := h.service.GetOrCreateConversation(userID, friendID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, conversation)
}

// ListConversations 获取会话列表
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := jwt.GetUserID(c)

	conversations, err := h.service.ListConversations(userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, conversations)
}

// ListMessages 分页获取会话消息（打开会话即标记已读）
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID := jwt.GetUserID(c)
	conversationID, ok := parseUintParam(c, "conversation_id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	messages, err := h.service.ListMessages(userID, conversationID, page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, messages)
}

// MarkRead 标记会话已读
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := jwt.GetUserID(c)
	conversationID, ok := parseUintParam(c, "conversation_id")
	if !ok {
		return
	}

	count, err := h.service.MarkRead(userID, conversationID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "messages marked as read", gin.H{
		"count": count,
	})
}

// DeleteConversation 隐藏会话（软删除）
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID := jwt.GetUserID(c)
	conversationID, ok := parseUintParam(c, "conversation_id")
	if !ok {
		return
	}

	if err := h.service.SoftDelete(userID, conversationID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "conversation deleted", nil)
}

// UnreadCount 获取未读消息总数
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID := jwt.GetUserID(c)

	total, err := h.service.TotalUnread(userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"unread_count": total,
	})
}
