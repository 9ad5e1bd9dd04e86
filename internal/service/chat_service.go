package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"eventlink/config"
	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/pkg/apperr"
	"eventlink/pkg/logger"
	"eventlink/pkg/redis"

	"go.uber.org/zap"
)

// ChatService 聊天服务
// 消息发送与已读回执的唯一权威路径：HTTP接口和连接网关都调用这里，
// 落库顺序固定为"先插消息、后更新会话计数"，崩溃时宁可计数偏低
type ChatService struct {
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	friendshipRepo   *repository.FriendshipRepository
	userRepo         *repository.UserRepository
	friendService    *FriendService
	cfg              config.ChatConfig
}

// NewChatService 创建ChatService实例
func NewChatService(
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	friendshipRepo *repository.FriendshipRepository,
	userRepo *repository.UserRepository,
	friendService *FriendService,
	cfg config.ChatConfig,
) *ChatService {
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = 2000
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &ChatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		friendshipRepo:   friendshipRepo,
		userRepo:         userRepo,
		friendService:    friendService,
		cfg:              cfg,
	}
}

// SendResult 消息发送结果
type SendResult struct {
	Message      *model.Message      `json:"message"`
	Conversation *model.Conversation `json:"conversation"`
	Sender       *model.User         `json:"sender"`
}

// SendMessage 向好友发送消息（HTTP路径，按接收方用户定位会话）
func (s *ChatService) SendMessage(senderID, recipientID uint, content, attachmentURL, attachmentType string) (*SendResult, error) {
	if senderID == recipientID {
		return nil, apperr.Validation("you cannot send a message to yourself")
	}

	content, err := s.validateContent(content, attachmentURL, attachmentType)
	if err != nil {
		return nil, err
	}

	f, err := s.friendService.CheckExistingConnection(senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.Status != model.FriendshipAccepted {
		return nil, apperr.NotFound("friendship not found or not accepted")
	}

	conv, err := s.conversationRepo.GetOrCreate(&model.Conversation{
		UserAID:      f.RequesterID,
		UserBID:      f.RecipientID,
		FriendshipID: f.ID,
		UnreadCounts: model.NewUnreadCounts(f.RequesterID, f.RecipientID),
		IsActive:     true,
		EventID:      f.EventID,
		LobbyID:      f.LobbyID,
	})
	if err != nil {
		return nil, err
	}

	return s.deliver(f, conv, senderID, recipientID, content, attachmentURL, attachmentType)
}

// SendToConversation 在已有会话中发送消息（实时路径，按会话ID定位）
func (s *ChatService) SendToConversation(senderID, conversationID uint, content, attachmentURL, attachmentType string) (*SendResult, error) {
	content, err := s.validateContent(content, attachmentURL, attachmentType)
	if err != nil {
		return nil, err
	}

	conv, err := s.GetConversationForUser(senderID, conversationID)
	if err != nil {
		return nil, err
	}

	// 会话存在不代表关系仍然有效，发送前重新校验
	f, err := s.friendshipRepo.GetByID(conv.FriendshipID)
	if err != nil || f.Status != model.FriendshipAccepted {
		return nil, apperr.Forbidden("friendship no longer active")
	}

	return s.deliver(f, conv, senderID, conv.OtherParticipant(senderID), content, attachmentURL, attachmentType)
}

// deliver 公共落库路径：插入消息，再更新会话的最后消息与未读计数
func (s *ChatService) deliver(f *model.Friendship, conv *model.Conversation, senderID, recipientID uint, content, attachmentURL, attachmentType string) (*SendResult, error) {
	msg := &model.Message{
		SenderID:       senderID,
		RecipientID:    recipientID,
		FriendshipID:   f.ID,
		Content:        content,
		AttachmentURL:  attachmentURL,
		AttachmentType: attachmentType,
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}

	conv.LastMessageID = &msg.ID
	conv.IncrementUnread(recipientID)
	conv.IsActive = true
	if err := s.conversationRepo.Save(conv); err != nil {
		return nil, err
	}

	f.LastInteraction = time.Now()
	if err := s.friendshipRepo.Save(f); err != nil {
		logger.Warn("更新好友互动时间失败", zap.Uint("friendship_id", f.ID), zap.Error(err))
	}

	// 缓存失效为尽力而为，失败只影响缓存命中率
	if err := redis.InvalidateTotalUnread(recipientID); err != nil {
		logger.Debug("清除未读缓存失败", zap.Uint("user_id", recipientID), zap.Error(err))
	}

	sender, err := s.userRepo.GetByID(senderID)
	if err != nil {
		return nil, err
	}
	return &SendResult{Message: msg, Conversation: conv, Sender: sender}, nil
}

// validateContent 校验消息内容与附件
func (s *ChatService) validateContent(content, attachmentURL, attachmentType string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("message content cannot be empty")
	}
	// 长度限制按字符数而不是字节数，中文等多字节内容不提前截断
	if utf8.RuneCountInString(content) > s.cfg.MaxContentLength {
		return "", apperr.Validation(fmt.Sprintf("message content cannot exceed %d characters", s.cfg.MaxContentLength))
	}
	if attachmentURL != "" {
		switch attachmentType {
		case model.AttachmentImage, model.AttachmentDocument, model.AttachmentAudio:
		default:
			return "", apperr.Validation("invalid attachment type")
		}
	}
	return content, nil
}

// GetConversationForUser 获取会话并校验调用者是参与者
func (s *ChatService) GetConversationForUser(userID, conversationID uint) (*model.Conversation, error) {
	conv, err := s.conversationRepo.GetByID(conversationID)
	if err != nil {
		return nil, apperr.NotFound("conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.Forbidden("you are not part of this conversation")
	}
	return conv, nil
}

// GetOrCreateConversation 获取或创建与某好友的会话
// 软删除的会话在这里复活而不是新建
func (s *ChatService) GetOrCreateConversation(userID, friendID uint) (*model.Conversation, error) {
	f, err := s.friendService.CheckExistingConnection(userID, friendID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.Status != model.FriendshipAccepted {
		return nil, apperr.NotFound("friendship not found or not accepted")
	}

	conv, err := s.conversationRepo.GetOrCreate(&model.Conversation{
		UserAID:      f.RequesterID,
		UserBID:      f.RecipientID,
		FriendshipID: f.ID,
		UnreadCounts: model.NewUnreadCounts(f.RequesterID, f.RecipientID),
		IsActive:     true,
		EventID:      f.EventID,
		LobbyID:      f.LobbyID,
	})
	if err != nil {
		return nil, err
	}
	if !conv.IsActive {
		conv.IsActive = true
		if err := s.conversationRepo.Save(conv); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

// MarkRead 将会话中发给当前用户的消息全部标记为已读
// 返回实际更新的条数，重复调用返回0
func (s *ChatService) MarkRead(userID, conversationID uint) (int64, error) {
	conv, err := s.GetConversationForUser(userID, conversationID)
	if err != nil {
		return 0, err
	}

	count, err := s.messageRepo.MarkConversationRead(conv.FriendshipID, userID)
	if err != nil {
		return 0, err
	}

	conv.ResetUnread(userID)
	if err := s.conversationRepo.Save(conv); err != nil {
		return 0, err
	}

	if err := redis.InvalidateTotalUnread(userID); err != nil {
		logger.Debug("清除未读缓存失败", zap.Uint("user_id", userID), zap.Error(err))
	}
	return count, nil
}

// MessagePage 消息分页结果，消息按时间升序排列
type MessagePage struct {
	Messages   []*model.Message `json:"messages"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int64            `json:"total"`
	TotalPages int64            `json:"total_pages"`
}

// ListMessages 分页获取会话消息，同时把发给当前用户的消息标记为已读
func (s *ChatService) ListMessages(userID, conversationID uint, page, limit int) (*MessagePage, error) {
	conv, err := s.GetConversationForUser(userID, conversationID)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	total, err := s.messageRepo.CountByFriendship(conv.FriendshipID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListByFriendship(conv.FriendshipID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	// 查询按时间倒序取最新一页，返回前翻转为升序方便客户端渲染
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	// 打开会话即视为已读
	if _, err := s.MarkRead(userID, conversationID); err != nil {
		return nil, err
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	return &MessagePage{
		Messages:   messages,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// ConversationSummary 会话列表项
type ConversationSummary struct {
	ID          uint           `json:"id"`
	OtherUser   *model.User    `json:"other_user"`
	LastMessage *model.Message `json:"last_message,omitempty"`
	UnreadCount int64          `json:"unread_count"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ListConversations 获取用户的活跃会话列表，按最近更新排序
func (s *ChatService) ListConversations(userID uint) ([]ConversationSummary, error) {
	conversations, err := s.conversationRepo.ListActiveByUser(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.OtherParticipant(userID))
	}
	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summary := ConversationSummary{
			ID:          c.ID,
			OtherUser:   users[c.OtherParticipant(userID)],
			UnreadCount: c.UnreadFor(userID),
			UpdatedAt:   c.UpdatedAt,
		}
		if c.LastMessageID != nil {
			if msg, err := s.messageRepo.GetByID(*c.LastMessageID); err == nil {
				summary.LastMessage = msg
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// SoftDelete 将会话标记为不活跃（仅对当前用户的列表隐藏逻辑简化为整体隐藏）
// 消息保留，双方任一方再次发消息时会话复活
func (s *ChatService) SoftDelete(userID, conversationID uint) error {
	conv, err := s.GetConversationForUser(userID, conversationID)
	if err != nil {
		return err
	}
	conv.IsActive = false
	return s.conversationRepo.Save(conv)
}

// TotalUnread 获取用户在全部活跃会话中的未读总数
// 优先读缓存，缓存缺失或不可用时从数据库汇总并回填
func (s *ChatService) TotalUnread(userID uint) (int64, error) {
	if cached, err := redis.GetTotalUnread(userID); err == nil && cached >= 0 {
		return cached, nil
	}

	conversations, err := s.conversationRepo.ListActiveByUser(userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range conversations {
		total += c.UnreadFor(userID)
	}

	if err := redis.SetTotalUnread(userID, total); err != nil {
		logger.Debug("回填未读缓存失败", zap.Uint("user_id", userID), zap.Error(err))
	}
	return total, nil
}
