package service

import (
	"fmt"
	"sort"
	"time"

	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/pkg/apperr"
)

// FriendService 好友关系服务
// 好友状态机与消息授权的唯一判定点：HTTP接口和连接网关都经由这里检查，
// 避免两条链路各自实现检查逻辑产生偏差
type FriendService struct {
	friendshipRepo  *repository.FriendshipRepository
	userRepo        *repository.UserRepository
	lobbyRepo       *repository.LobbyRepository
	participantRepo *repository.ParticipantRepository
}

// NewFriendService 创建FriendService实例
func NewFriendService(
	friendshipRepo *repository.FriendshipRepository,
	userRepo *repository.UserRepository,
	lobbyRepo *repository.LobbyRepository,
	participantRepo *repository.ParticipantRepository,
) *FriendService {
	return &FriendService{
		friendshipRepo:  friendshipRepo,
		userRepo:        userRepo,
		lobbyRepo:       lobbyRepo,
		participantRepo: participantRepo,
	}
}

// CheckExistingConnection 查询两个用户之间的关系记录（方向无关）
// 不存在时返回 (nil, nil)
func (s *FriendService) CheckExistingConnection(userA, userB uint) (*model.Friendship, error) {
	f, err := s.friendshipRepo.GetBetween(userA, userB)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// CanMessage 判断两个用户之间是否存在已接受的好友关系
// 发送消息和创建会话前都必须通过此检查
func (s *FriendService) CanMessage(userA, userB uint) (bool, error) {
	f, err := s.CheckExistingConnection(userA, userB)
	if err != nil {
		return false, err
	}
	return f != nil && f.Status == model.FriendshipAccepted, nil
}

// SendRequest 发送好友请求
// 双方必须同在指定大厅，且都是该大厅所属活动的已核销参会者
func (s *FriendService) SendRequest(requesterID, recipientID, lobbyID uint) (*model.Friendship, error) {
	if requesterID == recipientID {
		return nil, apperr.Validation("you cannot send a friend request to yourself")
	}

	lobby, err := s.lobbyRepo.GetByID(lobbyID)
	if err != nil {
		return nil, apperr.NotFound("lobby not found")
	}

	// 双方必须在同一大厅
	requesterIn, err := s.lobbyRepo.IsMember(lobbyID, requesterID)
	if err != nil {
		return nil, err
	}
	recipientIn, err := s.lobbyRepo.IsMember(lobbyID, recipientID)
	if err != nil {
		return nil, err
	}
	if !requesterIn || !recipientIn {
		return nil, apperr.Forbidden("both users must be in the same lobby to send a friend request")
	}

	// 双方必须是活动的已核销参会者
	requesterVerified, err := s.participantRepo.IsVerified(requesterID, lobby.EventID)
	if err != nil {
		return nil, err
	}
	recipientVerified, err := s.participantRepo.IsVerified(recipientID, lobby.EventID)
	if err != nil {
		return nil, err
	}
	if !requesterVerified || !recipientVerified {
		return nil, apperr.Forbidden("both users must be verified participants of the event")
	}

	// 任一方向已存在关系则拒绝重复创建
	existing, err := s.CheckExistingConnection(requesterID, recipientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("a connection already exists between these users")
	}

	f := &model.Friendship{
		RequesterID:     requesterID,
		RecipientID:     recipientID,
		Status:          model.FriendshipPending,
		EventID:         lobby.EventID,
		LobbyID:         lobbyID,
		LastInteraction: time.Now(),
	}
	if err := s.friendshipRepo.Create(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Accept 接受好友请求（仅接收方，仅pending状态）
func (s *FriendService) Accept(requestID, userID uint) (*model.Friendship, error) {
	return s.respond(requestID, userID, model.FriendshipAccepted)
}

// Reject 拒绝好友请求（仅接收方，仅pending状态）
func (s *FriendService) Reject(requestID, userID uint) (*model.Friendship, error) {
	return s.respond(requestID, userID, model.FriendshipRejected)
}

func (s *FriendService) respond(requestID, userID uint, status string) (*model.Friendship, error) {
	f, err := s.friendshipRepo.GetByID(requestID)
	if err != nil {
		return nil, apperr.NotFound("friend request not found")
	}

	if f.RecipientID != userID {
		if status == model.FriendshipAccepted {
			return nil, apperr.Forbidden("you can only accept friend requests sent to you")
		}
		return nil, apperr.Forbidden("you can only reject friend requests sent to you")
	}

	if f.Status != model.FriendshipPending {
		return nil, apperr.Validation(fmt.Sprintf("this friend request is already %s", f.Status))
	}

	f.Status = status
	f.LastInteraction = time.Now()
	if err := s.friendshipRepo.Save(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Block 拉黑用户
// 已有关系时升级为blocked；没有关系时仅允许拉黑同过大厅的用户
func (s *FriendService) Block(userID, targetID uint) (*model.Friendship, error) {
	if userID == targetID {
		return nil, apperr.Validation("you cannot block yourself")
	}

	existing, err := s.CheckExistingConnection(userID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// 拉黑方成为requester，解除拉黑时以此判定操作权限
		if existing.RequesterID != userID {
			existing.RequesterID, existing.RecipientID = existing.RecipientID, existing.RequesterID
		}
		existing.Status = model.FriendshipBlocked
		existing.LastInteraction = time.Now()
		if err := s.friendshipRepo.Save(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	// 没有现成关系：找到双方共同参与的活动和大厅
	participations, err := s.participantRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	var sharedLobby *model.Lobby
	for _, p := range participations {
		lobby, err := s.lobbyRepo.FindShared(p.EventID, userID, targetID)
		if err == nil {
			sharedLobby = lobby
			break
		}
		if !repository.IsNotFound(err) {
			return nil, err
		}
	}
	if sharedLobby == nil {
		return nil, apperr.Validation("you can only block users you've shared a lobby with")
	}

	f := &model.Friendship{
		RequesterID:     userID,
		RecipientID:     targetID,
		Status:          model.FriendshipBlocked,
		EventID:         sharedLobby.EventID,
		LobbyID:         sharedLobby.ID,
		LastInteraction: time.Now(),
	}
	if err := s.friendshipRepo.Create(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Unblock 解除拉黑（仅拉黑发起方），直接删除关系记录
func (s *FriendService) Unblock(userID, targetID uint) error {
	f, err := s.CheckExistingConnection(userID, targetID)
	if err != nil {
		return err
	}
	if f == nil || f.Status != model.FriendshipBlocked || f.RequesterID != userID {
		return apperr.NotFound("no block relationship found with this user")
	}
	return s.friendshipRepo.Delete(f.ID)
}

// Remove 删除好友（仅accepted状态，双方任一方），直接删除关系记录
func (s *FriendService) Remove(friendshipID, userID uint) error {
	f, err := s.friendshipRepo.GetByID(friendshipID)
	if err != nil {
		return apperr.NotFound("friendship not found")
	}
	if !f.Involves(userID) {
		return apperr.Forbidden("you are not part of this friendship")
	}
	if f.Status != model.FriendshipAccepted {
		return apperr.Validation("this is not an active friendship")
	}
	return s.friendshipRepo.Delete(f.ID)
}

// FriendInfo 好友列表项
type FriendInfo struct {
	FriendshipID uint        `json:"friendship_id"`
	Friend       *model.User `json:"friend"`
	EventID      uint        `json:"event_id"`
	LobbyID      uint        `json:"lobby_id"`
	Since        time.Time   `json:"since"`
}

// ListFriends 获取好友列表，按最近互动排序
func (s *FriendService) ListFriends(userID uint) ([]FriendInfo, error) {
	friendships, err := s.friendshipRepo.ListByUserAndStatus(userID, model.FriendshipAccepted)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.OtherUser(userID))
	}
	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	friends := make([]FriendInfo, 0, len(friendships))
	for _, f := range friendships {
		friends = append(friends, FriendInfo{
			FriendshipID: f.ID,
			Friend:       users[f.OtherUser(userID)],
			EventID:      f.EventID,
			LobbyID:      f.LobbyID,
			Since:        f.UpdatedAt,
		})
	}
	sort.Slice(friends, func(i, j int) bool {
		return friends[i].Since.After(friends[j].Since)
	})
	return friends, nil
}

// RequestInfo 好友请求列表项
type RequestInfo struct {
	RequestID uint        `json:"request_id"`
	User      *model.User `json:"user"`
	EventID   uint        `json:"event_id"`
	LobbyID   uint        `json:"lobby_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// PendingRequests 收到和发出的待处理请求
type PendingRequests struct {
	Received []RequestInfo `json:"received"`
	Sent     []RequestInfo `json:"sent"`
}

// ListRequests 获取用户的待处理好友请求
func (s *FriendService) ListRequests(userID uint) (*PendingRequests, error) {
	received, err := s.friendshipRepo.ListPendingReceived(userID)
	if err != nil {
		return nil, err
	}
	sent, err := s.friendshipRepo.ListPendingSent(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(received)+len(sent))
	for _, f := range received {
		ids = append(ids, f.RequesterID)
	}
	for _, f := range sent {
		ids = append(ids, f.RecipientID)
	}
	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	result := &PendingRequests{
		Received: make([]RequestInfo, 0, len(received)),
		Sent:     make([]RequestInfo, 0, len(sent)),
	}
	for _, f := range received {
		result.Received = append(result.Received, RequestInfo{
			RequestID: f.ID,
			User:      users[f.RequesterID],
			EventID:   f.EventID,
			LobbyID:   f.LobbyID,
			CreatedAt: f.CreatedAt,
		})
	}
	for _, f := range sent {
		result.Sent = append(result.Sent, RequestInfo{
			RequestID: f.ID,
			User:      users[f.RecipientID],
			EventID:   f.EventID,
			LobbyID:   f.LobbyID,
			CreatedAt: f.CreatedAt,
		})
	}
	return result, nil
}

// ListBlocked 获取用户主动拉黑的用户列表
func (s *FriendService) ListBlocked(userID uint) ([]FriendInfo, error) {
	friendships, err := s.friendshipRepo.ListBlockedBy(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.RecipientID)
	}
	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	blocked := make([]FriendInfo, 0, len(friendships))
	for _, f := range friendships {
		blocked = append(blocked, FriendInfo{
			FriendshipID: f.ID,
			Friend:       users[f.RecipientID],
			EventID:      f.EventID,
			LobbyID:      f.LobbyID,
			Since:        f.LastInteraction,
		})
	}
	return blocked, nil
}

// PotentialFriends 大厅中尚未建立任何关系的成员
func (s *FriendService) PotentialFriends(lobbyID, userID uint) ([]*model.User, error) {
	if _, err := s.lobbyRepo.GetByID(lobbyID); err != nil {
		return nil, apperr.NotFound("lobby not found")
	}

	isMember, err := s.lobbyRepo.IsMember(lobbyID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Forbidden("you must be in this lobby to see potential friends")
	}

	memberIDs, err := s.lobbyRepo.MemberIDs(lobbyID)
	if err != nil {
		return nil, err
	}

	// 已有任何方向关系的用户都排除
	connections, err := s.friendshipRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	connected := make(map[uint]bool, len(connections))
	for _, f := range connections {
		connected[f.OtherUser(userID)] = true
	}

	candidateIDs := make([]uint, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != userID && !connected[id] {
			candidateIDs = append(candidateIDs, id)
		}
	}

	users, err := s.userRepo.GetByIDs(candidateIDs)
	if err != nil {
		return nil, err
	}
	result := make([]*model.User, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if u, ok := users[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

// StatusInfo 两个用户之间的关系状态报告
type StatusInfo struct {
	Status       string `json:"status"`
	ConnectionID uint   `json:"connection_id,omitempty"`
	Direction    string `json:"direction,omitempty"`
	Message      string `json:"message"`
}

// Status 查询与另一个用户的关系状态
func (s *FriendService) Status(userID, otherUserID uint) (*StatusInfo, error) {
	if userID == otherUserID {
		return nil, apperr.Validation("cannot check friendship status with yourself")
	}

	f, err := s.CheckExistingConnection(userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return &StatusInfo{
			Status:  "none",
			Message: "no connection exists between these users",
		}, nil
	}

	info := &StatusInfo{Status: f.Status, ConnectionID: f.ID}
	switch f.Status {
	case model.FriendshipPending:
		if f.RequesterID == userID {
			info.Direction = "outgoing"
			info.Message = "you sent a friend request to this user"
		} else {
			info.Direction = "incoming"
			info.Message = "this user sent you a friend request"
		}
	case model.FriendshipAccepted:
		info.Message = "you are friends with this user"
	case model.FriendshipRejected:
		if f.RequesterID == userID {
			info.Message = "your friend request was rejected"
		} else {
			info.Message = "you rejected this user's friend request"
		}
	case model.FriendshipBlocked:
		if f.RequesterID == userID {
			info.Message = "you have blocked this user"
		} else {
			info.Message = "you have been blocked by this user"
		}
	}
	return info, nil
}
