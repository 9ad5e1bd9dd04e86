package service

import (
	"strings"

	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/pkg/apperr"
)

// LobbyService 大厅服务
// 只有已核销的参会者才能加入大厅；人数上限为0时不限制
type LobbyService struct {
	lobbyRepo          *repository.LobbyRepository
	userRepo           *repository.UserRepository
	participantRepo    *repository.ParticipantRepository
	eventService       *EventService
	participantService *ParticipantService
}

// NewLobbyService 创建LobbyService实例
func NewLobbyService(
	lobbyRepo *repository.LobbyRepository,
	userRepo *repository.UserRepository,
	participantRepo *repository.ParticipantRepository,
	eventService *EventService,
	participantService *ParticipantService,
) *LobbyService {
	return &LobbyService{
		lobbyRepo:          lobbyRepo,
		userRepo:           userRepo,
		participantRepo:    participantRepo,
		eventService:       eventService,
		participantService: participantService,
	}
}

// CreateLobbyInput 创建大厅的参数
type CreateLobbyInput struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"max_participants"`
	LobbyType       string `json:"lobby_type"`
}

// CreateLobby 在活动下创建大厅（仅活动组织者）
func (s *LobbyService) CreateLobby(creatorID, eventID uint, in CreateLobbyInput) (*model.Lobby, error) {
	isOrganizer, err := s.eventService.IsOrganizerOf(creatorID, eventID)
	if err != nil {
		return nil, err
	}
	if !isOrganizer {
		return nil, apperr.Forbidden("only the event organizer can create lobbies")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("lobby name is required")
	}
	if in.MaxParticipants < 0 {
		return nil, apperr.Validation("max participants cannot be negative")
	}
	lobbyType := in.LobbyType
	switch lobbyType {
	case "":
		lobbyType = model.LobbyTypeGeneral
	case model.LobbyTypeGeneral, model.LobbyTypeWorkshop, model.LobbyTypeNetworking, model.LobbyTypePresentation:
	default:
		return nil, apperr.Validation("invalid lobby type")
	}

	lobby := &model.Lobby{
		Name:            name,
		EventID:         eventID,
		Description:     in.Description,
		MaxParticipants: in.MaxParticipants,
		LobbyType:       lobbyType,
		IsActive:        true,
		CreatedBy:       creatorID,
	}
	if err := s.lobbyRepo.Create(lobby); err != nil {
		return nil, err
	}
	return lobby, nil
}

// ListLobbies 查询活动下的大厅列表
func (s *LobbyService) ListLobbies(eventID uint) ([]*model.Lobby, error) {
	if _, err := s.eventService.GetEvent(eventID); err != nil {
		return nil, err
	}
	return s.lobbyRepo.ListByEvent(eventID)
}

// Join 加入大厅
// 仅限该活动已核销的参会者；有容量上限的大厅满员后不可加入
func (s *LobbyService) Join(userID, lobbyID uint) (*model.Lobby, error) {
	lobby, err := s.lobbyRepo.GetByID(lobbyID)
	if err != nil {
		return nil, apperr.NotFound("lobby not found")
	}
	if !lobby.IsActive {
		return nil, apperr.Validation("this lobby is no longer active")
	}

	verified, err := s.participantRepo.IsVerified(userID, lobby.EventID)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, apperr.Forbidden("only checked-in participants can join lobbies")
	}

	isMember, err := s.lobbyRepo.IsMember(lobbyID, userID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return lobby, nil
	}

	if lobby.MaxParticipants > 0 {
		count, err := s.lobbyRepo.CountMembers(lobbyID)
		if err != nil {
			return nil, err
		}
		if count >= int64(lobby.MaxParticipants) {
			return nil, apperr.Validation("this lobby is full")
		}
	}

	if err := s.lobbyRepo.AddMember(lobbyID, userID); err != nil {
		return nil, err
	}
	// 记录大厅访问时间，失败不影响加入结果
	_ = s.participantService.TouchLobbyAccess(userID, lobby.EventID)
	return lobby, nil
}

// Leave 离开大厅
func (s *LobbyService) Leave(userID, lobbyID uint) error {
	if _, err := s.lobbyRepo.GetByID(lobbyID); err != nil {
		return apperr.NotFound("lobby not found")
	}
	isMember, err := s.lobbyRepo.IsMember(lobbyID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return apperr.Validation("you are not in this lobby")
	}
	return s.lobbyRepo.RemoveMember(lobbyID, userID)
}

// Members 查询大厅成员（仅大厅内成员可见）
func (s *LobbyService) Members(userID, lobbyID uint) ([]*model.User, error) {
	if _, err := s.lobbyRepo.GetByID(lobbyID); err != nil {
		return nil, apperr.NotFound("lobby not found")
	}
	isMember, err := s.lobbyRepo.IsMember(lobbyID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Forbidden("you must be in this lobby to see its members")
	}

	ids, err := s.lobbyRepo.MemberIDs(lobbyID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	members := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			members = append(members, u)
		}
	}
	return members, nil
}
