package service

import (
	"strings"
	"time"

	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/pkg/apperr"

	"github.com/google/uuid"
)

// ParticipantService 报名与签到服务
// 报名生成一次性签到码，现场由组织者核销后参会者才能进入大厅
type ParticipantService struct {
	participantRepo *repository.ParticipantRepository
	eventRepo       *repository.EventRepository
	eventService    *EventService
}

// NewParticipantService 创建ParticipantService实例
func NewParticipantService(
	participantRepo *repository.ParticipantRepository,
	eventRepo *repository.EventRepository,
	eventService *EventService,
) *ParticipantService {
	return &ParticipantService{
		participantRepo: participantRepo,
		eventRepo:       eventRepo,
		eventService:    eventService,
	}
}

// Register 报名参加活动，返回包含签到码的报名记录
func (s *ParticipantService) Register(userID, eventID uint, phone string) (*model.Participant, error) {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, apperr.NotFound("event not found")
	}
	if !event.IsActive {
		return nil, apperr.Validation("this event is no longer active")
	}
	if time.Now().After(event.EndDate) {
		return nil, apperr.Validation("this event has already ended")
	}

	if _, err := s.participantRepo.GetByUserAndEvent(userID, eventID); err == nil {
		return nil, apperr.Validation("you are already registered for this event")
	}

	p := &model.Participant{
		UserID:  userID,
		EventID: eventID,
		Phone:   strings.TrimSpace(phone),
		Code:    newAttendanceCode(),
	}
	if err := s.participantRepo.Create(p); err != nil {
		return nil, apperr.Validation("you are already registered for this event")
	}
	return p, nil
}

// newAttendanceCode 生成签到码（UUID前8段，去掉连字符后大写）
func newAttendanceCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}

// CheckIn 核销签到码（仅活动组织者）
// 核销后参会者成为已核销状态，获得进入大厅的资格
func (s *ParticipantService) CheckIn(organizerID, eventID uint, code string) (*model.Participant, error) {
	isOrganizer, err := s.eventService.IsOrganizerOf(organizerID, eventID)
	if err != nil {
		return nil, err
	}
	if !isOrganizer {
		return nil, apperr.Forbidden("only the event organizer can check in participants")
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	p, err := s.participantRepo.GetByCode(eventID, code)
	if err != nil {
		return nil, apperr.NotFound("invalid attendance code")
	}
	if p.IsPresent {
		return nil, apperr.Validation("this attendance code has already been used")
	}

	now := time.Now()
	p.IsPresent = true
	p.PresentTime = &now
	if err := s.participantRepo.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// MyRegistration 查询当前用户在某活动的报名记录
func (s *ParticipantService) MyRegistration(userID, eventID uint) (*model.Participant, error) {
	p, err := s.participantRepo.GetByUserAndEvent(userID, eventID)
	if err != nil {
		return nil, apperr.NotFound("you are not registered for this event")
	}
	return p, nil
}

// ListRegistrations 查询活动的全部报名记录（仅活动组织者）
func (s *ParticipantService) ListRegistrations(organizerID, eventID uint) ([]*model.Participant, error) {
	isOrganizer, err := s.eventService.IsOrganizerOf(organizerID, eventID)
	if err != nil {
		return nil, err
	}
	if !isOrganizer {
		return nil, apperr.Forbidden("only the event organizer can list participants")
	}
	return s.participantRepo.ListByEvent(eventID)
}

// TouchLobbyAccess 记录参会者的大厅访问时间
func (s *ParticipantService) TouchLobbyAccess(userID, eventID uint) error {
	p, err := s.participantRepo.GetByUserAndEvent(userID, eventID)
	if err != nil {
		return apperr.NotFound("you are not registered for this event")
	}
	now := time.Now()
	if !p.HasAccessedLobby {
		p.HasAccessedLobby = true
		p.FirstLobbyAccess = &now
	}
	p.LastLobbyAccess = &now
	return s.participantRepo.Save(p)
}
