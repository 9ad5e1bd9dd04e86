package service

import (
	"strings"
	"time"

	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/pkg/apperr"
)

// EventService 活动服务
type EventService struct {
	eventRepo *repository.EventRepository
	userRepo  *repository.UserRepository
}

// NewEventService 创建EventService实例
func NewEventService(eventRepo *repository.EventRepository, userRepo *repository.UserRepository) *EventService {
	return &EventService{eventRepo: eventRepo, userRepo: userRepo}
}

// CreateEventInput 创建活动的参数
type CreateEventInput struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
}

// CreateEvent 创建活动（仅organizer和admin）
func (s *EventService) CreateEvent(creatorID uint, in CreateEventInput) (*model.Event, error) {
	creator, err := s.userRepo.GetByID(creatorID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}
	if creator.Role != model.RoleOrganizer && creator.Role != model.RoleAdmin {
		return nil, apperr.Forbidden("only organizers can create events")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("event name is required")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, apperr.Validation("event end date must be after start date")
	}

	event := &model.Event{
		Name:        name,
		Description: in.Description,
		Location:    in.Location,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedBy:   creatorID,
		IsActive:    true,
	}
	if err := s.eventRepo.Create(event); err != nil {
		return nil, err
	}
	return event, nil
}

// GetEvent 获取活动详情
func (s *EventService) GetEvent(eventID uint) (*model.Event, error) {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, apperr.NotFound("event not found")
	}
	return event, nil
}

// ListEvents 获取全部活跃活动
func (s *EventService) ListEvents() ([]*model.Event, error) {
	return s.eventRepo.ListActive()
}

// IsOrganizerOf 判断用户是否为活动的组织者（创建者或admin）
func (s *EventService) IsOrganizerOf(userID, eventID uint) (bool, error) {
	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return false, apperr.NotFound("event not found")
	}
	if event.CreatedBy == userID {
		return true, nil
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return false, err
	}
	return u.Role == model.RoleAdmin, nil
}
