package handler

import (
	"eventlink/internal/service"
	"eventlink/pkg/jwt"
	"eventlink/pkg/response"

	"github.com/gin-gonic/gin"
)

// EventHandler 活动处理器
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler 创建EventHandler实例
func NewEventHandler(s *service.EventService) *EventHandler {
	return &EventHandler{service: s}
}

// Create 创建活动（仅organizer）
func (h *EventHandler) Create(c *gin.Context) {
	userID := jwt.GetUserID(c)

	var in service.CreateEventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	event, err := h.service.CreateEvent(userID, in)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, "event created", event)
}

// Get 获取活动详情
func (h *EventHandler) Get(c *gin.Context) {
	eventID, ok := parseUintParam(c, "event_id")
	if !ok {
		return
	}

	event, err := h.service.GetEvent(eventID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, event)
}

// List 获取活动列表
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.ListEvents()
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, events)
}
