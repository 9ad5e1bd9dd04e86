package handler

import (
	"eventlink/internal/service"
	"eventlink/pkg/jwt"
	"eventlink/pkg/response"

	"github.com/gin-gonic/gin"
)

// ParticipantHandler 报名与签到处理器
type ParticipantHandler struct {
	service *service.ParticipantService
}

// NewParticipantHandler 创建ParticipantHandler实例
func NewParticipantHandler(s *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{service: s}
}

// Register 报名参加活动
func (h *ParticipantHandler) Register(c *gin.Context) {
	userID := jwt.GetUserID(c)
	eventID, ok := parseUintParam(c, "event_id")
	if !ok {
		return
	}

	type req struct {
		Phone string `json:"phone"`
	}
	var r req
	_ = c.ShouldBindJSON(&r)

	participant, err := h.service.Register(userID, eventID, r.Phone)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	// 签到码只在报名响应中返回一次
	response.Created(c, "registration successful", gin.H{
		"participant": participant,
		"code":        participant.Code,
	})
}

// CheckIn 核销签到码（仅活动组织者）
func (h *ParticipantHandler) CheckIn(c *gin.Context) {
	userID := jwt.GetUserID(c)
	eventID, ok := parseUintParam(c, "event_id")
	if !ok {
		return
	}

	type req struct {
		Code string `json:"code" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	participant, err := h.service.CheckIn(userID, eventID, r.Code)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "participant checked in", participant)
}

// MyRegistration 查询当前用户在某活动的报名状态
func (h *ParticipantHandler) MyRegistration(c *gin.Context) {
	userID := jwt.GetUserID(c)
	eventID, ok := parseUintParam(c, "event_id")
	if !ok {
		return
	}

	participant, err := h.service.MyRegistration(userID, eventID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, participant)
}

// List 查询活动的全部报名记录（仅活动组织者）
func (h *ParticipantHandler) List(c *gin.Context) {
	userID := jwt.GetUserID(c)
	eventID, ok := parseUintParam(c, "event_id")
	if !ok {
		return
	}

	participants, err := h.service.ListRegistrations(userID, eventID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, participants)
}
