package handler

import (
	"eventlink/internal/service"
	"eventlink/pkg/jwt"
	"eventlink/pkg/response"

	"github.com/gin-gonic/gin"
)

// LobbyHandler 大厅处理器
type LobbyHandler struct {
	service *service.LobbyService
}

// NewLobbyHandler 创建LobbyHandler实例
func NewLobbyHandler(s *service.LobbyService) *LobbyHandler {
	return &LobbyHandler{service: s}
}

// Create 在活动下创建大厅（仅活动组织者）
func (h *LobbyHandler) Create(c *gin.Context) {
	userID := jwt.GetUserID(c)
	eventID, ok := parseUintParam(c, "event_id")
	if !ok {
		return
	}

	var in service.CreateLobbyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	lobby, err := h.service.CreateLobby(userID, eventID, in)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, "lobby created", lobby)
}

// List 获取活动下的大厅列表
func (h *LobbyHandler) List(c *gin.Context) {
	eventID, ok := parseUintParam(c, "event_id")
	if !ok {
		return
	}

	lobbies, err := h.service.ListLobbies(eventID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, lobbies)
}

// Join 加入大厅（仅已核销参会者）
func (h *LobbyHandler) Join(c *gin.Context) {
	userID := jwt.GetUserID(c)
	lobbyID, ok := parseUintParam(c, "lobby_id")
	if !ok {
		return
	}

	lobby, err := h.service.Join(userID, lobbyID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "joined lobby", lobby)
}

// Leave 离开大厅
func (h *LobbyHandler) Leave(c *gin.Context) {
	userID := jwt.GetUserID(c)
	lobbyID, ok := parseUintParam(c, "lobby_id")
	if !ok {
		return
	}

	if err := h.service.Leave(userID, lobbyID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "left lobby", nil)
}

// Members 获取大厅成员列表
func (h *LobbyHandler) Members(c *gin.Context) {
	userID := jwt.GetUserID(c)
	lobbyID, ok := parseUintParam(c, "lobby_id")
	if !ok {
		return
	}

	members, err := h.service.Members(userID, lobbyID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, members)
}
