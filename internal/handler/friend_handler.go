package handler

import (
	"strconv"

	"eventlink/internal/service"
	"eventlink/pkg/jwt"
	"eventlink/pkg/response"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友关系处理器
type FriendHandler struct {
	service *service.FriendService
}

// NewFriendHandler 创建FriendHandler实例
func NewFriendHandler(s *service.FriendService) *FriendHandler {
	return &FriendHandler{service: s}
}

// parseUintParam 解析路径中的数字参数
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		response.BadRequest(c, name+" must be a valid ID")
		return 0, false
	}
	return uint(v), true
}

// SendRequest 发送好友请求
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID := jwt.GetUserID(c)

	type req struct {
		RecipientID uint `json:"recipient_id" binding:"required"`
		LobbyID     uint `json:"lobby_id" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	friendship, err := h.service.SendRequest(userID, r.RecipientID, r.LobbyID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, "friend request sent", friendship)
}

// Accept 接受好友请求
func (h *FriendHandler) Accept(c *gin.Context) {
	userID := jwt.GetUserID(c)
	requestID, ok := parseUintParam(c, "request_id")
	if !ok {
		return
	}

	friendship, err := h.service.Accept(requestID, userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "friend request accepted", friendship)
}

// Reject 拒绝好友请求
func (h *FriendHandler) Reject(c *gin.Context) {
	userID := jwt.GetUserID(c)
	requestID, ok := parseUintParam(c, "request_id")
	if !ok {
		return
	}

	friendship, err := h.service.Reject(requestID, userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "friend request rejected", friendship)
}

// Block 拉黑用户
func (h *FriendHandler) Block(c *gin.Context) {
	userID := jwt.GetUserID(c)
	targetID, ok := parseUintParam(c, "user_id")
	if !ok {
		return
	}

	friendship, err := h.service.Block(userID, targetID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "user blocked", friendship)
}

// Unblock 解除拉黑
func (h *FriendHandler) Unblock(c *gin.Context) {
	userID := jwt.GetUserID(c)
	targetID, ok := parseUintParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.service.Unblock(userID, targetID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "user unblocked", nil)
}

// Remove 删除好友
func (h *FriendHandler) Remove(c *gin.Context) {
	userID := jwt.GetUserID(c)
	friendshipID, ok := parseUintParam(c, "friendship_id")
	if !ok {
		return
	}

	if err := h.service.Remove(friendshipID, userID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "friend removed", nil)
}

// ListFriends 获取好友列表
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := jwt.GetUserID(c)

	friends, err := h.service.ListFriends(userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, friends)
}

// ListRequests 获取待处理的好友请求
func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID := jwt.GetUserID(c)

	requests, err := h.service.ListRequests(userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, requests)
}

// ListBlocked 获取拉黑列表
func (h *FriendHandler) ListBlocked(c *gin.Context) {
	userID := jwt.GetUserID(c)

	blocked, err := h.service.ListBlocked(userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, blocked)
}

// PotentialFriends 获取大厅中可添加的用户
func (h *FriendHandler) PotentialFriends(c *gin.Context) {
	userID := jwt.GetUserID(c)
	lobbyID, ok := parseUintParam(c, "lobby_id")
	if !ok {
		return
	}

	users, err := h.service.PotentialFriends(lobbyID, userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, users)
}

// Status 查询与某用户的关系状态
func (h *FriendHandler) Status(c *gin.Context) {
	userID := jwt.GetUserID(c)
	otherID, ok := parseUintParam(c, "user_id")
	if !ok {
		return
	}

	status, err := h.service.Status(userID, otherID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, status)
}
