package handler

import (
	"eventlink/internal/service"
	"eventlink/pkg/jwt"
	"eventlink/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler 创建UserHandler实例
func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// Register 注册
func (h *UserHandler) Register(c *gin.Context) {
	type req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Role     string `json:"role"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.service.Register(r.Username, r.Email, r.Password, r.Role)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, "registration successful", gin.H{
		"user":  user,
		"token": token,
	})
}

// Login 登录
func (h *UserHandler) Login(c *gin.Context) {
	type req struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.service.Login(r.Identifier, r.Password)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

// GetProfile 获取当前用户资料
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := jwt.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "invalid user ID")
		return
	}

	user, err := h.service.GetProfile(userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, user)
}
