package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventlink/config"
	"eventlink/internal/handler"
	"eventlink/internal/model"
	"eventlink/internal/repository"
	"eventlink/internal/service"
	dbPkg "eventlink/pkg/db"
	"eventlink/pkg/jwt"
	"eventlink/pkg/logger"
	"eventlink/pkg/ratelimit"
	redisPkg "eventlink/pkg/redis"
	"eventlink/pkg/response"
	"eventlink/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("=== EventLink 启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.Int("database_port", cfg.Database.Port),
		zap.String("database_name", cfg.Database.Database),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 初始化数据库连接
	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	// 3.1 自动迁移表结构
	if err := dbPkg.AutoMigrate(model.AllModels()...); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 3.2 初始化Redis（失败不阻塞启动，在线状态与未读缓存降级为不可用）
	if err := redisPkg.InitRedis(cfg.Redis); err != nil {
		log.Warn("Redis连接失败，在线状态缓存不可用", zap.Error(err))
	} else {
		defer redisPkg.Close()
		log.Info("Redis连接成功")
	}

	// 3.3 初始化业务服务
	jwtSvc := jwt.NewJWTService(cfg.JWT)

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	lobbyRepo := repository.NewLobbyRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	userSvc := service.NewUserService(userRepo, jwtSvc)
	eventSvc := service.NewEventService(eventRepo, userRepo)
	participantSvc := service.NewParticipantService(participantRepo, eventRepo, eventSvc)
	lobbySvc := service.NewLobbyService(lobbyRepo, userRepo, participantRepo, eventSvc, participantSvc)
	friendSvc := service.NewFriendService(friendshipRepo, userRepo, lobbyRepo, participantRepo)
	chatSvc := service.NewChatService(conversationRepo, messageRepo, friendshipRepo, userRepo, friendSvc, cfg.Chat)

	userHandler := handler.NewUserHandler(userSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	lobbyHandler := handler.NewLobbyHandler(lobbySvc)
	participantHandler := handler.NewParticipantHandler(participantSvc)
	friendHandler := handler.NewFriendHandler(friendSvc)
	chatHandler := handler.NewChatHandler(chatSvc)

	// 3.4 初始化连接网关
	hub := websocket.NewHub()
	gateway := websocket.NewGateway(hub, chatSvc, friendSvc, userRepo, friendshipRepo, jwtSvc, cfg.WebSocket)

	// 4. 设置Gin模式
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 5. 创建Gin路由
	router := gin.New()
	router.Use(logger.LoggerMiddleware())
	router.Use(logger.ErrorLoggerMiddleware())
	if cfg.RateLimit.Enabled {
		router.Use(ratelimit.Middleware(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst))
	}

	// 6. 基础路由
	setupBasicRoutes(router)

	// 6.1 业务路由
	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			// 公开接口（无需认证）
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			authUsers := users.Group("")
			authUsers.Use(jwtSvc.AuthMiddleware())
			{
				authUsers.GET("/profile", userHandler.GetProfile)
			}
		}

		// 活动路由
		events := v1.Group("/events")
		events.Use(jwtSvc.AuthMiddleware())
		{
			events.POST("", eventHandler.Create)
			events.GET("", eventHandler.List)
			events.GET("/:event_id", eventHandler.Get)
			events.GET("/:event_id/lobbies", lobbyHandler.List)
			events.POST("/:event_id/lobbies", lobbyHandler.Create)
			events.POST("/:event_id/register", participantHandler.Register)
			events.POST("/:event_id/check-in", participantHandler.CheckIn)
			events.GET("/:event_id/registration", participantHandler.MyRegistration)
			events.GET("/:event_id/participants", participantHandler.List)
		}

		// 大厅路由
		lobbies := v1.Group("/lobbies")
		lobbies.Use(jwtSvc.AuthMiddleware())
		{
			lobbies.POST("/:lobby_id/join", lobbyHandler.Join)
			lobbies.POST("/:lobby_id/leave", lobbyHandler.Leave)
			lobbies.GET("/:lobby_id/members", lobbyHandler.Members)
			lobbies.GET("/:lobby_id/potential-friends", friendHandler.PotentialFriends)
		}

		// 好友关系路由
		friends := v1.Group("/friends")
		friends.Use(jwtSvc.AuthMiddleware())
		{
			friends.POST("/requests", friendHandler.SendRequest)
			friends.PUT("/requests/:request_id/accept", friendHandler.Accept)
			friends.PUT("/requests/:request_id/reject", friendHandler.Reject)
			friends.GET("/requests", friendHandler.ListRequests)
			friends.GET("", friendHandler.ListFriends)
			friends.DELETE("/:friendship_id", friendHandler.Remove)
			friends.GET("/blocked", friendHandler.ListBlocked)
			friends.POST("/block/:user_id", friendHandler.Block)
			friends.DELETE("/block/:user_id", friendHandler.Unblock)
			friends.GET("/status/:user_id", friendHandler.Status)
		}

		// 聊天路由
		chat := v1.Group("/chat")
		chat.Use(jwtSvc.AuthMiddleware())
		{
			chat.POST("/messages", chatHandler.SendMessage)
			chat.GET("/conversations", chatHandler.ListConversations)
			chat.GET("/conversations/with/:user_id", chatHandler.GetOrCreateConversation)
			chat.GET("/conversations/:conversation_id/messages", chatHandler.ListMessages)
			chat.PUT("/conversations/:conversation_id/read", chatHandler.MarkRead)
			chat.DELETE("/conversations/:conversation_id", chatHandler.DeleteConversation)
			chat.GET("/unread/count", chatHandler.UnreadCount)
		}
	}

	// WebSocket路由（网关自行完成token鉴权）
	router.GET("/ws", gateway.Handler)

	// 7. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 8. 启动HTTP服务器
	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 9. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}

// setupBasicRoutes 设置基础路由
func setupBasicRoutes(router *gin.Engine) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := dbPkg.HealthCheck(); err != nil {
			status = "db-down"
		}
		response.Success(c, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// 根路径
	router.GET("/", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "EventLink API",
			"version": "1.0.0",
		})
	})
}
