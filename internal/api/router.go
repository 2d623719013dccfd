package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	authHandler "recipe-chat-gateway/internal/api/handlers/auth"
	chatHandler "recipe-chat-gateway/internal/api/handlers/chat"
	generateHandler "recipe-chat-gateway/internal/api/handlers/generate"
	"recipe-chat-gateway/internal/api/handlers/health"
	"recipe-chat-gateway/internal/api/middleware"
	"recipe-chat-gateway/internal/core/backend"
	"recipe-chat-gateway/internal/core/conversation"
	"recipe-chat-gateway/internal/core/generation"
	"recipe-chat-gateway/internal/core/session"
	"recipe-chat-gateway/internal/infrastructure/config"
	"recipe-chat-gateway/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (1MB)，聊天與表單請求都是純 JSON
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, sessionStore session.Store, convStore *conversation.Store) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Session-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 重複請求過濾
	router.Use(middleware.Deduplication(cfg))

	// 流量限制
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("Initializing services",
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.String("backend_base_url", cfg.Backend.BaseURL),
		zap.Duration("session_ttl", cfg.Session.TTL),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化後端客戶端
	backendClient := backend.NewClient(cfg)
	if backendClient == nil {
		common.LogError("Failed to initialize backend client")
		return nil, fmt.Errorf("failed to initialize backend client")
	}

	// 初始化會話與待辦槽
	sessionManager := session.NewManager(cfg, sessionStore)
	outbox := session.NewOutbox(sessionStore, cfg.Session.OutboxTTL)

	// 初始化對話控制器
	controller := conversation.NewController(convStore, backendClient)

	// 初始化產生交棒
	handoff := generation.NewHandoff(backendClient, outbox)

	// 全局中間件：設置超時和配置
	router.Use(func(c *gin.Context) {
		// 設置請求超時
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		// 創建新的請求上下文
		req := c.Request.WithContext(ctx)
		c.Request = req

		// 設置配置
		c.Set("config", cfg)
		c.Set("conversation_store", convStore)

		// 處理請求
		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		chatInstance := chatHandler.NewHandler(controller, sessionManager, handoff)
		authInstance := authHandler.NewHandler(backendClient, sessionManager, handoff)
		generateInstance := generateHandler.NewHandler(handoff, sessionManager)

		// 對話相關路由
		chatGroup := api.Group("/chat")
		{
			// 送出使用者訊息
			chatGroup.POST("/message", chatInstance.HandleMessage)

			// 菜系選擇控制項
			chatGroup.POST("/cuisine", chatInstance.HandleCuisine)

			// 重置對話
			chatGroup.POST("/reset", chatInstance.HandleReset)

			// 取得顯示訊息列表
			chatGroup.GET("/messages", chatInstance.HandleMessages)

			// 接受 final-action 控制項
			chatGroup.POST("/confirm", chatInstance.HandleConfirm)
		}

		// 產生相關路由
		generateGroup := api.Group("/generate")
		{
			generateGroup.POST("", generateInstance.HandleDirect)
			generateGroup.POST("/from-chat", generateInstance.HandleFromChat)
		}

		// 帳號相關路由
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authInstance.HandleLogin)
			authGroup.POST("/register", authInstance.HandleRegister)
			authGroup.POST("/logout", authInstance.HandleLogout)
			authGroup.GET("/session", authInstance.HandleSession)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
