package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/config"
	"github.com/qs3c/quran_app_server/internal/api/handler"
	"github.com/qs3c/quran_app_server/internal/api/middleware"
	"github.com/qs3c/quran_app_server/internal/pkg/jwt"
	"github.com/qs3c/quran_app_server/internal/service"
)

type Router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	usageHandler        *handler.UsageHandler
	subscriptionHandler *handler.SubscriptionHandler
	quranHandler        *handler.QuranHandler
	healthHandler       *handler.HealthHandler
	usageService        *service.UsageService
	tokens              *jwt.Manager
	log                 *zap.Logger
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	usageHandler *handler.UsageHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	quranHandler *handler.QuranHandler,
	healthHandler *handler.HealthHandler,
	usageService *service.UsageService,
	tokens *jwt.Manager,
	log *zap.Logger,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		userHandler:         userHandler,
		usageHandler:        usageHandler,
		subscriptionHandler: subscriptionHandler,
		quranHandler:        quranHandler,
		healthHandler:       healthHandler,
		usageService:        usageService,
		tokens:              tokens,
		log:                 log,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", r.healthHandler.Check)

	api := engine.Group("/api/v1")
	{
		// 公开接口 - 认证（按 IP 限流）
		auth := api.Group("/auth")
		auth.Use(middleware.RateLimit(middleware.NewAuthLimiter(r.cfg.RateLimit)))
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/verify", r.authHandler.VerifyEmail)
			auth.POST("/verify/resend", r.authHandler.ResendVerification)
			auth.POST("/reset-password", r.authHandler.RequestPasswordReset)
			auth.POST("/reset-password/confirm", r.authHandler.ResetPassword)
			auth.POST("/refresh", r.authHandler.RefreshToken)
			auth.POST("/logout", r.authHandler.Logout)
		}
		api.GET("/auth/me", middleware.Auth(r.tokens), r.userHandler.Me)

		// 用量：登录用户或设备
		usage := api.Group("/usage")
		usage.Use(middleware.OptionalAuth(r.tokens))
		{
			usage.GET("/validate", r.usageHandler.Validate)
			usage.POST("/increment", r.usageHandler.Increment)
			usage.GET("/stats", r.usageHandler.Stats)
		}

		// 订阅（需要认证）
		subscriptions := api.Group("/subscriptions")
		subscriptions.Use(middleware.Auth(r.tokens))
		{
			subscriptions.POST("/sync", r.subscriptionHandler.Sync)
			subscriptions.GET("/me", r.subscriptionHandler.Get)
		}

		// 经文数据，公开
		quran := api.Group("/quran")
		{
			quran.GET("/surahs", r.quranHandler.ListSurahs)
			quran.GET("/surahs/:surah", r.quranHandler.GetSurah)
			quran.GET("/ayahs/:surah/:ayah", r.quranHandler.GetAyah)

			search := []gin.HandlerFunc{r.quranHandler.Search}
			if r.cfg.Usage.EnforceOnSearch {
				search = []gin.HandlerFunc{
					middleware.OptionalAuth(r.tokens),
					middleware.UsageGate(r.usageService, r.log),
					r.quranHandler.Search,
				}
			}
			quran.GET("/search", search...)
		}
	}

	return engine
}
