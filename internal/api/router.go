package api

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/inboxkit/inboxkit/internal/api/handlers"
	"github.com/inboxkit/inboxkit/internal/api/middleware"
	seclog "github.com/inboxkit/inboxkit/internal/logger"
	"github.com/inboxkit/inboxkit/internal/mail"
	"github.com/inboxkit/inboxkit/internal/repository"
	"github.com/inboxkit/inboxkit/internal/services"
	ws "github.com/inboxkit/inboxkit/internal/websocket"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB         *gorm.DB
	Logger     *slog.Logger
	Hub        *ws.Hub
	Dispatcher mail.Dispatcher

	// Shared with the SMTP ingest path so both channels feed the same
	// pipeline.
	Processor *services.NotificationProcessor
	Notifier  *services.WebhookNotifier

	DefaultEmailDomain string
	InboundMailHost    string
	DKIMHost           string
	DailyMessageLimit  int

	AllowedOrigins  []string // Allowed CORS origins
	SecureWSOrigins bool     // Enforce origin whitelist on websocket upgrades
	RateLimit       int      // Requests per second (0 = use env default)
	RateBurst       int      // Burst size for rate limiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS - Set environment variable if origins provided in config
	if len(cfg.AllowedOrigins) > 0 {
		os.Setenv("ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, ","))
	}
	e.Use(middleware.SecureCORS())

	// Security events share the application log sink
	var sec *seclog.SecurityLogger
	if cfg.Logger != nil {
		sec = seclog.NewSecurityLoggerWithHandler(cfg.Logger.Handler())
	} else {
		sec = seclog.NewSecurityLogger()
	}

	// 4. Rate limiting - use RateLimiterWithConfig if custom values provided
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(float64(cfg.RateLimit), cfg.RateBurst, sec))
	} else {
		e.Use(middleware.RateLimiter(sec))
	}

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	apiKeyRepo := repository.NewApiKeyRepository(cfg.DB)
	domainRepo := repository.NewDomainRepository(cfg.DB)
	inboxRepo := repository.NewInboxRepository(cfg.DB)
	messageRepo := repository.NewMessageRepository(cfg.DB)
	threadRepo := repository.NewThreadRepository(cfg.DB)
	webhookRepo := repository.NewWebhookRepository(cfg.DB)
	attemptRepo := repository.NewWebhookAttemptRepository(cfg.DB)

	// Initialize services
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = services.NewWebhookNotifier(webhookRepo, attemptRepo, 10*time.Second, cfg.Logger)
	}
	correlator := services.NewThreadCorrelator(messageRepo, threadRepo, cfg.Logger)
	usage := services.NewDailyUsageGuard(messageRepo, cfg.DailyMessageLimit)
	generator := services.NewAddressGenerator(inboxRepo, cfg.DefaultEmailDomain)
	inboxService := services.NewInboxService(inboxRepo, domainRepo, messageRepo, generator, notifier, cfg.DefaultEmailDomain, cfg.Logger)
	messageService := services.NewMessageService(messageRepo, threadRepo, inboxRepo, correlator, cfg.Dispatcher, usage, notifier, cfg.Logger)
	verifier := services.NewDNSVerifierService(services.DefaultDNSVerifierConfig())
	domainService := services.NewDomainService(domainRepo, verifier, services.DomainServiceConfig{
		InboundMailHost: cfg.InboundMailHost,
		DKIMHost:        cfg.DKIMHost,
	}, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	inboxHandler := handlers.NewInboxHandler(inboxService)
	messageHandler := handlers.NewMessageHandler(messageService)
	threadHandler := handlers.NewThreadHandler(threadRepo, inboxService)
	domainHandler := handlers.NewDomainHandler(domainService)
	webhookHandler := handlers.NewWebhookHandler(webhookRepo, attemptRepo, notifier)
	callbackHandler := handlers.NewCallbackHandler(cfg.Processor)
	wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.SecureWSOrigins, cfg.Logger)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Provider callback route (the provider authenticates the channel,
	// not the request)
	e.POST("/callbacks/email", callbackHandler.Receive)

	// Live feed
	e.GET("/ws", wsHandler.Connect)

	// API routes
	api := e.Group("/api")
	api.Use(middleware.APIKeyAuth(apiKeyRepo, sec))

	// Inbox routes
	inboxes := api.Group("/inboxes")
	inboxes.POST("", inboxHandler.Create)
	inboxes.GET("", inboxHandler.List)
	inboxes.GET("/:id", inboxHandler.Get)
	inboxes.DELETE("/:id", inboxHandler.Delete)

	// Message routes (nested under inboxes)
	inboxes.POST("/:id/messages", messageHandler.Send)
	inboxes.GET("/:id/messages", messageHandler.List)

	// Thread routes (nested under inboxes)
	inboxes.GET("/:id/threads", threadHandler.List)
	inboxes.GET("/:id/threads/:thread_id", threadHandler.Get)

	// Message routes (standalone)
	messages := api.Group("/messages")
	messages.GET("/:id", messageHandler.Get)

	// Domain routes
	domains := api.Group("/domains")
	domains.POST("", domainHandler.Create)
	domains.GET("", domainHandler.List)
	domains.GET("/:id", domainHandler.Get)
	domains.POST("/:id/verify", domainHandler.Verify)
	domains.DELETE("/:id", domainHandler.Delete)

	// Webhook routes
	webhooks := api.Group("/webhooks")
	webhooks.POST("", webhookHandler.Create)
	webhooks.GET("", webhookHandler.List)
	webhooks.GET("/:id", webhookHandler.Get)
	webhooks.DELETE("/:id", webhookHandler.Delete)
	webhooks.POST("/:id/test", webhookHandler.Test)
	webhooks.GET("/:id/attempts", webhookHandler.Attempts)

	return e
}
