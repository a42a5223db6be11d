// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting, then mounts the
// versioned public API and the websocket handshake.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/auth"
	"github.com/SravanamCharan20/EcoBites2/internal/config"
	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/geo"
	"github.com/SravanamCharan20/EcoBites2/internal/http/handlers"
	"github.com/SravanamCharan20/EcoBites2/internal/http/middleware"
	"github.com/SravanamCharan20/EcoBites2/internal/realtime"
	"github.com/SravanamCharan20/EcoBites2/internal/repo"
	"github.com/SravanamCharan20/EcoBites2/internal/services"
)

// Idempotency scopes, one per deduplicated create operation.
const (
	scopeDonationCreate = "donations.create"
	scopeRequestCreate  = "requests.create"
	scopeMessageCreate  = "messages.create"
)

// The repo shims adapt the repository free functions to the service-layer
// interfaces. This keeps services decoupled from the concrete repo package
// while reusing the existing functions.

type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, username, email, passwordHash)
}

func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (userRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

func (userRepoShim) UpdateUser(ctx context.Context, db *gorm.DB, id string, patch map[string]any) error {
	return repo.UpdateUser(ctx, db, id, patch)
}

type donationRepoShim struct{}

func (donationRepoShim) CreateDonation(ctx context.Context, db *gorm.DB, d *domain.Donation) (*domain.Donation, error) {
	return repo.CreateDonation(ctx, db, d)
}

func (donationRepoShim) GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	return repo.GetDonation(ctx, db, id)
}

func (donationRepoShim) ListAvailableDonations(ctx context.Context, db *gorm.DB, kind string, now time.Time) ([]domain.Donation, error) {
	return repo.ListAvailableDonations(ctx, db, kind, now)
}

func (donationRepoShim) ListDonationsByUser(ctx context.Context, db *gorm.DB, userID, kind string) ([]domain.Donation, error) {
	return repo.ListDonationsByUser(ctx, db, userID, kind)
}

func (donationRepoShim) UpdateDonation(ctx context.Context, db *gorm.DB, id, userID string, patch map[string]any, items []domain.DonationItem) error {
	return repo.UpdateDonation(ctx, db, id, userID, patch, items)
}

func (donationRepoShim) DeleteDonation(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteDonation(ctx, db, id, userID)
}

type requestRepoShim struct{}

func (requestRepoShim) CreateRequest(ctx context.Context, db *gorm.DB, r *domain.DonationRequest) (*domain.DonationRequest, error) {
	return repo.CreateRequest(ctx, db, r)
}

func (requestRepoShim) GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.DonationRequest, error) {
	return repo.GetRequest(ctx, db, id)
}

func (requestRepoShim) ListRequestsByUser(ctx context.Context, db *gorm.DB, userID, kind string) ([]domain.DonationRequest, error) {
	return repo.ListRequestsByUser(ctx, db, userID, kind)
}

func (requestRepoShim) ListRequestsForDonor(ctx context.Context, db *gorm.DB, donorID string) ([]domain.DonationRequest, error) {
	return repo.ListRequestsForDonor(ctx, db, donorID)
}

func (requestRepoShim) UpdateRequestStatus(ctx context.Context, db *gorm.DB, id, status string) error {
	return repo.UpdateRequestStatus(ctx, db, id, status)
}

func (requestRepoShim) GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	return repo.GetDonation(ctx, db, id)
}

type chatRepoShim struct{}

func (chatRepoShim) CreateChat(ctx context.Context, db *gorm.DB, donorID, requesterID string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, donorID, requesterID)
}

func (chatRepoShim) GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id)
}

func (chatRepoShim) FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	return repo.FindChatByPair(ctx, db, a, b)
}

func (chatRepoShim) ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	return repo.ListChatsForUser(ctx, db, userID)
}

func (chatRepoShim) AppendMessage(ctx context.Context, db *gorm.DB, chatID, senderID, content string) (*domain.ChatMessage, error) {
	return repo.AppendMessage(ctx, db, chatID, senderID, content)
}

func (chatRepoShim) ListMessages(ctx context.Context, db *gorm.DB, chatID string) ([]domain.ChatMessage, error) {
	return repo.ListMessages(ctx, db, chatID)
}

func (chatRepoShim) CountMessages(ctx context.Context, db *gorm.DB, chatID string) (int64, error) {
	return repo.CountMessages(ctx, db, chatID)
}

func (chatRepoShim) ListMessagesPage(ctx context.Context, db *gorm.DB, chatID string, offset, limit int) ([]domain.ChatMessage, error) {
	return repo.ListMessagesPage(ctx, db, chatID, offset, limit)
}

type statsRepoShim struct{}

func (statsRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

func (statsRepoShim) CountDonations(ctx context.Context, db *gorm.DB, userID, kind string, activeAfter *time.Time) (int64, error) {
	return repo.CountDonations(ctx, db, userID, kind, activeAfter)
}

func (statsRepoShim) CountDonationItems(ctx context.Context, db *gorm.DB, userID, kind string) (int64, error) {
	return repo.CountDonationItems(ctx, db, userID, kind)
}

func (statsRepoShim) CountRequests(ctx context.Context, db *gorm.DB, userID, kind, status string) (int64, error) {
	return repo.CountRequests(ctx, db, userID, kind, status)
}

func (statsRepoShim) MonthlyDonationStats(ctx context.Context, db *gorm.DB, userID, kind string, year int) ([]repo.MonthlyDonationStat, error) {
	return repo.MonthlyDonationStats(ctx, db, userID, kind, year)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given
// Gin engine and returns the realtime hub so the caller can observe it.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip (skipping the websocket handshake)
//  6. Metrics
//  7. Optional auth (verified identity feeds logging and rate keys)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay, skips /ws and /metrics)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) *realtime.Hub {
	r.HandleMethodNotAllowed = true

	tokens := auth.NewTokenManager(cfg.JWT)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (donation payloads carry
	// contact numbers and addresses)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and gzip; both must leave the
	// websocket handshake alone.
	r.Use(skipOnWS(limitBody(1 << 20)))
	r.Use(skipOnWS(gzip.Gzip(gzip.DefaultCompression)))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Attach verified identity when a token is present. Route groups
	// below add RequireAuth where authentication is mandatory.
	r.Use(middleware.OptionalAuth(tokens))

	// 8) Idempotency validation (before rate limiting)
	idemLookup := func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		if err != nil || rec == nil {
			return false, nil
		}
		return true, nil
	}
	idemStore := func(ctx context.Context, userID, scope, key, resourceID string, status int) error {
		_, err := repo.CreateIdempotency(ctx, db, userID, scope, key, resourceID, status, cfg.IdempotencyTTL)
		return err
	}

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		Skip("/ws", "/metrics", "/health")
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (gated; serves the committed OpenAPI document)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	authSvc := services.NewAuthService(db, userRepoShim{}, tokens)
	geocoder := geo.NewNominatimClient(cfg.Geocoder)
	donationSvc := services.NewDonationService(db, donationRepoShim{}, geocoder)
	chatSvc := services.NewChatService(db, chatRepoShim{})
	requestSvc := services.NewRequestService(db, requestRepoShim{}, chatSvc)
	analyticsSvc := services.NewAnalyticsService(db, statsRepoShim{})

	h := handlers.New(authSvc, donationSvc, requestSvc, chatSvc, analyticsSvc)

	// Realtime relay: the hub resolves participants through the chat
	// service and owns the presence table for the process lifetime.
	hub := realtime.NewHub(chatSvc, cfg.Realtime, log.Logger)
	ws := handlers.NewWSHandler(hub, tokens, cfg.CORS.AllowedOrigins)
	r.GET("/ws", ws.Serve)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Auth (no bearer token required)
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// Open listings
		api.GET("/donations", h.ListDonations)
		api.GET("/donations/:id", h.GetDonation)

		// Everything below requires authentication.
		authed := api.Group("", middleware.RequireAuth(tokens))

		authed.GET("/profile", h.GetProfile)
		authed.PUT("/profile", h.UpdateProfile)

		authed.POST("/donations",
			middleware.IdempotencyValidator(scopeDonationCreate, middleware.IdempotencyOptions{}, idemLookup, idemStore),
			h.CreateDonation)
		authed.GET("/donations/mine", h.ListMyDonations)
		authed.PUT("/donations/:id", h.UpdateDonation)
		authed.DELETE("/donations/:id", h.DeleteDonation)

		authed.POST("/requests",
			middleware.IdempotencyValidator(scopeRequestCreate, middleware.IdempotencyOptions{}, idemLookup, idemStore),
			h.CreateRequest)
		authed.GET("/requests/mine", h.ListMyRequests)
		authed.GET("/requests/incoming", h.ListIncomingRequests)
		authed.POST("/requests/:id/accept", h.AcceptRequest)
		authed.POST("/requests/:id/reject", h.RejectRequest)

		authed.POST("/chats", h.CreateChat)
		authed.GET("/chats", h.ListChats)
		authed.GET("/chats/:id/messages", h.ListChatMessages)
		authed.POST("/chats/:id/messages",
			middleware.IdempotencyValidator(scopeMessageCreate, middleware.IdempotencyOptions{}, idemLookup, idemStore),
			h.AppendChatMessage)

		authed.GET("/analytics/overall", h.OverallAnalytics)
		authed.GET("/analytics/user", h.UserAnalytics)
		authed.GET("/analytics/impact", h.ImpactAnalytics)
	}

	return hub
}

// limitBody returns a Gin middleware that caps the request body size using
// http.MaxBytesReader; oversized bodies error on read downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// skipOnWS bypasses a middleware for the websocket handshake path, whose
// hijacked connection must not pass through body wrappers or compression.
func skipOnWS(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/ws" {
			c.Next()
			return
		}
		next(c)
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
