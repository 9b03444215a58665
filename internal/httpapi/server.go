package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"messenger-service/internal/config"
	"messenger-service/internal/obs"
)

// Handlers groups the route implementations wired into the router.
type Handlers struct {
	Message      MessageHTTP
	Conversation ConversationHTTP
}

// NewServer builds the HTTP server with routing, CORS and observability
// middleware applied.
func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Message != nil {
		api.POST("/messages", h.Message.Send)
		api.GET("/conversations/:id/messages", h.Message.ListConversationMessages)
		api.GET("/conversations/:id/messages/before", h.Message.ListMessagesBefore)
	}
	if h.Conversation != nil {
		api.POST("/conversations", h.Conversation.Create)
		api.GET("/conversations/:id", h.Conversation.Get)
		api.GET("/users/:id/conversations", h.Conversation.ListForUser)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
