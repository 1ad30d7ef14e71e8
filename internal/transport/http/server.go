package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/config"
	"github.com/vovakirdan/collabhub-server/internal/core"
	"github.com/vovakirdan/collabhub-server/internal/presence"
)

// Deps are the components the HTTP surface serves.
type Deps struct {
	Hub      *core.Hub
	Presence *presence.Service
	Metrics  stdhttp.Handler // optional
	Journal  ActivityReader  // optional
	Version  string
}

// NewServer builds an HTTP server with all routes.
func NewServer(cfg config.Config, deps Deps, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, deps, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler builds the routed handler wrapped in CORS. The websocket endpoint
// is mounted on the outer mux because gin's response writer breaks the
// upgraded stream.
func NewHandler(cfg config.Config, deps Deps, logger *zerolog.Logger) stdhttp.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	ws := NewWSHandler(deps.Hub, WSOptions{
		MaxMessageBytes:  cfg.MaxMessageBytes,
		ClientBuffer:     cfg.ClientBuffer,
		MessageRateLimit: cfg.MessageRateLimit,
		PingInterval:     cfg.PingInterval,
		PingTimeout:      cfg.PingTimeout,
		AllowedOrigins:   cfg.CORSOrigins,
	}, logger)
	rooms := NewRoomHandlers(deps.Presence, logger)
	api := NewAPIHandlers(deps.Presence, deps.Journal, deps.Version, logger)
	limit := RateLimitMiddleware(cfg.HTTPRateLimit, cfg.HTTPRateWindow)

	router.GET("/", api.Banner)
	router.GET("/health", healthHandler)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	roomRoutes := router.Group("/rooms", limit)
	{
		roomRoutes.GET("", rooms.ListRooms)
		roomRoutes.POST("", rooms.CreateRoom)
		roomRoutes.GET("/:roomId", rooms.GetRoom)
	}

	apiRoutes := router.Group("/api", limit)
	{
		apiRoutes.GET("/health", api.Health)
		apiRoutes.GET("/activity", api.Activity)
	}

	router.NoRoute(api.NotFound)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	return withCORS(mux, cfg.CORSOrigins)
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
