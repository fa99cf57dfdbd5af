package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/CodeRoom/internal/adapters/signal"
	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

// ClientTokenMiddleware keeps a per-browser token in the cookie session so
// reconnects from the same tab can be correlated in the logs.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			s.Set(clientTokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("CodeRoomSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctl := signal.NewSignalWSController(o, signal.Options{
		AllowedOrigin: cfg.FrontendURL,
		ReadLimit:     cfg.ReadLimit,
		PingPeriod:    cfg.PingPeriod,
		PongWait:      cfg.PongWait,
		WriteWait:     cfg.WriteWait,
		SendBuffer:    cfg.SendBuffer,
		RateMessages:  cfg.Rate.Messages,
		RateInterval:  cfg.Rate.Interval,
	})
	ws := func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client_token", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleSignal(ctx, c)
	}
	r.GET("/ws", ws)

	api := r.Group("/api")
	api.GET("/ws", ws)
	api.GET("/rooms", listRooms(o))
	api.GET("/rooms/:name", getRoom(o))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

// NewHandler wraps the router with the cross-origin policy for the
// configured frontend and a per-IP request limit.
func NewHandler(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) http.Handler {
	var h http.Handler = SetupRouter(ctx, cfg, o)
	if cfg.Rate.HTTPPerMinute > 0 {
		h = httprate.Limit(cfg.Rate.HTTPPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))(h)
	}
	origins := []string{"*"}
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: cfg.FrontendURL != "",
	})(h)
}
