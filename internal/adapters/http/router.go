package http

import (
	"context"
	"errors"
	nethttp "net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/domain"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware gives every browser a stable token kept in the
// cookie session. It only labels logs and rate limits; it is not identity.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get(signal.ClientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			sess.Set(signal.ClientTokenKey, token)
			c.Set(signal.FreshTokenKey, true)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client token")
			}
		}
		c.Set(signal.ClientTokenKey, token)
		c.Next()
	}
}

// Deps is what the router needs from the rest of the process.
type Deps struct {
	Orch     *orch.Orchestrator
	Limiter  *signal.RateLimiter
	Gatherer prometheus.Gatherer
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("HuddleSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Bool("metrics", cfg.MetricsEnabled).Msg("router setup")

	ctrl := signal.NewRoomWSController(deps.Orch, deps.Limiter, signal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	})
	r.GET("/room/:room", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString(signal.ClientTokenKey)).Str("room", c.Param("room")).Msg("room endpoint hit")
		ctrl.HandleRoom(ctx, c)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.String(nethttp.StatusOK, "ok")
	})

	api := r.Group("/api")
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, deps.Orch.Rooms.List(c.Request.Context()))
	})
	api.GET("/rooms/:room", func(c *gin.Context) {
		room, ok := deps.Orch.Rooms.Get(domain.RoomName(c.Param("room")))
		if !ok {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		info, err := room.Info(c.Request.Context())
		if errors.Is(err, app.ErrRoomClosed) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		if err != nil {
			c.JSON(nethttp.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(nethttp.StatusOK, info)
	})

	api.DELETE("/rooms/:room", func(c *gin.Context) {
		name := domain.RoomName(c.Param("room"))
		if _, ok := deps.Orch.Rooms.Get(name); !ok {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		deps.Orch.EvictRoom(name)
		log.Info().Str("module", "adapters.http").Str("room", string(name)).Str("client", c.GetString(signal.ClientTokenKey)).Msg("room evicted")
		c.Status(nethttp.StatusNoContent)
	})

	if cfg.MetricsEnabled && deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}
