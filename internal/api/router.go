package api

import (
	"time"

	"sambou/internal"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig wires the HTTP surface
type RouterConfig struct {
	Handler     *Handler
	Hub         *SSEHub
	CORSOrigins []string
	Logger      *internal.Logger
}

// NewRouter builds the gin engine with every workflow route
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cache-Control", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	h := cfg.Handler
	router.GET("/healthz", h.Health)

	api := router.Group("/api")
	{
		api.GET("/departments", h.ListDepartments)
		api.GET("/usage", h.GetUsageSummary)

		api.POST("/sessions", h.CreateSession)
		sessions := api.Group("/sessions/:id")
		{
			sessions.GET("", h.GetSession)
			sessions.DELETE("", h.DeleteSession)
			sessions.POST("/answers", h.SubmitAnswer)
			sessions.POST("/evaluation", h.RetryEvaluation)
			sessions.POST("/selection", h.ConfirmSelection)
			sessions.GET("/deadlines", h.GetDeadlines)
			sessions.POST("/snippets", h.RequestSnippets)
			sessions.GET("/snippets", h.GetSnippets)
			sessions.POST("/reset", h.Reset)
			sessions.GET("/usage", h.GetSessionUsage)
			if cfg.Hub != nil {
				sessions.GET("/events", func(c *gin.Context) {
					if _, ok := h.controller(c); !ok {
						return
					}
					cfg.Hub.HandleSSE(c)
				})
			}
		}
	}

	return router
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
