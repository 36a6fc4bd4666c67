package http

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/config"
	"go.ngs.io/hydroviewer/internal/usecase"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

// Services are the collaborators the HTTP layer delegates to.
type Services struct {
	Config   *config.Config
	Layer    *region.Layer
	Sessions *usecase.SessionStore
	Zonal    *usecase.ZonalUseCase
	Probe    *usecase.ProbeUseCase
	Log      zerolog.Logger
	Version  string
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(svc Services) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(svc.Log))

	// Setup CORS middleware.
	// Allow all origins if none are configured.
	corsConfig := cors.DefaultConfig()
	if len(svc.Config.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = svc.Config.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	tmpl, err := template.ParseFS(webFS, "web/templates/*.html")
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		return nil, err
	}
	router.StaticFS("/static", http.FS(static))

	// Create handlers.
	handler := NewHandler(svc)
	sessions := NewSessionHandler(svc.Sessions, svc.Log)

	router.GET("/", handler.Index)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/variables", handler.GetVariables)
	v1.GET("/regions", handler.GetRegions)
	v1.GET("/sidebar", handler.GetSidebar)
	v1.GET("/zonal", handler.GetZonal)
	v1.GET("/probe", handler.GetProbe)

	// Dashboard sessions.
	s := v1.Group("/sessions")
	s.POST("", sessions.Create)
	s.GET("/:id", sessions.Get)
	s.DELETE("/:id", sessions.Delete)
	s.POST("/:id/inputs", sessions.PostInputs)
	s.POST("/:id/click", sessions.PostClick)
	s.GET("/:id/events", sessions.Events)
	s.GET("/:id/heatmap.png", sessions.HeatmapPNG)
	s.GET("/:id/boxplot.png", sessions.BoxplotPNG)

	return router, nil
}

// requestLogger logs one line per request.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := nowFunc()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", nowFunc().Sub(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
