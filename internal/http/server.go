package http

import (
	"net/http"
	"time"

	"smartcare/internal/core"
	"smartcare/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxJSONBody   = 10 << 20
	maxUploadBody = core.MaxUploadFiles*core.MaxUploadSize + 1<<20
)

// Services are the domain services the handlers call into.
type Services struct {
	Doctors   *core.DoctorService
	Scheduler *core.Scheduler
	Chat      *core.ChatService
	Uploads   *core.UploadService
	Sensors   *core.SensorService
	Feed      *core.ReadingFeed
}

// Options tune the HTTP surface.
type Options struct {
	// Production hides internal error details from 500 responses.
	Production  bool
	CORSOrigins []string
	// UploadDir is served at /uploads.
	UploadDir string
	// AdminSecret, when set, protects doctor writes with an admin JWT.
	AdminSecret string
	// Limiter, when set, caps requests per client IP under /api.
	Limiter ratelimit.Limiter
}

// Server bundles together the dependencies required by HTTP handlers. It
// implements http.Handler so it can be passed to an http.Server.
type Server struct {
	Services
	Logger *zap.Logger

	opts   Options
	engine *gin.Engine
}

// NewServer constructs a Server with all routes registered.
func NewServer(svc Services, opts Options, logger *zap.Logger) *Server {
	s := &Server{Services: svc, Logger: logger, opts: opts}
	s.engine = s.routes()
	return s
}

// ServeHTTP dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		requestLogger(s.Logger),
		gin.CustomRecovery(s.recovered),
		securityHeaders(),
		cors.New(s.corsConfig()),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
			"/api/oximeter/stream",
			"/api/temperature/stream",
		})),
	)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	if s.opts.UploadDir != "" {
		r.Static("/uploads", s.opts.UploadDir)
	}

	api := r.Group("/api")
	if s.opts.Limiter != nil {
		api.Use(ratelimit.Middleware(s.opts.Limiter, s.Logger))
	}
	api.GET("/health", s.handleHealth)

	body := api.Group("", limitBodySize(maxJSONBody))

	doctors := body.Group("/doctors")
	doctors.GET("", s.handleListDoctors)
	doctors.GET("/specialties/list", s.handleSpecialties)
	doctors.GET("/specialty/:specialty", s.handleDoctorsBySpecialty)
	doctors.GET("/available/:specialty", s.handleAvailableDoctors)
	doctors.GET("/:id", s.handleGetDoctor)
	admin := doctors.Group("", adminAuth(s.opts.AdminSecret))
	admin.POST("", s.handleCreateDoctor)
	admin.PUT("/:id", s.handleUpdateDoctor)
	admin.DELETE("/:id", s.handleDeleteDoctor)

	appts := body.Group("/appointments")
	appts.GET("/slots/:doctorId", s.handleSlots)
	appts.POST("", s.handleBook)
	appts.GET("/patient/:email", s.handlePatientAppointments)
	appts.GET("/doctor/:doctorId", s.handleDoctorAppointments)
	appts.GET("/:id", s.handleGetAppointment)
	appts.PATCH("/:id/status", s.handleSetStatus)
	appts.DELETE("/:id", s.handleCancel)

	chat := body.Group("/chat")
	chat.POST("/start", s.handleStartChat)
	chat.POST("/analyze", s.handleAnalyze)
	chat.POST("/follow-up", s.handleFollowUp)
	chat.GET("/session/:sessionId", s.handleGetSession)
	chat.GET("/patient/:email", s.handlePatientSessions)

	upload := api.Group("/upload")
	upload.POST("", limitBodySize(maxUploadBody), s.handleUpload)
	upload.GET("/session/:sessionId", s.handleSessionFiles)
	upload.GET("/file/:fileId", s.handleGetFile)
	upload.DELETE("/:fileId", s.handleDeleteFile)

	s.sensorRoutes(body.Group("/oximeter"), oximeterHandlers(s))
	s.sensorRoutes(body.Group("/temperature"), temperatureHandlers(s))
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range s.opts.CORSOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	if len(s.opts.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = s.opts.CORSOrigins
	return cfg
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "SmartCare API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
