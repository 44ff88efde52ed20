package httpserver

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"webhook-bridge/internal/infrastructure/config"
	"webhook-bridge/internal/interfaces/httpserver/middlewares"
	"webhook-bridge/internal/interfaces/httpserver/routes/webhooks"
)

type HTTPServer struct {
	router          *gin.Engine
	config          *config.Config
	schedulingRoute *webhooks.SchedulingRoute
	agreementRoute  *webhooks.AgreementRoute
	marketingRoute  *webhooks.MarketingRoute
	contactsRoute   *webhooks.ContactsRoute
	setupOnce       sync.Once
}

func NewHTTPServer(
	cfg *config.Config,
	schedulingRoute *webhooks.SchedulingRoute,
	agreementRoute *webhooks.AgreementRoute,
	marketingRoute *webhooks.MarketingRoute,
	contactsRoute *webhooks.ContactsRoute,
) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.CORS())
	router.Use(middlewares.MetricsRecorder())

	return &HTTPServer{
		router:          router,
		config:          cfg,
		schedulingRoute: schedulingRoute,
		agreementRoute:  agreementRoute,
		marketingRoute:  marketingRoute,
		contactsRoute:   contactsRoute,
	}
}

func (s *HTTPServer) setupRoutes() {
	s.setupOnce.Do(s.registerRoutes)
}

func (s *HTTPServer) registerRoutes() {
	// Health check endpoints
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "webhook-bridge"})
	})

	s.router.GET("/readyz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ready", "service": "webhook-bridge"})
	})

	// Prometheus metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register webhook routes
	api := s.router.Group("/api")
	s.schedulingRoute.RegisterRouter(api)
	s.agreementRoute.RegisterRouter(api)
	s.marketingRoute.RegisterRouter(api)
	s.contactsRoute.RegisterRouter(api)
}

func (s *HTTPServer) Run() error {
	s.setupRoutes()
	addr := fmt.Sprintf(":%s", s.config.HTTPPort)
	return s.router.Run(addr)
}

// Router exposes the configured engine, wired with all routes. Intended for
// in-process request handling in tests.
func (s *HTTPServer) Router() *gin.Engine {
	s.setupRoutes()
	return s.router
}
