package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rdm-dashboard/src/dashboard"
	"rdm-dashboard/src/dispatcher"
	"rdm-dashboard/src/interfaces"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
	"rdm-dashboard/src/render"
	"rdm-dashboard/src/view"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

// DashboardServer hosts the dashboard page, its JSON API and the websocket
// feed of view updates.
type DashboardServer struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	View       *view.View
	Loop       *dashboard.SyncLoop
	Dispatcher *dispatcher.Dispatcher
	DB         interfaces.IDatabase
	Strings    render.Strings

	engine     *gin.Engine
	httpServer *http.Server
	page       *template.Template

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MViewUpdate
	register   chan *Client
	unregister chan *Client
	resync     chan *Client
	quit       chan struct{}
	stopOnce   sync.Once

	connections atomic.Int64

	// Local cache
	latestState *models.MViewUpdate
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(
	cfg *models.MConfig,
	log *logger.Logger,
	v *view.View,
	loop *dashboard.SyncLoop,
	disp *dispatcher.Dispatcher,
	db interfaces.IDatabase,
) *DashboardServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:     cfg,
		Logger:     log,
		View:       v,
		Loop:       loop,
		Dispatcher: disp,
		DB:         db,
		Strings:    render.Strings(cfg.Strings),
		engine:     gin.New(),
		page:       template.Must(template.New("page").Parse(pageTemplate)),
		clients:    make(map[*Client]struct{}),
		// Buffered so view listeners never wait on the hub
		broadcast:  make(chan *models.MViewUpdate, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		resync:     make(chan *Client),
		quit:       make(chan struct{}),
		latestState: &models.MViewUpdate{
			Type: "INITIAL",
			View: v.State(),
		},
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	s.engine.GET("/", s.getPage)

	api := s.engine.Group("/api")
	api.GET("/view", s.getView)
	api.POST("/refresh", s.postRefresh)
	api.POST("/notice/dismiss", s.postDismissNotice)
	api.GET("/actions", s.getActions)
	api.POST("/actions", s.postAction)
	api.POST("/actions/:id/confirm", s.postConfirm)
	api.POST("/actions/:id/cancel", s.postCancel)
	api.GET("/history", s.getHistory)
	api.GET("/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mostly for httptest.
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and serves HTTP until Stop. A clean stop returns nil,
// including a Stop that comes first.
func (s *DashboardServer) Start() error {
	s.Logger.Info("Starting server on %s", s.httpServer.Addr)

	go s.handleWebsockets()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.quit)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/ws" {
			return
		}
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
