package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"caretaker/internal/application/usecase/caretaker"
	"caretaker/internal/infrastructure/config"
)

// Server exposes the caretaker's query and command surface. Auth and
// dashboard rendering live in the outer system, not here.
type Server struct {
	svc      *caretaker.Service
	accounts map[string]config.Account
	engine   *gin.Engine
}

func NewServer(svc *caretaker.Service, accounts map[string]config.Account) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		svc:      svc,
		accounts: accounts,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.POST("/webhook/:bot", s.handleWebhook)
	s.engine.POST("/positions/:account", s.handlePositionPush)
	s.engine.POST("/retry/:bot", s.handleRetry)

	s.engine.GET("/status", s.handleStatus)
	s.engine.GET("/positions", s.handlePositions)
	s.engine.GET("/signals", s.handleSignals)
	s.engine.GET("/session", s.handleSession)
	s.engine.GET("/accounts", s.handleAccounts)
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler returns the router for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}
