package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"caretaker/internal/domain/model"
)

// handleWebhook is the signal intake. Bot identity comes from the route,
// never from the body. The audit append happens inside ProcessAlert,
// before this handler writes a response.
func (s *Server) handleWebhook(c *gin.Context) {
	bot := c.Param("bot")

	var sig model.Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"tracked": false, "error": err.Error()})
		return
	}

	tracked, err := s.svc.ProcessAlert(c.Request.Context(), bot, sig)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"tracked": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracked": tracked})
}

// handlePositionPush receives one broker snapshot and runs a
// verification cycle against it.
func (s *Server) handlePositionPush(c *gin.Context) {
	account := c.Param("account")

	var positions []model.ActualPosition
	if err := c.ShouldBindJSON(&positions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	discrepancies := s.svc.VerifyPositions(c.Request.Context(), account, positions)
	c.JSON(http.StatusOK, gin.H{
		"checked":       true,
		"discrepancies": len(discrepancies),
	})
}

func (s *Server) handleRetry(c *gin.Context) {
	bot := c.Param("bot")
	res, err := s.svc.RetryBot(c.Request.Context(), bot)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attempt": res.Attempt})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Status())
}

func (s *Server) handlePositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"positions": s.svc.Expected()})
}

// handleSignals serves the tail of the audit log, newest first.
func (s *Server) handleSignals(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-1000"})
			return
		}
		limit = n
	}

	events, err := s.svc.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active": s.svc.SessionActive()})
}

func (s *Server) handleAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": s.accounts})
}
