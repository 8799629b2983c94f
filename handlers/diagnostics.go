package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/novenoa/cards/internal/card/service"
	"github.com/novenoa/cards/pkg/logger"
	"github.com/novenoa/cards/pkg/metrics"
)

var startTime = time.Now()

// SendRequest is the body accepted by POST /send.
type SendRequest struct {
	User  string `json:"user"`
	Email string `json:"email"`
}

// RegisterDiagnostics registers the plain-text diagnostic routes plus
// liveness and readiness probes.
func RegisterDiagnostics(r *gin.Engine, svc service.Service) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Card API is running")
	})

	// /review lists whatever is mounted on the engine at request time
	r.GET("/review", func(c *gin.Context) {
		routes := r.Routes()
		lines := make([]string, 0, len(routes))
		for _, ri := range routes {
			lines = append(lines, fmt.Sprintf("%-7s %s", ri.Method, ri.Path))
		}
		sort.Strings(lines)
		c.String(http.StatusOK, "Available endpoints:\n%s\n", strings.Join(lines, "\n"))
	})

	r.GET("/hola", func(c *gin.Context) {
		c.String(http.StatusOK, "Hola")
	})
	r.GET("/adios", func(c *gin.Context) {
		c.String(http.StatusOK, "Adios")
	})

	r.POST("/send", Send)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only once the card store is attached
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"store": svc.Ready()}
		uptime := time.Since(startTime).Round(time.Second).String()
		if !deps["store"] {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	})
}

// Send logs the submitted user/email pair. Nothing is persisted. An empty
// body is logged as blank values.
func Send(c *gin.Context) {
	var req SendRequest
	body, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid data: %v", err)
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := binding.JSON.BindBody(body, &req); err != nil {
			c.String(http.StatusBadRequest, "Invalid data: %v", err)
			return
		}
	}
	logger.Infof("data received: user=%q email=%q", req.User, req.Email)
	metrics.SendReceived.Inc()
	c.String(http.StatusOK, "Data received")
}
