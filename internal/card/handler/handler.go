package handler

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/novenoa/cards/internal/card"
	"github.com/novenoa/cards/internal/card/service"
	"github.com/novenoa/cards/pkg/logger"
	"golang.org/x/time/rate"
)

// Options controls the route table.
type Options struct {
	// Aliases also mounts the legacy route names (/createCard, /addCard,
	// PUT /updateCard/:id, /delateCards/:id) on the same handlers.
	Aliases bool
}

// Handler serves the card API over a Service.
type Handler struct {
	svc service.Service
}

func New(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterCardRoutes mounts the card API behind the readiness gate.
func RegisterCardRoutes(r gin.IRouter, svc service.Service, opts Options) {
	h := New(svc)
	g := r.Group("/", RequireReady(svc))

	g.POST("/cards", h.Create)
	g.GET("/getAllCards", h.List)
	g.GET("/getCard/:id", h.Get)
	g.PUT("/updateAllcards/:id", h.Replace)
	g.PATCH("/updateCard/:id", h.Patch)
	g.PATCH("/updateLike/:id", h.ToggleLike)
	g.DELETE("/deleteCard/:id", h.Delete)

	if opts.Aliases {
		g.POST("/createCard", h.Create)
		g.POST("/addCard", h.Create)
		g.PUT("/updateCard/:id", h.Replace)
		g.DELETE("/delateCards/:id", h.Delete)
	}
}

var notReadyLog = rate.Sometimes{Interval: 10 * time.Second}

// RequireReady answers 503 until the store has been attached.
func RequireReady(svc service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !svc.Ready() {
			notReadyLog.Do(func() {
				logger.Warnf("card store not ready; rejecting %s %s", c.Request.Method, c.Request.URL.Path)
			})
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "Card store not ready"})
			return
		}
		c.Next()
	}
}

// Create accepts any JSON object and returns 201 with the stored card.
func (h *Handler) Create(c *gin.Context) {
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	created, err := h.svc.Create(c.Request.Context(), p)
	if err != nil {
		writeError(c, "Error creating card", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Card created successfully", "data": created})
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, "Error retrieving cards", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	got, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Error retrieving card", err)
		return
	}
	c.JSON(http.StatusOK, got)
}

// Replace overwrites the card's fields with the body.
func (h *Handler) Replace(c *gin.Context) {
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	updated, err := h.svc.Replace(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		writeError(c, "Error updating card", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Card updated successfully", "data": updated})
}

// Patch merges the body into the card.
func (h *Handler) Patch(c *gin.Context) {
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	updated, err := h.svc.Patch(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		writeError(c, "Error updating card", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Card updated successfully", "data": updated})
}

func (h *Handler) ToggleLike(c *gin.Context) {
	updated, err := h.svc.ToggleLike(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "Error toggling like", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "Error deleting card", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Card deleted successfully"})
}

// bindPayload reads a JSON object body. An absent body counts as {}.
func bindPayload(c *gin.Context) (card.Payload, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return card.Payload{}, false
	}
	raw := map[string]interface{}{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := binding.JSON.BindBody(body, &raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
			return card.Payload{}, false
		}
	}
	p, err := card.ParsePayload(raw)
	if err != nil {
		writeError(c, "Invalid request body", err)
		return card.Payload{}, false
	}
	return p, true
}

// writeError maps the card error taxonomy onto HTTP statuses. fallback is
// the message used for unexpected store failures.
func writeError(c *gin.Context, fallback string, err error) {
	switch {
	case errors.Is(err, card.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Card not found"})
	case errors.Is(err, card.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid card id", "error": err.Error()})
	case errors.Is(err, card.ErrEmptyPatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Request body is empty"})
	case errors.Is(err, card.ErrInvalidPayload), errors.Is(err, card.ErrRejected):
		logger.Debugf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid card", "error": err.Error()})
	case errors.Is(err, card.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Card store not ready"})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	}
}
