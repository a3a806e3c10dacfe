// Package httpx holds the gin middleware and JSON error envelope shared by
// the HTTP services.
package httpx

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rid, _ := c.Get("rid")
		log.Printf("[http] rid=%v %s %s status=%d dur=%s",
			rid, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Fail aborts the request with the JSON error envelope.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, HTTPError{Error: msg})
}

// Internal logs err with the request id and answers 500 without leaking it.
func Internal(c *gin.Context, err error) {
	rid, _ := c.Get("rid")
	log.Printf("[http] rid=%v %s %s error: %v", rid, c.Request.Method, c.Request.URL.Path, err)
	Fail(c, http.StatusInternalServerError, "internal error")
}

// Healthz answers the liveness probe.
func Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// New returns a gin engine with recovery, request ids and access logs.
func New() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger())
	r.GET("/healthz", Healthz)
	return r
}
