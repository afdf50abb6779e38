// Package server exposes the template pipeline over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/output"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/uploader"
	"github.com/sirupsen/logrus"
)

// ServiceName is reported by the health endpoints.
const ServiceName = "masstemplate"

// Server holds the HTTP handlers.
type Server struct {
	creator  *masstemplate.Creator
	uploader *uploader.Uploader
	log      logrus.FieldLogger
}

// New creates a Server.
func New(creator *masstemplate.Creator, up *uploader.Uploader, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{creator: creator, uploader: up, log: log}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.log))

	r.GET("/health", s.Health)
	r.GET("/ready", s.Ready)

	api := r.Group("/api/v1/templates")
	api.POST("", s.CreateTemplate)
	api.POST("/steps/:step", s.RunStep)
	api.GET("/export", s.Export)
	api.POST("/copy", s.CopyTemplate)
	return r
}

// RequestLogger logs one line per request.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}

// statusOf maps pipeline errors to HTTP status codes.
func statusOf(err error) int {
	if masstemplate.IsValidation(err) ||
		errors.Is(err, masstemplate.ErrMissingCredentials) ||
		errors.Is(err, output.ErrNoHeaderRow) ||
		errors.Is(err, output.ErrEmptyOutput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}
