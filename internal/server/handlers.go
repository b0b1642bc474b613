package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/nao1215/uxaudit/internal/artifact"
	"github.com/nao1215/uxaudit/internal/model"
	"github.com/nao1215/uxaudit/internal/stream"
)

var (
	// ErrMissingURL is sent when /api/stream is called without a url.
	ErrMissingURL = errors.New("url query parameter is required")

	// ErrInvalidURL is sent when the url is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("url must be an http or https address")

	// ErrNotConfigured is sent when no pipeline is available.
	ErrNotConfigured = errors.New("audit pipeline is not configured")
)

func (s *Server) index(c *gin.Context) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "index page unavailable")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
	})
}

// streamAudit runs one audit and pushes its events. The run is cancelled
// when the client goes away.
func (s *Server) streamAudit(c *gin.Context) {
	c.Header("X-Accel-Buffering", "no")

	target, err := NormalizeURL(c.Query("url"))
	if err == nil {
		err = s.ready()
	}
	if err != nil {
		s.logger.Warn("audit rejected", "url", c.Query("url"), "error", err)
		_ = s.emit(c, stream.ErrorEvent(err.Error()))
		return
	}

	ctx := c.Request.Context()
	run := stream.Start(ctx, s.runner, target)
	if err := run.Stream(ctx, func(ev stream.Event) error {
		return s.emit(c, ev)
	}); err != nil {
		s.logger.Info("stream ended early", "url", target, "error", err)
	}
}

func (s *Server) ready() error {
	if s.preflight != nil {
		if err := s.preflight(); err != nil {
			return err
		}
	}
	if s.runner == nil {
		return ErrNotConfigured
	}
	return nil
}

// emit writes one SSE data frame and flushes it.
func (s *Server) emit(c *gin.Context, ev stream.Event) error {
	if err := c.Request.Context().Err(); err != nil {
		return err
	}
	c.Render(-1, sse.Event{Data: ev})
	c.Writer.Flush()
	return nil
}

func (s *Server) download(c *gin.Context) {
	ref := model.ArtifactRef(c.Param("ref"))

	a, err := s.store.Get(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		s.logger.Error("failed to read report", "ref", ref, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read report"})
		return
	}

	etag := `"` + a.Digest + `"`
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	c.Data(http.StatusOK, a.ContentType, a.Data)

	if s.deleteOnDownload {
		s.forget(ref)
	}
}

func (s *Server) forget(ref model.ArtifactRef) {
	// The request context may already be done once the body is written.
	if err := s.store.Delete(context.Background(), ref); err != nil {
		s.logger.Warn("failed to delete downloaded report", "ref", ref, "error", err)
	}
}

// NormalizeURL validates an audit target. Bare host names get an https
// scheme.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}
