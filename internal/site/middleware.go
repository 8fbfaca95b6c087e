package site

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// untracked paths never count as page views.
var untracked = []string{
	"/static/",
	"/admin",
	"/favicon",
	"/privacy",
	"/typewriter/",
	"/effects/",
	"/go/",
	"/contact",
}

// visitorTracking records page views with hashed IPs. Requests carrying
// "DNT: 1" are not recorded.
func (s *Server) visitorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range untracked {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		if c.GetHeader("DNT") == "1" || c.Request.Method != "GET" {
			c.Next()
			return
		}

		ip, ua, page := c.ClientIP(), c.GetHeader("User-Agent"), c.Request.URL.RequestURI()
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.store.RecordVisit(ctx, ip, ua, page); err != nil {
				s.log.Error().Err(err).Msg("Error recording visitor")
			}
		}()
		c.Next()
	}
}

// requestLogger logs one line per request. Streams log when they end.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := s.log.Info()
		switch {
		case status >= 500:
			evt = s.log.Error()
		case status >= 400:
			evt = s.log.Warn()
		}
		// raw IPs are never logged
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client", s.store.HashIP(c.ClientIP())).
			Msg("Request")
	}
}
