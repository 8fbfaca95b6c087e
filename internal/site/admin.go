package site

import (
	"crypto/subtle"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/wangQuinn/portfolio/internal/store"
)

const adminCookie = "admin_token"

// adminAuth redirects to the login page unless the admin cookie matches.
func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) adminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":         "Privacy Policy",
			"retentionDays": s.cfg.Storage.RetentionDays,
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})
	r.POST("/admin/login", s.adminLogin)
	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", s.cfg.Admin.CookieSecure, true)
		s.log.Info().Str("client", s.store.HashIP(c.ClientIP())).Msg("Admin logout")
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.adminAuth())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			s.adminError(c, err, "Failed to load statistics")
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
			"peak":  peak(stats.Daily),
		})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/links", func(c *gin.Context) {
		links, err := s.store.Links(c.Request.Context(), 0)
		if err != nil {
			s.adminError(c, err, "Failed to load links")
			return
		}
		c.HTML(http.StatusOK, "admin-links.html", gin.H{"links": links})
	})

	admin.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.store.RecentVisitors(c.Request.Context(), 200)
		if err != nil {
			s.adminError(c, err, "Failed to load visitors")
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{"visitors": visitors})
	})

	admin.GET("/messages", func(c *gin.Context) {
		messages, err := s.store.Messages(c.Request.Context(), 0)
		if err != nil {
			s.adminError(c, err, "Failed to load messages")
			return
		}
		c.HTML(http.StatusOK, "admin-messages.html", gin.H{"messages": messages})
	})

	admin.DELETE("/links/:code", func(c *gin.Context) {
		code := c.Param("code")
		err := s.store.DeleteLink(c.Request.Context(), code)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		case err != nil:
			s.log.Error().Err(err).Str("code", code).Msg("Error deleting link")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
			return
		}
		s.log.Info().Str("code", code).Str("client", s.store.HashIP(c.ClientIP())).Msg("Link deleted by admin")
		c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
	})

	admin.POST("/privacy/delete-visitor-data", func(c *gin.Context) {
		n, err := s.cleanup(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Privacy cleanup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": n})
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		s.log.Info().Str("client", s.store.HashIP(c.ClientIP())).Msg("Admin stats exported")
		c.JSON(http.StatusOK, stats)
	})
}

func (s *Server) adminLogin(c *gin.Context) {
	username, password, _ := s.cfg.AdminCredentials()
	client := s.store.HashIP(c.ClientIP())

	userOK := subtle.ConstantTimeCompare([]byte(c.PostForm("username")), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(c.PostForm("password")), []byte(password)) == 1
	if !userOK || !passOK {
		s.log.Warn().Str("client", client).Msg("Failed admin login attempt")
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(adminCookie, s.adminToken, 3600*24, "/admin", "", s.cfg.Admin.CookieSecure, true)
	s.log.Info().Str("client", client).Msg("Admin login successful")
	c.Redirect(http.StatusFound, "/admin/dashboard")
}

func (s *Server) adminError(c *gin.Context, err error, msg string) {
	s.log.Error().Err(err).Msg(msg)
	c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
		"title": "Admin Error",
		"error": msg,
	})
}

// peak is the highest daily count, at least 1 so bar widths never divide by zero.
func peak(days []store.DayCount) int64 {
	var m int64 = 1
	for _, d := range days {
		m = max(m, d.Visits)
	}
	return m
}
