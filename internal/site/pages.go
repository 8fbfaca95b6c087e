package site

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/wangQuinn/portfolio/internal/content"
	"github.com/wangQuinn/portfolio/internal/mail"
	"github.com/wangQuinn/portfolio/internal/store"
)

const navCookie = "nav"

// directoryEntry is one file in the sidebar.
type directoryEntry struct {
	ID       string
	FileName string
	Active   bool
}

// windowView is everything the window template needs.
type windowView struct {
	Owner         string
	Title         string
	Directory     []directoryEntry
	Section       content.Section
	DirectoryOpen bool
	WindowVisible bool
}

func (s *Server) windowView(nav *content.Navigator) windowView {
	v := windowView{
		Owner:         s.portfolio.Owner,
		Title:         s.portfolio.WindowTitle,
		Section:       s.portfolio.Sections[nav.Active()],
		DirectoryOpen: nav.DirectoryOpen(),
		WindowVisible: nav.WindowVisible(),
	}
	for i, sec := range s.portfolio.Sections {
		v.Directory = append(v.Directory, directoryEntry{
			ID:       sec.ID,
			FileName: sec.FileName(),
			Active:   i == nav.Active(),
		})
	}
	return v
}

// navigator restores the visitor's UI state from the cookie. A bad cookie is
// treated as a fresh visit.
func (s *Server) navigator(c *gin.Context) *content.Navigator {
	token, _ := c.Cookie(navCookie)
	nav, err := content.DecodeNavigator(token, len(s.portfolio.Sections))
	if err != nil {
		s.log.Debug().Err(err).Msg("Ignoring navigation cookie")
	}
	return nav
}

func (s *Server) saveNavigator(c *gin.Context, nav *content.Navigator) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(navCookie, nav.Encode(), 3600*24*30, "/", "", s.cfg.Admin.CookieSecure, true)
}

func (s *Server) index(c *gin.Context) {
	nav := s.navigator(c)
	if id := c.Query("section"); id != "" {
		nav.Navigate(s.portfolio.Index(id))
		nav.OpenWindow()
	}
	s.saveNavigator(c, nav)

	c.HTML(http.StatusOK, "index.html", gin.H{
		"window": s.windowView(nav),
	})
}

func (s *Server) showSection(c *gin.Context) {
	nav := s.navigator(c)
	if !nav.Navigate(s.portfolio.Index(c.Param("id"))) {
		c.String(http.StatusNotFound, "no such section")
		return
	}
	nav.OpenWindow()
	s.saveNavigator(c, nav)
	c.Header("HX-Push-Url", "/?section="+c.Param("id"))
	c.HTML(http.StatusOK, "window", s.windowView(nav))
}

func (s *Server) toggleDirectory(c *gin.Context) {
	s.updateWindow(c, (*content.Navigator).ToggleDirectory)
}

func (s *Server) closeWindow(c *gin.Context) {
	s.updateWindow(c, (*content.Navigator).CloseWindow)
}

func (s *Server) openWindow(c *gin.Context) {
	s.updateWindow(c, (*content.Navigator).OpenWindow)
}

func (s *Server) updateWindow(c *gin.Context, apply func(*content.Navigator)) {
	nav := s.navigator(c)
	apply(nav)
	s.saveNavigator(c, nav)
	c.HTML(http.StatusOK, "window", s.windowView(nav))
}

func (s *Server) followLink(c *gin.Context) {
	url, err := s.store.FollowLink(c.Request.Context(), c.Param("code"))
	if errors.Is(err, store.ErrNotFound) {
		c.String(http.StatusNotFound, "unknown link")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("code", c.Param("code")).Msg("Error following link")
		c.String(http.StatusInternalServerError, "link unavailable")
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (s *Server) contactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"title": "Contact Me",
	})
}

type contactRequest struct {
	Name    string `form:"fullName" binding:"required,max=200"`
	Email   string `form:"email" binding:"required,email"`
	Message string `form:"message" binding:"required,max=5000"`
}

func (s *Server) submitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please fill in your name, a valid email and a message.",
		})
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	ctx := c.Request.Context()
	msg, err := s.store.SaveMessage(ctx, store.Message{Name: req.Name, Email: req.Email, Body: req.Message})
	if err != nil {
		s.log.Error().Err(err).Msg("Error saving contact message")
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	if err := s.mailer.Send(s.log.WithContext(ctx), mail.Contact{Name: req.Name, Email: req.Email, Message: req.Message}); err != nil {
		// the message is stored, so the visitor still gets a success reply
		s.log.Error().Err(err).Str("message", msg.ID).Msg("Error sending email")
	} else if err := s.store.MarkDelivered(ctx, msg.ID); err != nil {
		s.log.Error().Err(err).Str("message", msg.ID).Msg("Error marking message delivered")
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}
