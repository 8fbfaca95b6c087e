// Package site serves the portfolio over HTTP: the page itself, HTMX
// fragments for navigation, server-sent typewriter and effect streams,
// counted outbound links, the contact form and the admin dashboard.
package site

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wangQuinn/portfolio/internal/config"
	"github.com/wangQuinn/portfolio/internal/content"
	"github.com/wangQuinn/portfolio/internal/frame"
	"github.com/wangQuinn/portfolio/internal/mail"
	"github.com/wangQuinn/portfolio/internal/store"
	"github.com/wangQuinn/portfolio/internal/typewriter"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Options wires a Server. Config, Portfolio and Store are required.
type Options struct {
	Config    *config.Config
	Portfolio *content.Portfolio
	Store     *store.Store
	Mailer    mail.Sender
	Logger    zerolog.Logger

	// Typing schedules typewriter ticks; wall clock when nil.
	Typing typewriter.Scheduler
	// Frames builds the scheduler for each effect stream; wall clock when nil.
	Frames func() frame.Scheduler
}

type Server struct {
	cfg       *config.Config
	portfolio *content.Portfolio
	store     *store.Store
	mailer    mail.Sender
	log       zerolog.Logger

	typing typewriter.Scheduler
	frames func() frame.Scheduler

	engine     *gin.Engine
	adminToken string
	streams    *streamRegistry

	// quit ends open streams on shutdown.
	quit     chan struct{}
	quitOnce sync.Once

	// background tracks fire-and-forget writes so shutdown can wait for them.
	background sync.WaitGroup
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Portfolio == nil || opts.Store == nil {
		return nil, errors.New("site: config, portfolio and store are required")
	}

	token, err := store.RandomToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate admin token")
	}

	s := &Server{
		cfg:        opts.Config,
		portfolio:  opts.Portfolio,
		store:      opts.Store,
		mailer:     opts.Mailer,
		log:        opts.Logger,
		typing:     opts.Typing,
		frames:     opts.Frames,
		adminToken: token,
		streams:    newStreamRegistry(),
		quit:       make(chan struct{}),
	}
	if s.mailer == nil {
		s.mailer = mail.Discard{}
	}
	if s.typing == nil {
		s.typing = typewriter.TimerScheduler{}
	}
	if s.frames == nil {
		fps := s.cfg.Effects.FPS
		s.frames = func() frame.Scheduler { return frame.NewTickerScheduler(fps) }
	}

	if err := s.syncLinks(context.Background()); err != nil {
		return nil, err
	}

	engine, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.engine = engine

	s.log.Info().Msg("Admin access available at: /admin/login")
	if gin.Mode() == gin.DebugMode {
		s.log.Debug().Str("token", s.adminToken).Msg("Admin token (dev only)")
	}
	if _, _, defaults := s.cfg.AdminCredentials(); defaults {
		s.log.Warn().Msg("Using default admin credentials. Set ADMIN_USERNAME and ADMIN_PASSWORD.")
	}
	s.log.Info().Msg("Privacy: visitor tracking enabled with hashed IP addresses")
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	maint, err := s.startMaintenance()
	if err != nil {
		return err
	}
	defer stopMaintenance(maint)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("Received shutdown signal...")
	case err := <-errCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// open streams would otherwise hold Shutdown until the timeout
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("Failed to shutdown server")
	}
	s.background.Wait()

	s.log.Info().Msg("Server stopped")
	return nil
}

// Close ends every open stream. The handler keeps serving other requests.
func (s *Server) Close() {
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *Server) syncLinks(ctx context.Context) error {
	outbound := s.portfolio.Outbound()
	links := make([]store.Link, len(outbound))
	for i, o := range outbound {
		links[i] = store.Link{Code: o.Code, Label: o.Label, URL: o.URL}
	}
	if err := s.store.SyncLinks(ctx, links); err != nil {
		return err
	}
	s.log.Debug().Int("links", len(links)).Msg("Outbound links synced")
	return nil
}

func (s *Server) routes() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.visitorTracking())

	if err := r.SetTrustedProxies(s.cfg.Server.TrustedProxies); err != nil {
		return nil, errors.Wrap(err, "invalid trusted proxies")
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open static files")
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.index)
	r.GET("/sections/:id", s.showSection)
	r.POST("/directory/toggle", s.toggleDirectory)
	r.POST("/window/close", s.closeWindow)
	r.POST("/window/open", s.openWindow)

	r.GET("/typewriter/:section/:slot/stream", s.streamTypewriter)
	r.GET("/effects/:name/stream", s.streamEffect)
	r.POST("/effects/:name/visibility", s.effectVisibility)
	r.GET("/effects/:name/svg", s.effectSVG)

	r.GET("/go/:code", s.followLink)

	r.GET("/contact-form", s.contactForm)
	r.POST("/contact", s.submitContact)

	s.adminRoutes(r)
	return r, nil
}

var templateFuncs = template.FuncMap{
	"join":  strings.Join,
	"lower": strings.ToLower,
	"date": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	},
	"pct": func(v, of int64) int64 {
		if of <= 0 {
			return 0
		}
		return v * 100 / of
	},
}
