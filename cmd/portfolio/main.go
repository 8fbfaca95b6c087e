// Package main provides the portfolio command: the web server, the terminal
// rendition and a few maintenance tools.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/guptarohit/asciigraph"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wangQuinn/portfolio/internal/config"
	"github.com/wangQuinn/portfolio/internal/content"
	"github.com/wangQuinn/portfolio/internal/logger"
	"github.com/wangQuinn/portfolio/internal/mail"
	"github.com/wangQuinn/portfolio/internal/site"
	"github.com/wangQuinn/portfolio/internal/store"
	"github.com/wangQuinn/portfolio/internal/tui"
)

var (
	configPath  string
	verbose     bool
	logfile     string
	noAltScreen bool
	statsDays   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "personal portfolio server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "log to this file instead of stdout")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the portfolio over HTTP (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "browse the portfolio in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
	tuiCmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "print visitor statistics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	statsCmd.Flags().IntVar(&statsDays, "days", 30, "days of history to chart")

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "delete visitor records older than the retention period",
		Args:  cobra.NoArgs,
		RunE:  runCleanup,
	}

	rootCmd.AddCommand(serveCmd, tuiCmd, statsCmd, cleanupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads .env, the config file and initialises logging.
func setup() (*config.Config, error) {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	if logfile != "" {
		cfg.Log.Output = logfile
	}
	if err := logger.Init(logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level}); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	portfolio, err := content.Load(cfg.Content.Path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Storage.Path, store.Options{})
	if err != nil {
		return err
	}
	defer st.Close()

	var mailer mail.Sender = mail.Discard{}
	if cfg.MailEnabled() {
		mailer = mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
			To:       cfg.Mail.To,
		})
	} else {
		zlog.Warn().Msg("SMTP credentials not configured; contact messages are stored but not mailed")
	}

	srv, err := site.New(site.Options{
		Config:    cfg,
		Portfolio: portfolio,
		Store:     st,
		Mailer:    mailer,
		Logger:    zlog.Logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// the TUI owns the terminal, so logs must not go to stdout
	if logfile == "" {
		logfile = os.DevNull
	}
	cfg, err := setup()
	if err != nil {
		return err
	}

	portfolio, err := content.Load(cfg.Content.Path)
	if err != nil {
		return err
	}

	opts := []tea.ProgramOption{}
	if !noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(tui.New(tui.Config{Portfolio: portfolio, FPS: cfg.Effects.FPS}), opts...)
	if _, err := program.Run(); err != nil {
		return errors.Wrap(err, "program error")
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := store.Open(ctx, cfg.Storage.Path, store.Options{})
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "page views\t%d\n", stats.TotalVisitors)
	fmt.Fprintf(w, "unique visitors\t%d\n", stats.UniqueVisitors)
	fmt.Fprintf(w, "today\t%d\n", stats.VisitorsToday)
	fmt.Fprintf(w, "this week\t%d\n", stats.VisitorsThisWeek)
	fmt.Fprintf(w, "link clicks\t%d\n", stats.TotalClicks)
	fmt.Fprintf(w, "messages\t%d\n", stats.TotalMessages)
	w.Flush()

	if len(stats.TopLinks) > 0 {
		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LINK\tCLICKS\tURL")
		for _, l := range stats.TopLinks {
			fmt.Fprintf(w, "%s\t%d\t%s\n", l.Code, l.Clicks, l.URL)
		}
		w.Flush()
	}

	daily, err := st.DailyVisitors(ctx, statsDays)
	if err != nil {
		return err
	}
	if len(daily) < 2 {
		return nil
	}
	data := make([]float64, len(daily))
	for i, d := range daily {
		data[i] = float64(d.Visits)
	}
	caption := fmt.Sprintf("page views per day, %s to %s",
		daily[0].Day.Format(time.DateOnly), daily[len(daily)-1].Day.Format(time.DateOnly))
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(out)
	fmt.Fprintln(out, graph)
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := store.Open(ctx, cfg.Storage.Path, store.Options{})
	if err != nil {
		return err
	}
	defer st.Close()

	retention := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
	n, err := st.Cleanup(ctx, retention)
	if err != nil {
		return err
	}
	zlog.Info().Int64("removed", n).Int("days", cfg.Storage.RetentionDays).Msg("Visitor cleanup complete")
	return nil
}
