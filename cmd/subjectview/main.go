package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"subjectview/internal/config"
	"subjectview/internal/platform/openlibrary"
	"subjectview/internal/timeline"
	"subjectview/internal/view"
	"subjectview/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	addr    string
	subject string
	limit   int
}

func (f flags) apply(cfg *config.Config) error {
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.subject != "" {
		cfg.Subject = f.subject
	}
	if f.limit > 0 {
		cfg.Limit = f.limit
	}
	return cfg.Validate()
}

func newRootCmd() *cobra.Command {
	var fl flags

	root := &cobra.Command{
		Use:          "subjectview",
		Short:        "Browse an Open Library subject as a card list and a publication timeline",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), fl)
		},
	}
	root.PersistentFlags().StringVar(&fl.subject, "subject", "", "subject slug (overrides SUBJECT)")
	root.PersistentFlags().IntVar(&fl.limit, "limit", 0, "result limit (overrides RESULT_LIMIT)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the page session over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), fl)
		},
	}
	serve.Flags().StringVar(&fl.addr, "addr", "", "listen address (overrides APP_ADDR)")
	root.Flags().AddFlagSet(serve.Flags())

	counts := &cobra.Command{
		Use:   "counts",
		Short: "Fetch the subject once and print publications per year",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCounts(cmd.Context(), cmd.OutOrStdout(), fl)
		},
	}

	root.AddCommand(serve, counts)
	return root
}

func loadConfig(fl flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := fl.apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func runServe(ctx context.Context, fl flags) error {
	cfg, err := loadConfig(fl)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Each browser gets its own session; opening one runs the fetch inside
	// the page request, so the write timeout has to cover it.
	client := openlibrary.NewClient(cfg.BaseURL, cfg.UserAgent, cfg.FetchTimeout)
	sessions := web.NewSessions(func() *view.Session {
		return view.NewSession(view.SessionConfig{Subject: cfg.Subject, Limit: cfg.Limit}, logger)
	}, client, web.SessionOptions{
		TTL:    cfg.SessionTTL,
		Max:    cfg.MaxSessions,
		Secure: cfg.EnableHSTS,
	}, logger)

	httpServer := &http.Server{
		Addr: cfg.Addr,
		Handler: web.NewRouter(sessions, web.RouterConfig{
			ImagesDir:      cfg.ImagesDir,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			EnableHSTS:     cfg.EnableHSTS,
		}, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr), zap.String("subject", cfg.Subject))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runCounts(ctx context.Context, out io.Writer, fl flags) error {
	cfg, err := loadConfig(fl)
	if err != nil {
		return err
	}
	client := openlibrary.NewClient(cfg.BaseURL, cfg.UserAgent, cfg.FetchTimeout)

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()
	res, err := client.FetchSubject(fetchCtx, cfg.Subject, cfg.Limit)
	if err != nil {
		fmt.Fprintln(out, view.LoadErrorMsg)
		return err
	}

	records := view.RecordsFromWorks(res.Works)
	fmt.Fprint(out, formatCounts(cfg.Subject, len(records), timeline.CountsByYear(records)))
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4a90e2"))
	yearStyle   = lipgloss.NewStyle().Width(6).Align(lipgloss.Right)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#27ae60"))
)

func formatCounts(subject string, total int, counts []timeline.YearCount) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d publications found via %s (%s)", total, view.SourceName, subject)))
	b.WriteString("\n")
	if len(counts) == 0 {
		b.WriteString("no dated publications\n")
		return b.String()
	}
	for _, c := range counts {
		fmt.Fprintf(&b, "%s %s %d\n", yearStyle.Render(c.Label()), barStyle.Render(strings.Repeat("#", c.Count)), c.Count)
	}
	return b.String()
}
