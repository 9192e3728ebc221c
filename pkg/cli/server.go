package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/mchmarny/gearpulse/pkg/config"
	"github.com/mchmarny/gearpulse/pkg/youtube"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverPortDefault         = 8080

	portFlagName            = "port"
	noBrowserFlagName       = "no-browser"
	refreshScheduleFlagName = "refresh-schedule"
)

func newServerCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP server with the catalog JSON API",
		UsageText: `gearpulse server --port 8080
   gearpulse server --refresh-schedule "0 3 * * *"   # refresh YouTube metadata nightly`,
		Action: cmdStartServer,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  portFlagName,
				Usage: "Port on which the server will listen",
				Value: serverPortDefault,
			},
			&cli.BoolFlag{
				Name:    noBrowserFlagName,
				Aliases: []string{"nb"},
				Usage:   "Do not open browser automatically",
			},
			&cli.StringFlag{
				Name:  refreshScheduleFlagName,
				Usage: "Cron spec for YouTube metadata refresh (e.g. @daily), disabled when empty",
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	address := fmt.Sprintf("127.0.0.1:%d", cmd.Int(portFlagName))

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(cfg.DB, cfg.Config),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	if spec := cmd.String(refreshScheduleFlagName); spec != "" {
		c, err := startRefreshScheduler(ctx, spec, func(ctx context.Context) error {
			return refreshSources(ctx, cfg)
		})
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error starting server", "error", err)
		}
	}()

	url := fmt.Sprintf("http://%s/data/state", address)
	slog.Info("server started", "address", url)

	if !cmd.Bool(noBrowserFlagName) {
		openBrowser(url)
	}

	<-done

	sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

func makeRouter(db *sql.DB, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /data/products", productsAPIHandler(db, cfg))
	mux.HandleFunc("GET /data/products/{id}", productAPIHandler(db, cfg))
	mux.HandleFunc("GET /data/products/{id}/related", relatedAPIHandler(db, cfg))
	mux.HandleFunc("PATCH /data/products/{id}", updateAPIHandler(db))
	mux.HandleFunc("POST /data/products/{id}/status", statusAPIHandler(db))
	mux.HandleFunc("GET /data/facets/{kind}", facetAPIHandler(db, cfg))
	mux.HandleFunc("GET /data/state", stateAPIHandler(db))

	return mux
}

// startRefreshScheduler runs fn on the cron spec until the returned cron is stopped.
// Overlapping runs are skipped.
func startRefreshScheduler(ctx context.Context, spec string, fn func(context.Context) error) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if err := fn(ctx); err != nil {
			slog.Error("scheduled refresh failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	c.Start()
	slog.Info("refresh scheduled", "spec", spec)
	return c, nil
}

func refreshSources(ctx context.Context, cfg *appConfig) error {
	client, err := newYouTubeClient(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := youtube.RefreshSources(ctx, cfg.DB, client)
	if err != nil {
		return fmt.Errorf("refreshing sources: %w", err)
	}

	slog.Info("sources refreshed", "requested", res.Requested, "updated", res.Updated)
	return nil
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}
