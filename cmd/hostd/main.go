// hostd — the host-resident telemetry & control-plane daemon for an
// illumos/OmniOS hypervisor, wiring the scheduler, cleanup service,
// task queue, and HTTP/console surface around a single sqlite store.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/omnizone/hostd/internal/api"
	"github.com/omnizone/hostd/internal/cleanup"
	"github.com/omnizone/hostd/internal/collector"
	"github.com/omnizone/hostd/internal/config"
	"github.com/omnizone/hostd/internal/console"
	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/scheduler"
	"github.com/omnizone/hostd/internal/store"
	"github.com/omnizone/hostd/internal/taskqueue"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "hostd",
		Short:   "Host control-plane daemon for illumos/OmniOS bhyve hosts",
		Version: version,
	}

	var configPath string

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Run the daemon against a YAML configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	startCmd.Flags().StringVarP(&configPath, "config", "c", "/etc/hostd/config.yaml", "path to YAML configuration")

	devCmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the daemon with built-in defaults against a local sqlite file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg.Database.Path = "./hostd.dev.db"
			return run(cfg)
		},
	}

	rootCmd.AddCommand(startCmd, devCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run brings up every component in dependency order — store, host
// identity, collectors, scheduler, cleanup, task queue, then the
// HTTP/console surface — and blocks until SIGINT/SIGTERM, tearing
// everything down in reverse order.
func run(cfg *config.Config) error {
	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	r := runner.New(cfg.HostMonitoring.Performance.MaxOutputBytes, true)

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	platformName, release, arch := detectPlatform(r)

	errH := cfg.HostMonitoring.ErrorHandling
	st := hoststate.New(host, host, platformName, release, arch, errH.MaxConsecutiveErrors, errH.ResetErrorCountAfter)

	collectors := []collector.Collector{
		collector.NewNetworkConfigCollector(r, s, st, host),
		collector.NewNetworkUsageCollector(r, s, st, host, cfg.HostMonitoring.Intervals.NetworkUsage),
		collector.NewStorageCollector(r, s, st, host),
		collector.NewStorageFrequentCollector(r, s, st, host),
		collector.NewDevicesCollector(r, s, st, host),
		collector.NewSystemMetricsCollector(r, s, st, host),
	}

	intervals := map[string]time.Duration{
		"network_config":   cfg.HostMonitoring.Intervals.NetworkConfig,
		"network_usage":    cfg.HostMonitoring.Intervals.NetworkUsage,
		"storage":          cfg.HostMonitoring.Intervals.Storage,
		"storage_frequent": cfg.HostMonitoring.Intervals.StorageFrequent,
		"devices":          cfg.HostMonitoring.Intervals.Devices,
		"system_metrics":   cfg.HostMonitoring.Intervals.SystemMetrics,
	}

	sched := scheduler.New(collectors, intervals, st, s, r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	cleanupSvc := cleanup.New(s, cfg.HostMonitoring.Retention)
	if err := cleanupSvc.Start(cfg.HostMonitoring.Intervals.CleanupDailyAt); err != nil {
		return fmt.Errorf("start cleanup: %w", err)
	}
	defer cleanupSvc.Stop()

	worker := taskqueue.New(s, r, 2*time.Second)
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	go func() {
		if err := worker.Run(workerCtx); err != nil {
			fmt.Fprintf(os.Stderr, "[taskqueue] %v\n", err)
		}
	}()

	srv := api.New(s, st, sched, cfg, host)

	bridge := console.New(s, cfg.HostMonitoring.Performance.VNCCleanupGraceWindow)
	bridge.Routes(srv.Router)
	go bridge.RunInactivitySweep(ctx, cfg.HostMonitoring.Performance.SessionInactivityThreshold)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: corsMiddleware(cfg.CORS.AllowedOrigins, srv.Router),
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.SSL.Enabled {
			err = httpSrv.ListenAndServeTLS(cfg.SSL.CertFile, cfg.SSL.KeyFile)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	fmt.Printf("[hostd] listening on %s (db=%s)\n", httpSrv.Addr, cfg.Database.Path)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// detectPlatform shells out to uname for the host identity fields
// HostInfo reports; failures degrade to "unknown" (release, arch) or
// "illumos" (platform name) rather than aborting startup (§7
// "unavailable feature").
func detectPlatform(r *runner.CommandRunner) (platformName, release, arch string) {
	platformName, release, arch = "illumos", "unknown", "unknown"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if res, err := r.Run(ctx, "uname", "-s"); err == nil && res.ExitCode == 0 {
		platformName = strings.TrimSpace(res.Stdout)
	}
	if res, err := r.Run(ctx, "uname", "-r"); err == nil && res.ExitCode == 0 {
		release = strings.TrimSpace(res.Stdout)
	}
	if res, err := r.Run(ctx, "uname", "-p"); err == nil && res.ExitCode == 0 {
		arch = strings.TrimSpace(res.Stdout)
	}
	return platformName, release, arch
}

// corsMiddleware applies the configured allow-list to every response,
// short-circuiting preflight OPTIONS requests.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		}
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}
