package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-vine/internal/config"
	"github.com/joeblew999/plat-vine/internal/devbackend"
	"github.com/joeblew999/plat-vine/internal/logging"
	"github.com/joeblew999/plat-vine/internal/server"
)

// Options defines the CLI flags and env vars of the dashboard.
// Flags: --host, --port, --config
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG
// Host and port override the config file when set.
type Options struct {
	Host   string `doc:"Host to bind to (overrides server.host)"`
	Port   int    `doc:"Port to listen on (overrides server.port)" short:"p"`
	Config string `doc:"Path to a YAML config file" short:"c"`
}

func loadConfig(opts *Options) *config.Config {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg
}

func newServer(cfg *config.Config) *server.Server {
	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}
	return srv
}

func displayURL(host string, port int) string {
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var httpServer *http.Server

		hooks.OnStart(func() {
			cfg := loadConfig(opts)
			srv := newServer(cfg)
			defer srv.Close()

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			baseURL := displayURL(cfg.Server.Host, cfg.Server.Port)

			fmt.Println()
			fmt.Printf("plat-vine dashboard starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Backend: %s\n", cfg.Backend.URL)
			fmt.Println()
			fmt.Printf("  Page:    %s/\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server error", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(ctx)
		})
	})

	cli.Root().Use = "vine"
	cli.Root().Short = "Vineyard disease-risk map dashboard"
	cli.Root().Version = server.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(loadConfig(opts))
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// config subcommand: print the effective configuration
	cli.Root().AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			out, err := loadConfig(opts).YAML()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling config: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(out))
		}),
	})

	// devbackend subcommand: run the development backend
	cli.Root().AddCommand(&cobra.Command{
		Use:   "devbackend",
		Short: "Run the development vineyard backend (DuckDB storage, sample data)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg := loadConfig(opts)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runDevBackend(ctx, cfg.DevBackend); err != nil {
				slog.Error("devbackend error", "error", err)
				os.Exit(1)
			}
		}),
	})

	cli.Run()
}

func runDevBackend(ctx context.Context, cfg config.DevBackendConfig) error {
	b, closer, err := devbackend.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer closer.Close()

	handler, _ := b.Handler()
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	storage := cfg.DBPath
	if storage == "" {
		storage = "in memory"
	}
	slog.Info("devbackend listening", "url", displayURL(cfg.Host, cfg.Port), "db", storage)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
