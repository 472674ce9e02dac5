package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/shioaji-mcp/src/config"
	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/logger"
	"github.com/jiaming2012/shioaji-mcp/src/mcptools"
	"github.com/jiaming2012/shioaji-mcp/src/session"
	"github.com/jiaming2012/shioaji-mcp/src/telemetry"
	"github.com/jiaming2012/shioaji-mcp/src/utils"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "shioaji-mcp",
	Short:        "MCP tool server for the Shioaji brokerage API",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the brokerage tools over stdio or SSE",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		return runServe(cmd.Context(), cfg)
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools exposed by the server",
	Run: func(cmd *cobra.Command, args []string) {
		srv := mcptools.NewServer(session.New(nil, nil, true), mcptools.Options{Version: version})

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Tool", "Description"})
		table.SetAutoWrapText(false)
		for _, tool := range srv.Tools() {
			table.Append([]string{tool.Name, tool.Description})
		}
		table.Render()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-dir", "", "Directory holding .env.development / .env.production (defaults to $PROJECTS_DIR)")

	serveCmd.Flags().String("transport", "", "stdio or sse (overrides $MCP_TRANSPORT)")
	serveCmd.Flags().String("addr", "", "Listen address for sse (overrides $MCP_HTTP_ADDR)")
	serveCmd.Flags().String("backend", "", "paper or gateway (overrides $SHIOAJI_BACKEND)")

	rootCmd.AddCommand(serveCmd, toolsCmd, versionCmd)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envDir, err := cmd.Flags().GetString("env-dir")
	if err != nil {
		return config.Config{}, err
	}

	if err := utils.InitEnvironmentVariables(envDir); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if v, _ := cmd.Flags().GetString("transport"); v != "" {
		cfg.Transport = config.Transport(v)
	}

	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.HTTPAddr = v
	}

	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = config.Backend(v)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func runServe(ctx context.Context, cfg config.Config) (err error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OtelEnabled {
		otelShutdown, setupErr := telemetry.Setup(ctx, "shioaji-mcp")
		if setupErr != nil {
			return fmt.Errorf("failed to setup otel sdk: %w", setupErr)
		}

		// Handle shutdown properly so nothing leaks.
		defer func() {
			err = errors.Join(err, otelShutdown(context.Background()))
		}()
	}

	sess := session.New(newBrokerFactory(cfg), session.NewDispatcher(), cfg.Simulation)
	defer sess.Logout(context.Background())

	creds, hasCreds := cfg.Credentials()
	srv := mcptools.NewServer(sess, mcptools.Options{
		Version:     version,
		Location:    eventmodels.MarketLocation,
		Credentials: creds,
	})
	mcptools.InstallDefaultHandlers(sess.Dispatcher(), srv.MCPServer())

	if hasCreds {
		if _, err := sess.Login(ctx, creds); err != nil {
			log.Warnf("auto login failed, use the login tool: %v", err)
		}
	}

	log.WithFields(log.Fields{
		"version":    version,
		"backend":    cfg.Backend,
		"transport":  cfg.Transport,
		"simulation": cfg.Simulation,
	}).Info("shioaji-mcp starting")

	switch cfg.Transport {
	case config.TransportSSE:
		return serveSSE(ctx, srv, cfg)
	default:
		return server.ServeStdio(srv.MCPServer())
	}
}

func serveSSE(ctx context.Context, srv *mcptools.Server, cfg config.Config) error {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		host := cfg.HTTPAddr
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		baseURL = "http://" + host
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mcptools.NewHTTPHandler(srv, baseURL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s (sse endpoint %s/sse)", cfg.HTTPAddr, baseURL)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
