// Confluence MCP Server - A Model Context Protocol server for Confluence Cloud
// Provides tools for reading, editing and publishing Confluence content
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olgasafonova/confluence-mcp-server/confluence"
	"github.com/olgasafonova/confluence-mcp-server/internal/journal"
	"github.com/olgasafonova/confluence-mcp-server/tools"
	"github.com/olgasafonova/confluence-mcp-server/tracing"
)

const (
	ServerName    = "confluence-mcp-server"
	ServerVersion = "1.0.0"

	shutdownTimeout = 10 * time.Second
)

const instructions = `Confluence MCP Server provides tools for reading and editing Confluence Cloud content.

Available tools:
- confluence_get_page: Get a page body as storage XHTML, markdown, sanitized HTML or indented XHTML
- confluence_find_element: Find the first element with an exact attribute value
- confluence_append_content: Append an element to a page and save it as a new version
- confluence_create_blog_post: Create a blog post in a space
- confluence_upload_attachment: Upload a local file as an attachment
- confluence_recent_writes: List recent writes made through this server (journal must be enabled)

Configure via environment variables:
- CONFLUENCE_URL: Site URL (e.g., https://example.atlassian.net)
- CONFLUENCE_EMAIL: Account email
- CONFLUENCE_API_TOKEN: API token
- CONFLUENCE_JOURNAL_PATH: SQLite file for the write journal (optional)
- CONFLUENCE_ATTACHMENT_DIR: Directory uploads may read from (default: working directory)
- CONFLUENCE_CONFIG: YAML config file (optional, env overrides it)`

func main() {
	httpAddr := flag.String("http", "", "Serve MCP over streamable HTTP on this address (e.g. :8080) instead of stdio")
	flag.Parse()

	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *httpAddr, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, httpAddr string, logger *slog.Logger) error {
	config, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !config.HasCredentials() {
		logger.Warn("CONFLUENCE_EMAIL or CONFLUENCE_API_TOKEN not set, requests will be anonymous")
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	var j *journal.Journal
	if config.JournalPath != "" {
		j, err = journal.Open(ctx, config.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open write journal: %w", err)
		}
		defer j.Close()
	}

	factory := confluence.NewClientFactoryFromConfig(config, confluence.WithLogger(logger))
	server := newServer(factory, j, logger)

	logger.Info("Starting Confluence MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"confluence_url", config.BaseURL,
		"journal", config.JournalPath != "",
		"attachment_dir", config.AttachmentDir,
		"transport", transportName(httpAddr),
	)

	if httpAddr == "" {
		return server.Run(ctx, &mcp.StdioTransport{})
	}
	return serveHTTP(ctx, httpAddr, newRouter(server, logger, securityConfigFromEnv()), logger)
}

// loadConfig reads CONFLUENCE_CONFIG when set, otherwise the environment only.
func loadConfig() (*confluence.Config, error) {
	if path := os.Getenv("CONFLUENCE_CONFIG"); path != "" {
		return confluence.LoadConfigFile(path)
	}
	return confluence.LoadConfig()
}

func newServer(factory *confluence.ClientFactory, j *journal.Journal, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions,
	})

	tools.NewHandlerRegistry(factory, j, logger).RegisterAll(server)
	return server
}

// newRouter builds the HTTP mode routes: the MCP endpoint behind the
// security middleware, plus health and Prometheus metrics.
func newRouter(server *mcp.Server, logger *slog.Logger, security SecurityConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","name":%q,"version":%q}`, ServerName, ServerVersion)
	})
	r.Handle("/metrics", promhttp.Handler())

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
	r.Handle("/mcp", NewSecurityMiddleware(mcpHandler, logger, security))

	return r
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}

func transportName(httpAddr string) string {
	if httpAddr == "" {
		return "stdio"
	}
	return "http"
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
