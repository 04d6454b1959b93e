// Command quizwire starts the QuizWire server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the quiz directory, debug logging, version output,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/quizwire/quizwire/api"
	"github.com/quizwire/quizwire/presenter"
	"github.com/quizwire/quizwire/quiz/config"
	"github.com/quizwire/quizwire/quiz/data"
	"github.com/quizwire/quizwire/quiz/engine"
	"github.com/quizwire/quizwire/quiz/service"
	"github.com/quizwire/quizwire/quiz/session"
	"github.com/quizwire/quizwire/transport/mcp"
	"github.com/quizwire/quizwire/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "QuizWire Server"
)

// Stale sessions are swept hourly; anything older than the retention
// window is removed.
const (
	sweepInterval    = 1 * time.Hour
	sessionRetention = 24 * time.Hour
)

// envConfig is populated from the environment before flags are parsed.
// Flags take precedence when set explicitly.
type envConfig struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	Host         string `env:"HOST" envDefault:"localhost"`
	QuizDir      string `env:"QUIZ_DIR" envDefault:"quizzes"`
	Debug        bool   `env:"DEBUG" envDefault:"false"`
	NgrokEnabled bool   `env:"NGROK_ENABLED" envDefault:"false"`
	NgrokAuth    string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain  string `env:"NGROK_DOMAIN"`
}

// Configuration flags control how the server starts and which services are enabled.
var (
	port         *int
	host         *string
	quizDir      *string
	debug        *bool
	showVersion  *bool
	ngrokEnabled *bool
	ngrokAuth    *string
	ngrokDomain  *string
)

// bindFlags registers flags with env-derived defaults.
func bindFlags(defaults envConfig) {
	port = flag.Int("port", defaults.Port, "HTTP server port")
	host = flag.String("host", defaults.Host, "HTTP server host")
	quizDir = flag.String("quiz-dir", defaults.QuizDir, "Directory containing quiz question files")
	debug = flag.Bool("debug", defaults.Debug, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", defaults.NgrokEnabled, "Enable ngrok tunnel")
	ngrokAuth = flag.String("ngrok-auth", defaults.NgrokAuth, "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain = flag.String("ngrok-domain", defaults.NgrokDomain, "Custom ngrok domain (optional)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
	}
}

// main parses configuration, wires the services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
		}
	}

	var defaults envConfig
	if err := env.Parse(&defaults); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment configuration: %v\n", err)
		os.Exit(1)
	}

	bindFlags(defaults)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Determine mode from command
	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	logger.Info("starting", "app", AppName, "version", Version, "mode", mode)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(logger)

	case "server", "http":
		runHTTPServer(logger)

	default:
		logger.Error("unknown mode", "mode", mode)
		fmt.Fprintf(os.Stderr, "Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'\n", mode)
		os.Exit(1)
	}
}

// buildStack wires the repository, settings store, transcript, timer registry,
// session controller, and quiz service. The returned hub must be started with
// Run by the caller.
func buildStack(logger *slog.Logger) (service.QuizService, *websocket.Hub) {
	// NewRepository performs the initial directory load.
	repo := data.NewRepository(*quizDir, logger)
	for name, loadErr := range repo.LoadSummary() {
		logger.Warn("quiz file failed to load", "quiz", name, "error", loadErr)
	}

	store := config.NewStore()
	transcript := presenter.NewMemory()

	hub := websocket.NewHub(logger)
	channel := websocket.NewPresenter(transcript, hub)

	timers := engine.NewRegistry(logger)
	controller := session.NewController(session.WrapRegistry(timers), repo, store, channel, logger)

	go sessionSweepRoutine(controller, logger)

	return service.NewQuizService(controller, repo, store, transcript, logger), hub
}

// sessionSweepRoutine periodically removes sessions that finished or stalled
// longer ago than the retention window.
func sessionSweepRoutine(controller *session.Controller, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		removed := controller.Sweep(sessionRetention)
		if removed > 0 {
			logger.Info("swept stale sessions", "removed", removed)
		}
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(logger *slog.Logger) {
	quizService, hub := buildStack(logger)
	go hub.Run()

	apiServer := api.NewServer(quizService, hub, logger)

	addr := fmt.Sprintf("%s:%d", *host, *port)

	// Create MCP client for the /mcp endpoint
	baseURL := fmt.Sprintf("http://%s", addr)
	mcpClient := mcp.NewClient(baseURL)

	// Main router combines the API and the MCP endpoint
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("REST API", "url", fmt.Sprintf("http://%s/api", addr))
		logger.Info("WebSocket", "url", fmt.Sprintf("ws://%s/ws?channel=<key>", addr))
		logger.Info("MCP endpoint", "url", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	if *ngrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter, logger)
		}()
	}

	sig := <-stop
	logger.Info("shutting down", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	logger.Info("server stopped")
}

// runNgrokTunnel provisions a public tunnel and serves the router through it.
func runNgrokTunnel(ctx context.Context, handler http.Handler, logger *slog.Logger) {
	authToken := *ngrokAuth
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if *ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(*ngrokDomain))
		logger.Info("using custom ngrok domain", "domain", *ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logger.Error("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established", "url", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		logger.Error("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(logger *slog.Logger) {
	var baseURL string

	externalURL := "http://localhost:8080"
	logger.Info("checking for external API server", "url", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/healthz")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logger.Info("external API server found, using it for MCP", "url", externalURL)
		baseURL = externalURL
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			logger.Error("failed to get available port", "error", err)
			os.Exit(1)
		}

		internalAddr := listener.Addr().String()
		logger.Info("starting internal HTTP server for MCP stdio", "addr", internalAddr)

		quizService, hub := buildStack(logger)
		go hub.Run()

		apiServer := api.NewServer(quizService, hub, logger)
		httpServer := &http.Server{Handler: apiServer}

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()

		// Wait a moment for the server to be ready
		time.Sleep(100 * time.Millisecond)

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	logger.Info("MCP stdio server ready", "api", baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		logger.Error("MCP stdio server error", "error", err)
		os.Exit(1)
	}
}
