// Command tilegrid starts the tile-grid world server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the maps directory, an optional YAML settings
// file, debug logging, version output, and optional ngrok tunneling for easy
// external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/tilegrid/api"
	"github.com/wricardo/tilegrid/game/config"
	"github.com/wricardo/tilegrid/game/service"
	"github.com/wricardo/tilegrid/game/session"
	"github.com/wricardo/tilegrid/transport/mcp"
	"github.com/wricardo/tilegrid/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tilegrid World Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	mapsDir      = flag.String("maps-dir", "maps", "Directory containing Tiled map documents (or use MAPS_DIR env var)")
	settingsFile = flag.String("settings", "", "Optional YAML settings file")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

var logger = log15.New("module", "main")

func init() {
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
		fmt.Fprintf(os.Stderr, "  %s                             # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090                  # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -settings tilegrid.yaml     # Read server defaults from a file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                   # Run MCP stdio server\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	setupLogging(*debug)
	if envErr == nil {
		logger.Info("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		logger.Warn("error loading .env file", "err", envErr)
	}

	settings, err := resolveSettings(os.Getenv)
	if err != nil {
		fatal("failed to load settings", "err", err)
	}

	// Determine mode from command
	mode := "server"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	logger.Info("starting", "app", AppName, "version", Version, "mode", mode, "maps", settings.MapsDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The hub runs before any session exists so grid events always have a sink
	hub := websocket.NewHub()
	go hub.Run(ctx)

	worldService, err := initializeServices(ctx, settings, hub)
	if err != nil {
		fatal("failed to initialize services", "err", err)
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(worldService, hub, settings)

	case "server", "http":
		runHTTPServer(ctx, cancel, worldService, hub, settings)

	default:
		fatal("unknown mode, use 'server' (default) or 'stdio-mcp'", "mode", mode)
	}
}

// setupLogging routes every package logger through a logfmt handler on
// stderr; stdout stays free for the MCP stdio transport.
func setupLogging(debug bool) {
	level := log15.LvlInfo
	if debug {
		level = log15.LvlDebug
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(level, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))
}

func fatal(msg string, ctx ...interface{}) {
	logger.Crit(msg, ctx...)
	os.Exit(1)
}

// resolveSettings layers the server settings: defaults, then the settings
// file, then environment variables, then flags given on the command line.
func resolveSettings(getenv func(string) string) (*config.Settings, error) {
	settings := config.DefaultSettings()
	if *settingsFile != "" {
		loaded, err := config.LoadSettings(*settingsFile)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	if dir := getenv("MAPS_DIR"); dir != "" {
		settings.MapsDir = dir
	}
	if enabled := getenv("NGROK_ENABLED"); enabled == "true" || enabled == "1" {
		settings.Ngrok.Enabled = true
	}
	if domain := getenv("NGROK_DOMAIN"); domain != "" {
		settings.Ngrok.Domain = domain
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			settings.Host = *host
		case "port":
			settings.Port = *port
		case "maps-dir":
			settings.MapsDir = *mapsDir
		case "ngrok":
			settings.Ngrok.Enabled = *ngrokEnabled
		case "ngrok-domain":
			settings.Ngrok.Domain = *ngrokDomain
		}
	})

	return settings, nil
}

// initializeServices wires the map and session managers into the world
// service. It also starts a background routine that prunes stale sessions
// until ctx is cancelled.
func initializeServices(ctx context.Context, settings *config.Settings, notifier service.Notifier) (service.WorldService, error) {
	mapManager, err := config.NewManager(settings.MapsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create map manager: %w", err)
	}
	if settings.DefaultMap != "" {
		if err := mapManager.SetDefault(settings.DefaultMap); err != nil {
			return nil, fmt.Errorf("failed to set default map %q: %w", settings.DefaultMap, err)
		}
	}
	logger.Info("default map loaded", "map", mapManager.DefaultName())

	sessionManager := session.NewManager()

	worldService := service.NewWorldService(sessionManager, mapManager, service.Options{
		Notifier:     notifier,
		MaxWalkSteps: settings.MaxWalkSteps,
	})

	go sessionCleanupRoutine(ctx, sessionManager, settings.CleanupInterval, settings.SessionTTL)

	return worldService, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info("cleaned up expired sessions", "removed", removed)
			}
		}
	}
}

// newRouter mounts the REST API at the root and adds the /mcp endpoint,
// which answers JSON-RPC messages with the MCP server of mcpClient.
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
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

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cancel context.CancelFunc, worldService service.WorldService, hub *websocket.Hub, settings *config.Settings) {
	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)
	mainRouter := newRouter(api.NewServer(worldService, hub), mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("HTTP server failed", "err", err)
		}
	}()

	if settings.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter, settings.Ngrok.Domain)
		}()
	}

	sig := <-stop
	logger.Info("shutting down", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}

	wg.Wait()
	logger.Info("server stopped")
}

// ngrokAuthToken returns the auth token from the flag or the environment,
// supporting both naming conventions of the variable
func ngrokAuthToken(getenv func(string) string) string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if token := getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return getenv("NGROK_AUTH_TOKEN")
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is cancelled
func runNgrokTunnel(ctx context.Context, handler http.Handler, domain string) {
	authToken := ngrokAuthToken(os.Getenv)
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "err", err)
		return
	}

	// http.Serve only returns once the listener is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Error("failed to close ngrok tunnel", "err", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established", "url", ngrokURL,
		"api", ngrokURL+"/api",
		"ws", ngrokURL+"/ws?session=<session_id>",
		"mcp", ngrokURL+"/mcp")

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logger.Error("ngrok server error", "err", err)
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured address; if unavailable,
// it starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(worldService service.WorldService, hub *websocket.Hub, settings *config.Settings) {
	externalURL := fmt.Sprintf("http://%s:%d", settings.Host, settings.Port)
	baseURL := externalURL

	logger.Info("checking for external API server", "url", externalURL)
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil {
		resp.Body.Close()
	}

	if err == nil && resp.StatusCode < 500 {
		logger.Info("external API server found, using it for MCP", "url", externalURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			fatal("failed to get available port", "err", err)
		}
		internalAddr := listener.Addr().String()

		httpServer := &http.Server{Handler: api.NewServer(worldService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error("internal HTTP server error", "err", err)
			}
		}()

		baseURL = "http://" + internalAddr
		logger.Info("internal HTTP server started", "addr", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	logger.Info("MCP stdio server ready", "api", baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		fatal("MCP stdio server error", "err", err)
	}
}
