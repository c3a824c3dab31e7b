package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gridnoise/tasknet/internal/mcp"
	"github.com/gridnoise/tasknet/internal/server"
	"github.com/gridnoise/tasknet/pkg/engine"
)

func main() {
	httpAddr := flag.String("http-addr", ":9191", "Address and port for the REST API server (e.g. :9191)")
	dataDir := flag.String("data-dir", "data", "Directory for the AOF and snapshot files")
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	mcpMode := flag.Bool("mcp", false, "Serve the MCP protocol over stdio instead of HTTP")

	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// Flags take precedence over the config file.
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = *httpAddr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = *dataDir
	}

	opts := engine.DefaultOptions(cfg.DataDir)
	if cfg.AutoSaveInterval > 0 {
		opts.AutoSaveInterval = cfg.AutoSaveInterval
	}
	if cfg.AutoSaveThreshold > 0 {
		opts.AutoSaveThreshold = cfg.AutoSaveThreshold
	}

	eng, err := engine.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	if *mcpMode {
		// Stdout carries the protocol, so logs must go to stderr.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		runMCP(eng)
		return
	}

	srv := server.NewServer(eng, cfg)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan

	if err := srv.Shutdown(); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func runMCP(eng *engine.Engine) {
	defer eng.Close()

	srv := mcp.NewMCPServer(eng)
	if err := srv.Run(context.Background(), &sdkmcp.StdioTransport{}); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
