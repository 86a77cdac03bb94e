// Package main is the entry point for the folio server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio-sh/folio/internal/config"
	"github.com/folio-sh/folio/internal/content"
	"github.com/folio-sh/folio/internal/mcp"
	"github.com/folio-sh/folio/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		// Default to serve command
		runServe(os.Args[1:])
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "serve":
		runServe(args)
	case "mcp":
		runMCP(args)
	case "export":
		runExport(args)
	case "help", "-h", "--help":
		printHelp()
	case "version", "--version":
		printVersion()
	default:
		// Check if it's a flag
		if command[0] == '-' {
			runServe(os.Args[1:])
		} else {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
			printHelp()
			os.Exit(1)
		}
	}
}

func runServe(args []string) {
	cfg, err := config.Load(args)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	srv.StartCleanupWorker(time.Hour)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runMCP exposes the content store over stdio for AI clients. It shares
// the server wiring but never binds a listening socket.
func runMCP(args []string) {
	cfg, err := config.Load(args)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// Protocol traffic owns stdout
	log.SetOutput(os.Stderr)

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	mcpServer := mcp.NewServer(os.Stdin, os.Stdout)
	srv.Binding().Register(mcpServer)

	if err := mcpServer.Start(); err != nil {
		log.Fatalf("MCP error: %v", err)
	}
}

// runExport prints the committed content tree as JSON.
func runExport(args []string) {
	cfg, err := config.Load(args)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetOutput(os.Stderr)

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	root, revision := srv.Store().Current()
	data, err := content.ToJSON(root)
	if err != nil {
		log.Fatalf("Failed to encode tree: %v", err)
	}

	var pretty json.RawMessage = data
	out, _ := json.MarshalIndent(struct {
		Revision int64           `json:"revision"`
		Tree     json.RawMessage `json:"tree"`
	}{revision, pretty}, "", "  ")
	fmt.Println(string(out))
}

func printHelp() {
	fmt.Println(`Folio - Portfolio Content Server

Usage: folio [command] [options]

Commands:
  serve           Start the web server (default)
  mcp             Serve the content tree to an AI client over stdio
  export          Print the committed content tree as JSON
  version         Print the version

Server Options:
  --host             Listen address (default: 0.0.0.0)
  --port             Listen port (default: 8080)
  --dir              Static site directory to serve
  --content          Content directory (default: content/)
  --storage          Storage type: memory, sqlite, postgresql
  --storage-path     SQLite database path
  --storage-url      PostgreSQL connection URL
  --secret           Editing secret (empty disables editing)
  --rules            Lua validation script path
  --eager-window     Gallery items loaded eagerly (default: 12)
  --hot-reload       Watch the content directory for changes
  --session-timeout  Edit session expiration (default: 24h, 0=never)
  -v                 Increase log verbosity (repeatable)

Examples:
  folio serve --port 8080 --content content/ --secret hunter2
  folio serve --storage sqlite --storage-path folio.db
  folio export --storage sqlite --storage-path folio.db
  folio mcp --content content/`)
}

func printVersion() {
	fmt.Println("Folio v0.1.0")
}
