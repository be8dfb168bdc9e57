// Package main is the supportbot CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fintechco/supportbot/internal/cli"
	"github.com/fintechco/supportbot/internal/config"
	"github.com/fintechco/supportbot/internal/embedding"
	"github.com/fintechco/supportbot/internal/knowledge"
	"github.com/fintechco/supportbot/internal/server"
	"github.com/fintechco/supportbot/internal/session"
	"github.com/fintechco/supportbot/internal/tools"
	"github.com/fintechco/supportbot/internal/watcher"
	"github.com/fintechco/supportbot/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/supportbot/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory so that "supportbot server" from
// the project dir uses the project's config. Returns the config and the path
// that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		// Missing config file falls back to built-in defaults plus env vars.
		if errors.Is(err, fs.ErrNotExist) {
			return config.Default(), "", nil
		}
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "add":
		runAdd()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("supportbot version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("environment", cfg.Environment),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	kbReady := cfg.Embedding.APIKey != ""
	if kbReady {
		if err := components.KB.Initialize(ctx); err != nil {
			logger.Fatal("Failed to initialize knowledge base", zap.Error(err))
		}
	} else {
		// Initialization needs embeddings, so it is deferred until the first
		// knowledge base request when no API key is configured.
		logger.Warn("OPENAI_API_KEY not set, knowledge base requests will fail until it is configured")
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if cfg.Watch.Directory != "" {
		watchSvc = watcher.New(components.KB, cfg.Watch.Directory, cfg.Watch.Extensions, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(components.KB, components.Sessions, components.Registry, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchCancel()
		watchSvc.Stop()
	}
	if kbReady {
		if err := components.KB.Save(); err != nil {
			logger.Warn("knowledge base save failed", zap.Error(err))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8000", "server URL (empty = use local storage when server is not running)")
	k := fs.Int("k", 0, "number of results (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: supportbot search [flags] <query>")
		os.Exit(1)
	}
	query := buildQuery(fs.Args())
	if query == "" {
		fmt.Println("Usage: supportbot search [flags] <query>")
		os.Exit(1)
	}
	format := cli.ParseFormat(*outputFormat)

	if *serverURL != "" {
		results, err := searchViaHTTP(*serverURL, query, *k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, query, results, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	kVal := *k
	if kVal <= 0 {
		kVal = cfg.Search.DefaultK
	}
	results, err := components.KB.Search(context.Background(), query, kVal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, query, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, query string, k int) ([]knowledge.ScoredDocument, error) {
	payload := map[string]any{"query": query}
	if k > 0 {
		payload["k"] = k
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/knowledge-base/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response struct {
		Results []knowledge.ScoredDocument `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return response.Results, nil
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8000", "server URL (empty = use local storage)")
	title := fs.String("title", "", "document title (defaults to filename stem)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: supportbot add [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		fmt.Fprintln(os.Stderr, "File is empty")
		os.Exit(1)
	}
	docTitle := *title
	if docTitle == "" {
		base := filepath.Base(path)
		docTitle = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if *serverURL != "" {
		body, _ := json.Marshal(map[string]string{"title": docTitle, "content": content})
		resp, err := http.Post(strings.TrimRight(*serverURL, "/")+"/api/knowledge-base/documents", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", docTitle)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	if err := components.KB.AddDocument(ctx, docTitle, content); err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	if err := components.KB.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added: %s\n", docTitle)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8000", "server URL (empty = use local storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var stats knowledge.Stats
	if *serverURL != "" {
		resp, err := http.Get(strings.TrimRight(*serverURL, "/") + "/api/knowledge-base/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		stats, err = components.KB.Stats(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cli.WriteStats(os.Stdout, stats, cli.ParseFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Embedder embedding.Embedder
	KB       *knowledge.Manager
	Sessions *session.Service
	Registry *tools.Registry

	sessionStore *session.Store
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.sessionStore != nil {
		_ = c.sessionStore.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var embedder embedding.Embedder = embedding.NewOpenAIEmbedder(
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.APIKey,
		cfg.Embedding.Dimensions,
	)
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	kb := knowledge.NewManager(embedder, cfg.Storage.IndexPath, cfg.Storage.DocumentsPath, logger)

	sessionStore, err := session.NewStore(cfg.Storage.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	sessions := session.NewService(cfg.Embedding.APIKey, cfg.Agent.AgentID, sessionStore, logger)

	web := tools.NewWebSearchClient(cfg.Search.WebSearchURL, time.Duration(cfg.Search.WebSearchTimeoutSecs)*time.Second)
	registry := tools.NewDefaultRegistry(kb, web)

	return &Components{
		Embedder:     embedder,
		KB:           kb,
		Sessions:     sessions,
		Registry:     registry,
		sessionStore: sessionStore,
	}, nil
}

func printUsage() {
	fmt.Println(`supportbot - Retrieval-backed fintech support assistant

Usage:
  supportbot server [flags]          Start the HTTP server
  supportbot search [flags] <query>  Search the knowledge base
  supportbot add [flags] <file>      Add a document to the knowledge base
  supportbot stats [flags]           Show knowledge base stats
  supportbot version                 Show version
  supportbot help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/supportbot/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for local storage mode)
  --server string    Server URL (default: http://localhost:8000). Use empty (--server "") for local storage.
  --k int            Number of results (default from config)
  --output string    Output format: text or json (default: text)

Add Flags:
  --config string    Config file path (for local storage mode)
  --server string    Server URL (default: http://localhost:8000). Use empty (--server "") for local storage.
  --title string     Document title (defaults to filename stem)

Stats Flags:
  --config string    Config file path (for local storage mode)
  --server string    Server URL (default: http://localhost:8000). Use empty (--server "") for local storage.
  --output string    Output format: text or json (default: text)

Examples:
  supportbot server
  supportbot search "wire transfer fees"
  supportbot search --output json --k 5 "margin requirements"
  supportbot add --title "Fee Schedule" fees.txt
  supportbot stats --output json`)
}
