// Package main is the IntelliQuery CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"

	"github.com/intelliquery/intelliquery/internal/config"
	"github.com/intelliquery/intelliquery/internal/embedding"
	"github.com/intelliquery/intelliquery/internal/engine"
	"github.com/intelliquery/intelliquery/internal/llm"
	"github.com/intelliquery/intelliquery/internal/models"
	"github.com/intelliquery/intelliquery/internal/server"
	"github.com/intelliquery/intelliquery/internal/storage"
	"github.com/intelliquery/intelliquery/internal/vector"
	"github.com/intelliquery/intelliquery/internal/watcher"
	"github.com/intelliquery/intelliquery/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/intelliquery/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development). If no config
// file exists at all, built-in defaults plus environment overrides are used.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func main() {
	// A .env file supplies GOOGLE_API_KEY in development; absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "version", "--version", "-v":
		fmt.Printf("intelliquery version %s\n", version)
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

	cfg, err := loadConfig(*configPath)
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

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		eng := components.Engine
		watchSession := cfg.Watch.Session
		watchSvc := watcher.NewWatcher(cfg.Watch.Directories, cfg.Watch.Extensions, func(path string) {
			if _, err := eng.IngestFile(context.Background(), watchSession, path); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(components.Engine, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	sessionID := fs.String("session", "default", "session identifier to ingest into")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: intelliquery ingest [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	count, err := components.Engine.IngestFile(context.Background(), *sessionID, path)
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document indexed into session %q: %d chunks\n", *sessionID, count)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	sessionID := fs.String("session", "default", "session identifier to query")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: intelliquery ask [flags] <question>")
		os.Exit(1)
	}
	question := fs.Arg(0)

	answer, err := askViaHTTP(*serverURL, *sessionID, question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(answer); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, sessionID, question string) (*models.Answer, error) {
	body, err := json.Marshal(models.QueryRequest{SessionID: sessionID, Question: question})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var answer models.Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &answer, nil
}

// Components holds initialized services.
type Components struct {
	Store  storage.Store
	Engine *engine.Engine
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not set (environment, .env, or llm.api_key)")
	}
	client, err := googleai.New(context.Background(),
		googleai.WithAPIKey(cfg.LLM.APIKey),
		googleai.WithDefaultModel(cfg.LLM.Model),
		googleai.WithDefaultEmbeddingModel(cfg.LLM.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model client: %w", err)
	}

	embedder := embedding.NewRemoteEmbedder(client)
	generator := llm.NewModelGenerator(client, cfg.LLM.Temperature)
	parser := llm.NewQueryParser(generator)
	synthesizer := llm.NewSynthesizer(generator, cfg.LLM.MaxRepairAttempts)
	registry := vector.NewRegistry(cfg.Sessions.MaxSessions)

	engOpts := []engine.Option{}
	if debug {
		engOpts = append(engOpts, engine.WithLogger(logger))
	}

	var store storage.Store
	if cfg.Storage.DatabasePath != "" {
		sqliteStore, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store = sqliteStore
		engOpts = append(engOpts, engine.WithStore(store))
		logger.Info("session persistence enabled", zap.String("database_path", cfg.Storage.DatabasePath))
	}

	eng := engine.NewEngine(registry, embedder, parser, synthesizer, &cfg.Ingest, engOpts...)
	return &Components{Store: store, Engine: eng}, nil
}

func printUsage() {
	fmt.Println(`intelliquery - LLM-based document query and decision service

Usage:
  intelliquery server [flags]            Start the HTTP server
  intelliquery ingest [flags] <file>     Ingest a document into a session
  intelliquery ask [flags] <question>    Ask a question against a running server
  intelliquery version                   Show version
  intelliquery help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/intelliquery/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path
  --session string   Session identifier (default: "default")

Ask Flags:
  --server string    Server URL (default: http://localhost:8080)
  --session string   Session identifier (default: "default")

Examples:
  intelliquery server
  intelliquery ingest --session policy policy_document.pdf
  intelliquery ask --session policy "what is the waiting period for pre-existing diseases"`)
}
