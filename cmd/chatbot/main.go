// Package main is the chatbot CLI entry point.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/agent"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/config"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/embedding"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/ingest"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/keyword"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/llm"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/models"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/prompt"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/retrieval"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/server"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/storage"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/tools"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/watcher"
	"github.com/MohammadOmerKhan/MyLearningChatbot/internal/websearch"
	"github.com/MohammadOmerKhan/MyLearningChatbot/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

// loadConfig loads config from path. When the default path does not exist the
// built-in defaults are used, so the binary runs without a config file.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, nil
		}
	}
	return config.Load(path)
}

func main() {
	// Environment variables (API keys) may come from a .env file.
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
	case "chat":
		runChat()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("chatbot version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds the shared backing services.
type Components struct {
	Store    storage.Store
	Embedder embedding.Embedder
	Keyword  keyword.Index
	Engine   *retrieval.Engine
	Pipeline *ingest.Pipeline
}

// Close releases component resources.
func (c *Components) Close() {
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		logger.Warn("embedding provider unavailable, falling back to mock embedder", zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	engine := retrieval.NewEngine(store, embedder, &cfg.Retrieval, logger)
	pipeline := ingest.NewPipeline(store, embedder, keywordIndex, &cfg.Ingest, logger)

	return &Components{
		Store:    store,
		Embedder: embedder,
		Keyword:  keywordIndex,
		Engine:   engine,
		Pipeline: pipeline,
	}, nil
}

// buildAgent wires the chat model, system prompt, and tools. Web search is
// registered only when its API key is configured.
func buildAgent(cfg *config.Config, components *Components, logger *zap.Logger) (*agent.Agent, error) {
	model, err := llm.NewOpenAIModel(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}

	systemPrompt, err := prompt.SystemPrompt(cfg.Agent.SystemPromptPath)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(
		tools.NewRAGSearchTool(components.Engine),
		tools.NewKeywordSearchTool(components.Keyword, cfg.Retrieval.DefaultLimit, cfg.Retrieval.ExcerptLength),
	)
	searchClient, err := websearch.NewClient(&cfg.WebSearch)
	if err != nil {
		logger.Warn("web search disabled", zap.Error(err))
	} else {
		registry.Register(tools.NewWebSearchTool(searchClient))
	}

	return agent.New(model, registry, systemPrompt, &cfg.Agent, logger), nil
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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ag, err := buildAgent(cfg, components, logger)
	if err != nil {
		logger.Fatal("Failed to build agent", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		pipeline := components.Pipeline
		watchSvc = watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				content, err := os.ReadFile(path)
				if err != nil {
					logger.Warn("reading dropped file failed", zap.String("path", path), zap.Error(err))
					return
				}
				summary, err := pipeline.Ingest(context.Background(), content, filepath.Base(path))
				if err != nil {
					logger.Warn("auto-ingest failed", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("auto-ingested document", zap.String("path", path), zap.String("summary", summary))
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(ag, components.Pipeline, components.Store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: chatbot ingest [flags] <file> [file...]")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
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
	exitCode := 0
	for _, path := range fs.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			exitCode = 1
			continue
		}
		summary, err := components.Pipeline.Ingest(ctx, content, filepath.Base(path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to ingest %s: %v\n", path, err)
			exitCode = 1
			continue
		}
		fmt.Println(summary)
	}
	os.Exit(exitCode)
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	sessionID := fs.String("session", "", "session id to continue (default: new session)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
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

	ag, err := buildAgent(cfg, components, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build agent: %v\n", err)
		os.Exit(1)
	}

	session := *sessionID
	if session == "" {
		session = uuid.New().String()
	}
	fmt.Printf("Session %s. Type a message, or \"exit\" to quit.\n", session)

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		history, err := components.Store.GetHistory(ctx, session, cfg.Agent.HistoryLimit)
		if err != nil {
			logger.Warn("loading chat history failed", zap.Error(err))
			history = nil
		}
		answer := ag.Run(ctx, message, history)
		fmt.Println(answer)

		turn := models.ConversationTurn{UserMessage: message, AssistantMessage: answer}
		if err := components.Store.AppendTurn(ctx, session, turn); err != nil {
			logger.Warn("saving chat turn failed", zap.Error(err))
		}
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
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
	docCount, err := components.Store.CountDocuments(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
		os.Exit(1)
	}
	chunkCount, err := components.Store.CountChunks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Documents: %d\n", docCount)
	fmt.Printf("Chunks: %d\n", chunkCount)
	fmt.Printf("Embedding: %s (%s, %d dims)\n", cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	fmt.Printf("LLM: %s\n", cfg.LLM.Model)
	fmt.Printf("Database: %s\n", cfg.Storage.DatabasePath)
}

func printUsage() {
	fmt.Println(`chatbot - Conversational RAG assistant

Usage:
  chatbot server [flags]            Start the HTTP API server
  chatbot chat [flags]              Interactive chat in the terminal
  chatbot ingest [flags] <file...>  Ingest documents into the knowledge base
  chatbot status [flags]            Show knowledge base status
  chatbot version                   Show version
  chatbot help                      Show this help

Server Flags:
  --config string    Config file path (default: config.yaml)
  --debug            Enable debug logging

Chat Flags:
  --config string    Config file path
  --session string   Session id to continue a previous conversation

Ingest Flags:
  --config string    Config file path

Environment:
  OPENAI_API_KEY     Chat model and embedding API key
  TAVILY_API_KEY     Web search API key (web search is disabled without it)
  Variables may also be placed in a .env file in the working directory.

Examples:
  chatbot server
  chatbot ingest report.pdf notes.md
  chatbot chat --session 2f6e...`)
}
