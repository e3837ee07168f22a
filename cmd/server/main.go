package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/zainfaisal220/Sumlyzer/internal/api"
	"github.com/zainfaisal220/Sumlyzer/internal/config"
	"github.com/zainfaisal220/Sumlyzer/internal/history"
	"github.com/zainfaisal220/Sumlyzer/internal/logging"
	"github.com/zainfaisal220/Sumlyzer/internal/pdf"
	"github.com/zainfaisal220/Sumlyzer/internal/preview"
	"github.com/zainfaisal220/Sumlyzer/internal/rag"
	"github.com/zainfaisal220/Sumlyzer/internal/storage"
	"github.com/zainfaisal220/Sumlyzer/internal/summarize"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Secrets come from the environment only; a .env in the working
	// directory is picked up for development runs.
	godotenv.Load()

	// Resolve the config path: explicit override or next to the binary
	configPath := os.Getenv("SUMLYZER_CONFIG")
	if configPath == "" {
		exePath, err := os.Executable()
		if err != nil {
			fmt.Printf("Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(filepath.Dir(exePath), config.DefaultFileName)
	}

	// Load XML configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{
		Level:  cfg.Advanced.LogLevel,
		Format: cfg.Advanced.LogFormat,
	})

	// Initialize document storage
	store, err := storage.NewLocalStore(cfg.Storage.DocumentsDirectory, log)
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Chunk index over msgpack files, scanned on startup
	chunkIndex, err := rag.NewChunkIndex(cfg.Storage.ChunksDirectory, log)
	if err != nil {
		fmt.Printf("Failed to initialize chunk index: %v\n", err)
		os.Exit(1)
	}

	// Embeddings are optional. Without a key the vector store is skipped
	// and retrieval uses the lexical index.
	var embedder rag.Embedder
	var vectors rag.VectorStore
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		embedder, err = rag.NewEmbedder(rag.EmbedderConfig{
			Model:      cfg.RAG.EmbeddingModel,
			APIKey:     key,
			BaseURL:    cfg.RAG.EmbeddingBaseURL,
			CacheSize:  cfg.RAG.EmbeddingCacheSize,
			MaxRetries: cfg.RAG.MaxRetries,
		})
		if err != nil {
			fmt.Printf("Failed to initialize embedder: %v\n", err)
			os.Exit(1)
		}

		vectors, err = rag.NewVectorStore(rag.StoreConfig{
			PersistPath: cfg.Storage.VectorsDirectory,
		}, embedder)
		if err != nil {
			fmt.Printf("Failed to initialize vector store: %v\n", err)
			os.Exit(1)
		}

		log.Info("vector store ready",
			"path", cfg.Storage.VectorsDirectory,
			"model", cfg.RAG.EmbeddingModel,
			"key", logging.SanitizeAPIKey(key))
	} else {
		log.Warn("OPENAI_API_KEY not set, retrieval falls back to the lexical index")
	}

	groqKey := os.Getenv("GROQ_API_KEY")
	if groqKey == "" {
		log.Warn("GROQ_API_KEY not set, summarize jobs will fail until it is configured")
	} else {
		log.Info("summarizer configured",
			"model", cfg.RAG.Model,
			"key", logging.SanitizeAPIKey(groqKey))
	}
	summarizer := rag.NewSummarizer(rag.SummarizerConfig{
		Model:      cfg.RAG.Model,
		APIKey:     groqKey,
		BaseURL:    cfg.RAG.BaseURL,
		MaxRetries: cfg.RAG.MaxRetries,
	})

	chunker := rag.NewChunker(rag.ChunkerConfig{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		MinPageChars: cfg.RAG.MinPageChars,
		ByTokens:     cfg.RAG.ChunkByTokens,
	})

	retriever := rag.NewRetriever(rag.RetrieverConfig{TopK: cfg.RAG.TopK}, vectors, chunkIndex, log)

	// Prompt registry: the built-in default plus any profiles persisted
	// from earlier uploads
	prompts := rag.NewPromptRegistry()
	promptsFile := filepath.Join(cfg.Storage.PromptsDirectory, "prompts.yaml")
	if _, err := os.Stat(promptsFile); err == nil {
		if n, err := prompts.LoadFile(promptsFile); err != nil {
			log.Warn("failed to load prompt profiles", "path", promptsFile, "error", err)
		} else if n > 0 {
			log.Info("prompt profiles loaded", "path", promptsFile, "count", n)
		}
	}

	// Summary archive
	archive, err := history.NewStore(cfg.Storage.HistoryPath, log)
	if err != nil {
		fmt.Printf("Failed to open history store: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	// Initialize the summarize job manager
	jobs := summarize.NewManager(summarize.Config{
		MaxPages:     cfg.Processing.MaxPages,
		MinTextChars: cfg.Processing.MinTextChars,
		Timeout:      time.Duration(cfg.Processing.JobTimeoutMinutes) * time.Minute,
	}, summarize.Deps{
		Store:      store,
		Chunker:    chunker,
		Embedder:   embedder,
		Vectors:    vectors,
		Chunks:     chunkIndex,
		Retriever:  retriever,
		Summarizer: summarizer,
		Prompts:    prompts,
		History:    archive,
		Log:        log,
	})

	// Start background job cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			jobs.CleanupOldJobs(time.Duration(cfg.Processing.JobTTLMinutes) * time.Minute)
		}
	}()

	e := echo.New()

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/progress") ||
				strings.HasSuffix(path, "/keepalive") ||
				path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/progress") ||
				strings.Contains(path, "/upload") ||
				strings.Contains(path, "/ws/") ||
				c.Request().Header.Get("Accept") == "text/event-stream"
		},
		ErrorMessage: "Request timeout - operation took too long",
	}))

	// Compression middleware
	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Skipper: func(c echo.Context) bool {
				return strings.Contains(c.Request().URL.Path, "/ws/") ||
					c.Request().Header.Get("Accept") == "text/event-stream"
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	previewChain := preview.NewChain(preview.Config{
		InlineLimit:   cfg.Preview.InlineLimitBytes(),
		EncodedLimit:  cfg.Preview.EncodedLimitBytes(),
		MetadataLimit: cfg.Preview.MetadataLimitBytes(),
		SnippetChars:  cfg.Preview.SnippetChars,
		SnippetPages:  cfg.Preview.SnippetPages,
	}, log)

	deps := &api.Dependencies{
		Store:                 store,
		Jobs:                  jobs,
		Preview:               previewChain,
		Limits:                pdf.Limits{HardCap: cfg.Preview.HardCapBytes()},
		Chunks:                chunkIndex,
		Vectors:               vectors,
		Prompts:               prompts,
		History:               archive,
		Log:                   log,
		Version:               Version,
		RecentLimit:           cfg.Processing.RecentLimit,
		PromptsFile:           promptsFile,
		AllowDocumentDeletion: cfg.Security.AllowDocumentDeletion,
		AllowHistoryClear:     cfg.Security.AllowHistoryClear,
	}

	handlers := api.NewHandlers(deps)
	api.SetupMiddleware(e)
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	retrieval := "lexical retrieval only"
	if vectors != nil {
		retrieval = "vector retrieval (" + cfg.RAG.EmbeddingModel + ")"
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Sumlyzer Document Summarizer                    ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Model:      %-45s║\n", cfg.RAG.Model)
	fmt.Printf("║  Retrieval:  %-45s║\n", retrieval)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}
