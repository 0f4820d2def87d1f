package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"rag-notes-be/internal/config"
	"rag-notes-be/internal/controller"
	"rag-notes-be/internal/pkg/logger"
	"rag-notes-be/internal/repository/memory"
	"rag-notes-be/internal/repository/unitofwork"
	"rag-notes-be/internal/service"
	"rag-notes-be/internal/web"
	"rag-notes-be/pkg/embedding"
	"rag-notes-be/pkg/events"
	"rag-notes-be/pkg/llm/factory"
	"rag-notes-be/pkg/metrics"
	pktNats "rag-notes-be/pkg/nats"
	"rag-notes-be/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	chromem "github.com/philippgille/chromem-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	NoteController controller.INoteController
	ChatController controller.IChatController
	PageController controller.IPageController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	ReconcileService service.IReconcileService

	Logger  logger.ILogger
	Metrics *metrics.Metrics

	closers []func()
}

// NewContainer wires every dependency. A nil db selects the in-memory store
// and the embedded chromem index.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.LogLevel, cfg.IsProduction())
	c.Logger = sysLogger
	c.Metrics = metrics.New()

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] DB_CONNECTION_STRING not set, notes and chat history live in memory")
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
	}

	index, err := newVectorIndex(db, cfg.Vector)
	if err != nil {
		return nil, err
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var eventPublisher events.Publisher = events.NopPublisher{}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. AI Providers
	embeddingProvider, err := newEmbeddingProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rdb := newRedisClient(ctx, cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	embeddingProvider = embedding.NewCachedProvider(
		embeddingProvider,
		cfg.Ai.EmbeddingProvider+":"+cfg.Ai.EmbeddingModel,
		rdb, // nil keeps the cache in process only
		cfg.Cache.EmbeddingTTL,
	)

	llmProvider, err := factory.NewLLMProvider(ctx, factory.Params{
		Provider:  cfg.Ai.LLMProvider,
		Model:     cfg.Ai.LLMModel,
		BaseURL:   llmBaseURL(cfg.Ai),
		APIKey:    llmAPIKey(cfg),
		MaxTokens: cfg.Ai.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Services
	cleanupPublisher := service.NewPublisherService(cfg.App.CleanupTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cleanupPublisher,
		cfg.App.CleanupTopic,
		index,
		c.Metrics,
		sysLogger,
		2*time.Second,
	)
	c.ReconcileService = service.NewReconcileService(uowFactory, index, embeddingProvider, c.Metrics, sysLogger, time.Minute)

	noteService := service.NewNoteService(uowFactory, index, embeddingProvider, cleanupPublisher, eventPublisher, c.Metrics, sysLogger)
	var promptLog logger.ILogger
	if cfg.App.PromptTraceLogPath != "" {
		trace := logger.NewIsolatedLogger(cfg.App.PromptTraceLogPath)
		promptLog = trace
		c.closers = append(c.closers, func() { _ = trace.Sync() })
	}
	chatService := service.NewChatService(uowFactory, index, embeddingProvider, llmProvider, eventPublisher, c.Metrics, sysLogger, service.ChatSettings{
		TopK:          cfg.Vector.TopK,
		HistoryWindow: cfg.Chat.HistoryWindow,
		HistoryPage:   cfg.Chat.HistoryPage,
		Timeout:       cfg.Chat.Timeout,
		PromptLog:     promptLog,
	})

	// 5. Controllers
	c.NoteController = controller.NewNoteController(noteService)
	c.ChatController = controller.NewChatController(chatService)
	c.PageController = controller.NewPageController(web.Pages)

	return c, nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func newVectorIndex(db *gorm.DB, cfg config.VectorConfig) (vectorindex.Index, error) {
	if cfg.Driver == "pgvector" && db != nil {
		log.Printf("[INFO] Using Vector Index: PGVECTOR")
		return vectorindex.NewPgVectorIndex(db), nil
	}

	log.Printf("[INFO] Using Vector Index: CHROMEM (in-process)")
	idx, err := vectorindex.NewChromemIndex(chromem.NewDB(), "notes")
	if err != nil {
		return nil, fmt.Errorf("initialize chromem index: %w", err)
	}
	return idx, nil
}

func newEmbeddingProvider(ctx context.Context, cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel), nil
	case "gemini":
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
		return embedding.NewGeminiProvider(ctx, cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
	case "hash":
		log.Printf("[INFO] Using Embedding Provider: HASH (%d dims)", cfg.Vector.Dimensions)
		return embedding.NewHashProvider(cfg.Vector.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}
}

// newRedisClient returns nil when no URL is set or the server is unreachable.
func newRedisClient(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}

	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, embedding cache stays in process: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func llmBaseURL(cfg config.AIConfig) string {
	if cfg.LLMBaseURL != "" {
		return cfg.LLMBaseURL
	}
	if cfg.LLMProvider == "ollama" {
		return cfg.OllamaBaseURL
	}
	return ""
}

func llmAPIKey(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "huggingface":
		return cfg.Keys.HuggingFace
	case "gemini":
		return cfg.Keys.GoogleGemini
	case "anthropic":
		return cfg.Keys.Anthropic
	default:
		return ""
	}
}
