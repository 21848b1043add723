package bootstrap

import (
	"context"
	"log"

	"book-rag-be/internal/config"
	"book-rag-be/internal/controller"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/internal/repository/contract"
	"book-rag-be/internal/repository/implementation"
	"book-rag-be/internal/repository/memory"
	"book-rag-be/internal/service"
	"book-rag-be/pkg/embedding"
	"book-rag-be/pkg/embedding/cohere"
	"book-rag-be/pkg/llm/factory"
	"book-rag-be/pkg/rag"
	ragcontext "book-rag-be/pkg/rag/context"
	"book-rag-be/pkg/rag/executor"
	"book-rag-be/pkg/rag/grounding"
	"book-rag-be/pkg/rag/response"
	"book-rag-be/pkg/rag/search"

	pkgNats "book-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QueryController controller.IQueryController
	IndexController controller.IIndexController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Shared infra the server needs
	Logger logger.ILogger
}

// NewContainer wires the whole query pipeline. db may be nil, in which case
// the in-memory chunk index is used (tests, local runs without Postgres).
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding Provider based on Config, always behind the dimension guard
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Embedding.Provider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Embedding.OllamaBaseURL,
			cfg.Embedding.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Embedding.OllamaModel)
	} else {
		embeddingProvider = cohere.NewCohereProvider(
			cfg.Embedding.CohereAPIKey,
			cfg.Embedding.CohereBaseURL,
			cfg.Embedding.CohereModel,
		)
		log.Printf("[INFO] Using Embedding Provider: COHERE (%s)", cfg.Embedding.CohereModel)
	}
	embeddingProvider = embedding.NewDimensionGuard(embeddingProvider, cfg.Embedding.Dimension)

	// LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.BaseURL,
		cfg.LLM.APIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)

	// Chunk Index
	var index contract.ChunkIndexRepository
	if db != nil {
		index = implementation.NewChunkIndexRepository(db)
	} else {
		index = memory.NewChunkIndexRepository()
		log.Printf("[WARN] No database configured, using in-memory chunk index")
	}

	// Query pipeline
	retriever := search.NewRetriever(embeddingProvider, index, search.Config{
		RetryPolicy:   rag.DefaultRetryPolicy(),
		EmbedTimeout:  cfg.Pipeline.EmbedTimeout,
		SearchTimeout: cfg.Pipeline.SearchTimeout,
	}, sysLogger)
	assembler := ragcontext.NewAssembler(cfg.Pipeline.ContextCharBudget)
	generator := response.NewGenerator(llmProvider, sysLogger)
	validator := grounding.NewValidator(cfg.Pipeline.OverlapThreshold, cfg.Pipeline.MaxUnsupportedRatio)

	pipeline := executor.NewPipeline(retriever, assembler, generator, validator, executor.Config{
		GenerateTimeout: cfg.Pipeline.GenerateTimeout,
		OverallTimeout:  cfg.Pipeline.OverallTimeout,
	}, sysLogger)

	answerCache := memory.NewAnswerCache(cfg.Pipeline.AnswerCacheTTL)

	// NATS (optional). The publisher announces index changes; the subscriber
	// flushes the answer cache when one lands.
	var eventPublisher service.EventPublisher
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub

		natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else if err := natsSub.Subscribe(
			context.Background(),
			pkgNats.DocumentIndexedSubject,
			"answer-cache-invalidator",
			service.NewAnswerCacheInvalidator(answerCache, sysLogger),
		); err != nil {
			log.Printf("[WARN] Failed to subscribe to corpus events: %v", err)
		}
	}

	// Services
	queryService := service.NewQueryService(pipeline, answerCache, cfg.Pipeline.DefaultTopK, sysLogger)
	ingestService := service.NewIngestService(
		pubSub,
		cfg.Ingest.JobTopic,
		index,
		cfg.Ingest.ChunkSize,
		cfg.Ingest.ChunkOverlap,
		cfg.Embedding.Dimension,
		sysLogger,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ingest.JobTopic,
		index,
		embeddingProvider,
		eventPublisher,
		sysLogger,
	)

	return &Container{
		QueryController: controller.NewQueryController(queryService),
		IndexController: controller.NewIndexController(ingestService),
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
