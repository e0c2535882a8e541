package bootstrap

import (
	"log"
	"time"

	"docchat-be/internal/config"
	"docchat-be/internal/controller"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/internal/service"
	"docchat-be/pkg/chunkstore"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/llm/factory"
	"docchat-be/pkg/rag/complexity"
	"docchat-be/pkg/rag/compose"
	"docchat-be/pkg/rag/decompose"
	"docchat-be/pkg/rag/evidence"
	"docchat-be/pkg/rag/executor"
	"docchat-be/pkg/websearch"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.OpenAIBaseURL, cfg.Ai.OpenAIModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.OpenAIModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	adapterTimeout := time.Duration(cfg.Retrieval.AdapterTimeoutSeconds) * time.Second

	chunkStore := chunkstore.NewPgvectorStore(
		uowFactory,
		embeddingProvider,
		sysLogger,
		chunkstore.DefaultChunkSize,
		chunkstore.DefaultOverlap,
	)
	webSearcher := websearch.NewTavilyClient(
		cfg.Keys.Tavily,
		cfg.Retrieval.WebSearchMaxResults,
		adapterTimeout,
	)

	// 4. Orchestration Pipeline
	decomposer := decompose.NewDecomposer(llmProvider, 5*time.Second, sysLogger)
	aggregator := evidence.NewAggregator(
		chunkStore,
		webSearcher,
		sysLogger,
		cfg.Retrieval.TopK,
		cfg.Retrieval.MinScore,
		cfg.Retrieval.WebSearchMaxResults,
		adapterTimeout,
	)
	composer := compose.NewComposer(llmProvider, sysLogger, 120*time.Second)
	detector := complexity.NewDetector(cfg.Retrieval.TokenThreshold)
	pipeline := executor.NewPipeline(decomposer, aggregator, composer, detector, sysLogger)

	// 5. Session State
	sessionLocks := memory.NewSessionLocks()

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.IndexDocumentTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IndexDocumentTopic,
		uowFactory,
		chunkStore,
		sysLogger,
	)

	chatService := service.NewChatService(uowFactory, pipeline, sessionLocks, sysLogger)
	documentService := service.NewDocumentService(uowFactory, publisherService, chunkStore, sysLogger)

	// 7. Controllers
	return &Container{
		ChatController:     controller.NewChatController(chatService),
		DocumentController: controller.NewDocumentController(documentService),

		ConsumerService: consumerService,
	}
}
