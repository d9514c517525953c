package bootstrap

import (
	"context"
	"log"
	"time"

	"dataset-discovery-be/internal/config"
	"dataset-discovery-be/internal/controller"
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/internal/repository/implementation"
	"dataset-discovery-be/internal/repository/memory"
	"dataset-discovery-be/internal/repository/unitofwork"
	"dataset-discovery-be/internal/service"
	"dataset-discovery-be/pkg/embedding"
	"dataset-discovery-be/pkg/hyse"
	"dataset-discovery-be/pkg/llm/factory"
	"dataset-discovery-be/pkg/oracle"
	"dataset-discovery-be/pkg/searchspace"

	pktNats "dataset-discovery-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SearchController     controller.ISearchController
	SessionController    controller.ISessionController
	DatasetController    controller.IDatasetController
	BrainstormController controller.IBrainstormController

	// Services exposed for the CLI tools and for main.go to run
	DatasetService  *service.DatasetService
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// Redis-backed read-through cache for embeddings; a dead Redis only
	// costs cache hits
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, rdb, 24*time.Hour)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	sessionRepo := memory.NewSessionRepository()
	datasetRepo := implementation.NewDatasetRepository(db)

	// 5. Domain components
	intentOracle := oracle.NewResolver(llmProvider, sysLogger)
	schemaGenerator := hyse.NewLLMGenerator(llmProvider)
	engine := hyse.NewEngine(schemaGenerator, embeddingProvider, datasetRepo, sysLogger, cfg.Search.SchemaVariants)
	spaceManager := searchspace.NewManager(sysLogger)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	// 6. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Search.EmbedTopicName)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Search.EmbedTopicName,
		uowFactory,
		embeddingProvider,
		eventPublisher,
	)

	searchService := service.NewSearchService(
		sessionRepo,
		datasetRepo,
		engine,
		intentOracle,
		spaceManager,
		eventPublisher,
		sysLogger,
		cfg,
	)
	sessionService := service.NewSessionService(sessionRepo, sysLogger)
	datasetService := service.NewDatasetService(datasetRepo, publisherService, sysLogger)
	brainstormService := service.NewBrainstormService(llmProvider, sysLogger)

	// 7. Controllers
	return &Container{
		SearchController:     controller.NewSearchController(searchService),
		SessionController:    controller.NewSessionController(sessionService),
		DatasetController:    controller.NewDatasetController(datasetService),
		BrainstormController: controller.NewBrainstormController(brainstormService),

		DatasetService:  datasetService,
		ConsumerService: consumerService,

		Logger: sysLogger,
	}
}
