package bootstrap

import (
	"context"
	"io"
	"log"
	"os"

	"ai-meeting-be/internal/config"
	"ai-meeting-be/internal/controller"
	"ai-meeting-be/internal/pkg/logger"
	"ai-meeting-be/internal/pkg/mailer"
	"ai-meeting-be/internal/repository/memory"
	"ai-meeting-be/internal/repository/redisstore"
	"ai-meeting-be/internal/repository/unitofwork"
	"ai-meeting-be/internal/service"
	"ai-meeting-be/pkg/embedding"
	"ai-meeting-be/pkg/llm/factory"
	"ai-meeting-be/pkg/rag/classify"
	"ai-meeting-be/pkg/store"

	pktNats "ai-meeting-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	MeetingController controller.IMeetingController
	ChatController    controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

// newPipelineLogger writes retrieval/classification traces to both stdout and
// a dedicated file, keeping the noisy RAG internals out of the main app log.
func newPipelineLogger(path string) *log.Logger {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("[WARN] Cannot open pipeline log %s: %v. Logging to stdout only", path, err)
		return log.New(os.Stdout, "", log.LstdFlags)
	}
	return log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := newPipelineLogger(cfg.App.PipelineLogPath)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus (in-process job queue for meeting-ended events)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS (outbound fanout of processed events; optional)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis-backed conversation history, with an in-process fallback so a
	// missing Redis never takes chat down.
	var historyStore store.ConversationStore
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Using in-memory history", err)
		historyStore = memory.NewHistoryRepository()
	} else {
		historyStore = redisstore.NewHistoryRepository(rdb)
	}

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.MeetingEndedTopic, pubSub)
	ingestionService := service.NewIngestionService(uowFactory, embeddingProvider)
	processingService := service.NewProcessingService(
		uowFactory,
		ingestionService,
		llmProvider,
		emailService,
		natsPub,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.MeetingEndedTopic,
		processingService,
	)

	classifier := classify.NewLLMClassifier(llmProvider, pipelineLogger)
	retrievalService := service.NewRetrievalService(
		uowFactory,
		embeddingProvider,
		classifier,
		pipelineLogger,
	)

	models := append([]string{cfg.Ai.LLMModel}, cfg.Ai.FallbackModels...)
	chatService := service.NewChatService(
		uowFactory,
		retrievalService,
		historyStore,
		llmProvider,
		models,
		sysLogger,
	)

	// 6. Controllers
	return &Container{
		MeetingController: controller.NewMeetingController(publisherService, processingService),
		ChatController:    controller.NewChatController(chatService, sysLogger),
		ConsumerService:   consumerService,
		Logger:            sysLogger,
	}
}
