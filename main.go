package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/wally205/DSC2025/internal/agent"
	"github.com/wally205/DSC2025/internal/agent/composer"
	"github.com/wally205/DSC2025/internal/agent/conversations"
	"github.com/wally205/DSC2025/internal/agent/model"
	"github.com/wally205/DSC2025/internal/agent/observers"
	"github.com/wally205/DSC2025/internal/agent/repo"
	"github.com/wally205/DSC2025/internal/agent/retrieval"
	"github.com/wally205/DSC2025/internal/agent/weather"
	"github.com/wally205/DSC2025/internal/core"
	logx "github.com/wally205/DSC2025/pkg/logger"
	pkgredis "github.com/wally205/DSC2025/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Weather      model.WeatherConfig
	Retriever    model.RetrieverConfig
	Composer     model.ComposerConfig
	Conversation model.ConversationConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})
	callbacks.AppendGlobalHandlers(observers.NewAllCallbacks())

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	clientCfg := &genai.ClientConfig{
		APIKey:  envCfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if envCfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = envCfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	ttl, err := conversations.ParseTTL(envCfg.Conversation)
	if err != nil {
		log.Fatalf("%v", err)
	}
	freshness, err := time.ParseDuration(envCfg.Weather.Freshness)
	if err != nil {
		log.Fatalf("Invalid WEATHER_FRESHNESS_WINDOW '%s': %v", envCfg.Weather.Freshness, err)
	}

	fetcher, err := weather.NewOpenWeather(envCfg.Weather)
	if err != nil {
		log.Fatalf("Failed to build weather fetcher: %v", err)
	}
	embedder := retrieval.NewGeminiEmbedder(client, envCfg.Retriever.EmbedModel)
	retriever, err := retrieval.NewRedisSearch(rdb, embedder, envCfg.Retriever)
	if err != nil {
		log.Fatalf("Failed to build retriever: %v", err)
	}
	comp, err := composer.NewGemini(ctx, client, envCfg.Composer)
	if err != nil {
		log.Fatalf("Failed to build composer: %v", err)
	}
	manager := conversations.NewManager(
		repo.NewRedisConversationRepository(rdb, ttl),
		envCfg.Conversation,
	)

	assistant, err := agent.New(agent.Config{
		Fetcher:   fetcher,
		Retriever: retriever,
		Composer:  comp,
		Manager:   manager,
		Freshness: freshness,
	})
	if err != nil {
		log.Fatalf("Failed to build assistant: %v", err)
	}

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "Weather question with explicit location",
			query:       "thời tiết hôm nay ở Đà Lạt như thế nào?",
		},
		{
			description: "Follow-up advice conditioned on that weather",
			query:       "với thời tiết này thì nên làm gì với cây cà phê?",
		},
		{
			description: "Pure agronomy question",
			query:       "cách phòng bệnh gỉ sắt trên cây cà phê",
		},
		{
			description: "Mixed question, weather and advice at once",
			query:       "ngày mai trời có mưa không, và có nên bón phân cho lúa không?",
		},
	}

	conversationID := "demo-conversation-1"

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)

		response, err := assistant.HandleTurn(ctx, conversationID, test.query)
		if err != nil {
			log.Fatalf("Turn %d failed: %v", i+1, err)
		}

		fmt.Printf("Response: %s\n", response)
		fmt.Println("------------------------------------------------")

		time.Sleep(500 * time.Millisecond)
	}
}
