package model

// ================ Config ================

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
	// HistoryWindow is the number of recent exchanges handed to the composer.
	HistoryWindow int `envconfig:"CONVERSATION_HISTORY_WINDOW" default:"5"`
}

type WeatherConfig struct {
	APIKey  string `envconfig:"WEATHER_API_KEY" required:"true"`
	BaseURL string `envconfig:"WEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5"`
	Timeout string `envconfig:"WEATHER_TIMEOUT" default:"8s"`
	// Freshness bounds how long a snapshot may be reused across turns
	// before a follow-up question forces a re-fetch.
	Freshness string `envconfig:"WEATHER_FRESHNESS_WINDOW" default:"30m"`
}

type RetrieverConfig struct {
	Index       string  `envconfig:"RETRIEVER_INDEX" default:"agri_docs"`
	TopK        int     `envconfig:"RETRIEVER_TOP_K" default:"10"`
	MinScore    float64 `envconfig:"RETRIEVER_MIN_SCORE" default:"0.2"`
	EmbedModel  string  `envconfig:"RETRIEVER_EMBED_MODEL" default:"text-embedding-004"`
	Timeout     string  `envconfig:"RETRIEVER_TIMEOUT" default:"5s"`
	ContentAttr string  `envconfig:"RETRIEVER_CONTENT_ATTR" default:"content"`
	SourceAttr  string  `envconfig:"RETRIEVER_SOURCE_ATTR" default:"source"`
	VectorAttr  string  `envconfig:"RETRIEVER_VECTOR_ATTR" default:"embedding"`
}

type ComposerConfig struct {
	Model       string  `envconfig:"COMPOSER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"COMPOSER_MAX_TOKENS" default:"4096"`
	Temperature float32 `envconfig:"COMPOSER_TEMPERATURE" default:"0.3"`
	Timeout     string  `envconfig:"COMPOSER_TIMEOUT" default:"30s"`
}
