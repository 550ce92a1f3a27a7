package model

import "time"

// ================ Config ================
type SessionConfig struct {
	TTL          time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	HistoryLimit int           `envconfig:"SESSION_HISTORY_LIMIT" default:"15"`
	MaxTurns     int           `envconfig:"SESSION_MAX_TURNS" default:"200"`
}

type GeneratorConfig struct {
	Model          string        `envconfig:"GENERATOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int           `envconfig:"GENERATOR_MAX_TOKENS" default:"1024"`
	Temperature    float32       `envconfig:"GENERATOR_TEMPERATURE" default:"0.2"`
	Timeout        time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"30s"`
	MaxAttempts    int           `envconfig:"GENERATOR_MAX_ATTEMPTS" default:"3"`
	InitialBackoff time.Duration `envconfig:"GENERATOR_INITIAL_BACKOFF" default:"1s"`
	MaxBackoff     time.Duration `envconfig:"GENERATOR_MAX_BACKOFF" default:"10s"`
}

type ClassifierConfig struct {
	// Mode is "examples" (local example overlap) or "model" (NLU chat model).
	Mode        string  `envconfig:"CLASSIFIER_MODE" default:"examples"`
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.1"`
	IntentsFile string  `envconfig:"CLASSIFIER_INTENTS_FILE"`
}

type RetrieverConfig struct {
	TopK    int           `envconfig:"RETRIEVER_TOP_K" default:"4"`
	Timeout time.Duration `envconfig:"RETRIEVER_TIMEOUT" default:"3s"`
}

type KnowledgeConfig struct {
	Dir          string `envconfig:"KNOWLEDGE_DIR" default:"./data/knowledge_docs"`
	ChunkSize    int    `envconfig:"KNOWLEDGE_CHUNK_SIZE" default:"500"`
	ChunkOverlap int    `envconfig:"KNOWLEDGE_CHUNK_OVERLAP" default:"50"`
}

type PromptConfig struct {
	BusinessType string `envconfig:"PROMPT_BUSINESS_TYPE" default:"banking"`
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"Adaptive Bank"`
}

type TicketConfig struct {
	DBPath string `envconfig:"TICKET_DB_PATH" default:"./data/tickets.db"`
}

type EscalationConfig struct {
	PolicyFile string `envconfig:"ESCALATION_POLICY_FILE"`
}
