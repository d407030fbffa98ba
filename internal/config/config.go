package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
	// Preprocessing points at a normalization config document; empty means
	// built-in defaults.
	Preprocessing string
}

// Worker holds configuration for the Kafka -> normalize -> Elasticsearch worker.
type Worker struct {
	Common
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaConsumer   string
	NormalizedTopic string
	TitleWords      int
	DedupeCapacity  int
	DedupeTTL       time.Duration
	QueueCapacity   int
	DLQAttempts     int
}

// DLQTopic is the dead-letter topic for failed raw messages.
func (w *Worker) DLQTopic() string { return w.KafkaTopic + "_dlq" }

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr     string
	DefaultPage  int
	MaxPage      int
	MaxBodyBytes int64
	MaxTexts     int
	Workers      int
	Timeout      time.Duration
	Models       Models
}

// Models points at optional tokenizer model files.
type Models struct {
	SentencePiece  string `mapstructure:"sentencepiece"`
	UnigramVocab   string `mapstructure:"unigram_vocab"`
	WordPieceVocab string `mapstructure:"wordpiece_vocab"`
	Lowercase      bool   `mapstructure:"lowercase"`
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "news_normalized"),
		Preprocessing:      getEnv("PREPROCESSING_CONFIG", ""),
	}
}

func loadModels() Models {
	return Models{
		SentencePiece:  getEnv("MODEL_SENTENCEPIECE", ""),
		UnigramVocab:   getEnv("MODEL_UNIGRAM_VOCAB", ""),
		WordPieceVocab: getEnv("MODEL_WORDPIECE_VOCAB", ""),
		Lowercase:      getBool("MODEL_LOWERCASE", false),
	}
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:          loadCommon(),
		KafkaBrokers:    splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "news_raw"),
		KafkaConsumer:   getEnv("KAFKA_CONSUMER_GROUP", "normalize-worker"),
		NormalizedTopic: getEnv("KAFKA_NORMALIZED_TOPIC", "news_normalized"),
		TitleWords:      getInt("WORKER_TITLE_WORDS", 12),
		DedupeCapacity:  getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:       getDuration("WORKER_DEDUPE_TTL", "24h"),
		QueueCapacity:   getInt("WORKER_QUEUE_CAPACITY", 10),
		DLQAttempts:     getInt("WORKER_DLQ_ATTEMPTS", 5),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.KafkaTopic == c.NormalizedTopic {
		return nil, fmt.Errorf("KAFKA_NORMALIZED_TOPIC must differ from KAFKA_TOPIC")
	}
	if c.QueueCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_QUEUE_CAPACITY must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.TitleWords <= 0 {
		return nil, fmt.Errorf("WORKER_TITLE_WORDS must be positive")
	}
	if c.DLQAttempts <= 0 {
		return nil, fmt.Errorf("WORKER_DLQ_ATTEMPTS must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:       loadCommon(),
		BindAddr:     getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage:  getInt("API_PAGE_SIZE", 20),
		MaxPage:      getInt("API_MAX_PAGE_SIZE", 100),
		MaxBodyBytes: int64(getInt("API_MAX_BODY_BYTES", 8<<20)),
		MaxTexts:     getInt("API_MAX_TEXTS", 5000),
		Workers:      getInt("API_WORKERS", 4),
		Timeout:      getDuration("API_ADAPTER_TIMEOUT", "30s"),
		Models:       loadModels(),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("API_MAX_BODY_BYTES must be positive")
	}
	if c.MaxTexts <= 0 {
		return nil, fmt.Errorf("API_MAX_TEXTS must be positive")
	}
	if c.Workers <= 0 {
		return nil, fmt.Errorf("API_WORKERS must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
