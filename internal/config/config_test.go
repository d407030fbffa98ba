package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/tokenlab/internal/config"
)

func TestLoadWorkerDefaults(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "")
	t.Setenv("ELASTICSEARCH_INDEX", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("KAFKA_CONSUMER_GROUP", "")
	t.Setenv("KAFKA_NORMALIZED_TOPIC", "")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "news_normalized", cfg.ElasticsearchIndex)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "news_raw", cfg.KafkaTopic)
	require.Equal(t, "news_normalized", cfg.NormalizedTopic)
	require.Equal(t, "news_raw_dlq", cfg.DLQTopic())
	require.Equal(t, "normalize-worker", cfg.KafkaConsumer)
	require.Equal(t, 24*time.Hour, cfg.DedupeTTL)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9999")
	t.Setenv("ELASTICSEARCH_INDEX", "custom")
	t.Setenv("PREPROCESSING_CONFIG", "/etc/tokenlab/preprocessing.yaml")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092, broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("KAFKA_CONSUMER_GROUP", "custom-group")
	t.Setenv("KAFKA_NORMALIZED_TOPIC", "custom_normalized")
	t.Setenv("WORKER_TITLE_WORDS", "8")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("WORKER_QUEUE_CAPACITY", "3")
	t.Setenv("WORKER_DLQ_ATTEMPTS", "2")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9999", cfg.ElasticsearchAddr)
	require.Equal(t, "custom", cfg.ElasticsearchIndex)
	require.Equal(t, "/etc/tokenlab/preprocessing.yaml", cfg.Preprocessing)
	require.Equal(t, []string{"broker-a:29092", "broker-b:29093"}, cfg.KafkaBrokers)
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, "custom-group", cfg.KafkaConsumer)
	require.Equal(t, "custom_normalized", cfg.NormalizedTopic)
	require.Equal(t, 8, cfg.TitleWords)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 3, cfg.QueueCapacity)
	require.Equal(t, 2, cfg.DLQAttempts)
}

func TestLoadWorkerValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "no brokers", key: "KAFKA_BROKERS", val: " , "},
		{name: "same topics", key: "KAFKA_NORMALIZED_TOPIC", val: "news_raw"},
		{name: "zero capacity", key: "WORKER_DEDUPE_CAPACITY", val: "0"},
		{name: "negative title words", key: "WORKER_TITLE_WORDS", val: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KAFKA_TOPIC", "news_raw")
			t.Setenv(tt.key, tt.val)
			_, err := config.LoadWorker()
			require.Error(t, err)
		})
	}
}

func TestLoadAPI(t *testing.T) {
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_PAGE_SIZE", "15")
	t.Setenv("API_MAX_PAGE_SIZE", "200")
	t.Setenv("API_MAX_TEXTS", "50")
	t.Setenv("API_ADAPTER_TIMEOUT", "5s")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "api-index")
	t.Setenv("MODEL_UNIGRAM_VOCAB", "/models/ru.vocab")
	t.Setenv("MODEL_LOWERCASE", "true")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 15, cfg.DefaultPage)
	require.Equal(t, 200, cfg.MaxPage)
	require.Equal(t, 50, cfg.MaxTexts)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "api-index", cfg.ElasticsearchIndex)
	require.Equal(t, "/models/ru.vocab", cfg.Models.UnigramVocab)
	require.True(t, cfg.Models.Lowercase)
}

func TestLoadAPIRejectsPageSizeAboveMax(t *testing.T) {
	t.Setenv("API_PAGE_SIZE", "500")
	t.Setenv("API_MAX_PAGE_SIZE", "100")
	_, err := config.LoadAPI()
	require.Error(t, err)
}

func TestLoadAnalyzerDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadAnalyzer(nil, "")
	require.NoError(t, err)

	d := config.DefaultAnalyzer()
	require.Equal(t, d.Language, cfg.Language)
	require.Equal(t, d.Workers, cfg.Workers)
	require.Equal(t, d.Timeout, cfg.Timeout)
	require.InDelta(t, d.TestFraction, cfg.TestFraction, 1e-9)
	require.Equal(t, d.Format, cfg.Format)
	require.Equal(t, d.Elasticsearch, cfg.Elasticsearch)
	require.Empty(t, cfg.Methods)
	require.Empty(t, cfg.Models.SentencePiece)
}

func TestLoadAnalyzerPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokenlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 2
test_fraction: 0.3
methods: [naive, uax29]
models:
  unigram_vocab: /models/ru.vocab
elasticsearch:
  index: from-file
`), 0o600))

	t.Setenv("TOKENLAB_WORKERS", "6")
	t.Setenv("TOKENLAB_ELASTICSEARCH_INDEX", "from-env")

	fs := pflag.NewFlagSet("analyzer", pflag.ContinueOnError)
	config.RegisterAnalyzerFlags(fs, config.DefaultAnalyzer())
	require.NoError(t, fs.Parse([]string{"--format", "json", "--timeout", "15s"}))

	cfg, err := config.LoadAnalyzer(fs, path)
	require.NoError(t, err)

	require.Equal(t, "json", cfg.Format)
	require.Equal(t, 15*time.Second, cfg.Timeout)
	require.Equal(t, 6, cfg.Workers)
	require.Equal(t, "from-env", cfg.Elasticsearch.Index)
	require.InDelta(t, 0.3, cfg.TestFraction, 1e-9)
	require.Equal(t, []string{"naive", "uax29"}, cfg.Methods)
	require.Equal(t, "/models/ru.vocab", cfg.Models.UnigramVocab)
	require.Equal(t, "russian", cfg.Language)
}

func TestLoadAnalyzerValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKENLAB_FORMAT", "xml")

	_, err := config.LoadAnalyzer(nil, "")
	require.Error(t, err)
}
