package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/tokenlab/internal/config"
	"github.com/DeafMist/tokenlab/internal/corpus"
	"github.com/DeafMist/tokenlab/internal/dedupe"
	"github.com/DeafMist/tokenlab/internal/elasticsearch"
	"github.com/DeafMist/tokenlab/internal/logger"
	"github.com/DeafMist/tokenlab/internal/models"
	"github.com/DeafMist/tokenlab/internal/normalize"
)

// rawArticle is the collector payload. Dates arrive as strings in several
// layouts, so they are parsed here rather than by encoding/json.
type rawArticle struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Date     string   `json:"date"`
	URL      string   `json:"url"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Author   string   `json:"author"`
	Source   string   `json:"source"`
}

type articleIndexer interface {
	IndexArticle(ctx context.Context, a models.Article) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// pipeline turns one raw message into an indexed, published article.
type pipeline struct {
	log        *slog.Logger
	engine     *normalize.Engine
	cache      *dedupe.Cache
	indexer    articleIndexer
	publisher  messageWriter
	titleWords int
}

// dlqBackoff is the wait before DLQ write attempt n+1.
var dlqBackoff = func(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	doc := normalize.DefaultDocument()
	if cfg.Preprocessing != "" {
		doc, err = normalize.LoadConfig(cfg.Preprocessing)
		if err != nil {
			log.Error("load preprocessing config", slog.Any("err", err))
			os.Exit(1)
		}
	}
	engine, err := normalize.NewFromDocument(doc, normalize.WithLogger(log))
	if err != nil {
		log.Error("build normalizer", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.Connect(ctx, cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log, elasticsearch.DefaultBackoff)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.QueueCapacity,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	normalizedWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.NormalizedTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
	}
	defer normalizedWriter.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.DLQTopic(),
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	p := &pipeline{
		log:        log,
		engine:     engine,
		cache:      dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL),
		indexer:    esClient,
		publisher:  normalizedWriter,
		titleWords: cfg.TitleWords,
	}

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("normalized_topic", cfg.NormalizedTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.DLQTopic()),
		slog.Int("rules", engine.Rules().Len()),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := p.processMessage(ctx, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			sent, dlqErr := sendToDLQ(ctx, log, dlqWriter, msg, err, cfg.DLQAttempts)
			if dlqErr != nil {
				log.Info("context canceled during DLQ retry")
				return
			}
			// Without a DLQ copy the offset stays uncommitted and the message
			// is reprocessed on restart.
			if !sent {
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage decodes, normalizes, dedupes, indexes and publishes one
// article. A duplicate is not an error.
func (p *pipeline) processMessage(ctx context.Context, msg kafka.Message) error {
	var payload rawArticle
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return fmt.Errorf("decode article: %w", err)
	}

	article, err := corpus.Prepare(payload.article(), p.titleWords)
	if err != nil {
		return err
	}

	normalized, err := p.engine.NormalizeArticle(article)
	if err != nil {
		return err
	}

	if p.cache.CheckAndMark(normalized.ID) {
		p.log.Debug("duplicate article", slog.String("id", normalized.ID))
		return nil
	}

	if err := p.indexer.IndexArticle(ctx, normalized); err != nil {
		p.cache.Forget(normalized.ID)
		return err
	}

	value, err := json.Marshal(normalized)
	if err != nil {
		p.cache.Forget(normalized.ID)
		return fmt.Errorf("encode normalized article: %w", err)
	}
	if err := p.publisher.WriteMessages(ctx, kafka.Message{Key: []byte(normalized.ID), Value: value}); err != nil {
		p.cache.Forget(normalized.ID)
		return fmt.Errorf("publish normalized article: %w", err)
	}

	p.log.Info("normalized article", slog.String("id", normalized.ID), slog.String("title", normalized.Title))
	return nil
}

// sendToDLQ writes msg with error context, retrying with exponential
// backoff. It returns a non-nil error only when ctx ends first.
func sendToDLQ(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message, cause error, attempts int) (bool, error) {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := range attempts {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true, nil
		}

		if attempt == attempts-1 {
			break
		}
		backoff := dlqBackoff(attempt)
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return false, nil
}

func (r rawArticle) article() models.Article {
	a := models.Article{
		ID:       strings.TrimSpace(r.ID),
		Title:    strings.TrimSpace(r.Title),
		Text:     strings.TrimSpace(r.Text),
		URL:      strings.TrimSpace(r.URL),
		Category: strings.TrimSpace(r.Category),
		Tags:     r.Tags,
		Author:   strings.TrimSpace(r.Author),
		Source:   strings.TrimSpace(r.Source),
	}
	if a.Source == "" {
		a.Source = "unknown"
	}
	if ts := parseTimestamp(r.Date); !ts.IsZero() {
		a.Date = &ts
	}
	return a
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}
