package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/DeafMist/tokenlab/internal/logger"
	"github.com/DeafMist/tokenlab/internal/models"
)

const (
	defaultSize = 20
	maxSize     = 200
	// fetchPage is the page size used by FetchArticles.
	fetchPage = 500
)

// Client wraps go-elasticsearch with helpers for the normalized corpus index.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// SearchParams narrow the corpus search query.
type SearchParams struct {
	Query    string
	Source   string
	Category string
	From     int
	Size     int
}

// SearchResult bundles hits and total count.
type SearchResult struct {
	Total int64            `json:"total"`
	Items []models.Article `json:"items"`
}

// New instantiates the Elasticsearch client.
func New(addr, index string, log *slog.Logger) (*Client, error) {
	return NewWithTransport(addr, index, nil, log)
}

// NewWithTransport is New with a custom HTTP transport; nil keeps the default.
func NewWithTransport(addr, index string, transport http.RoundTripper, log *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
		Transport: transport,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Client{es: es, index: index, log: log}, nil
}

// Index returns the index name the client writes to.
func (c *Client) Index() string { return c.index }

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// IndexArticle writes a normalized article under its ID.
func (c *Client) IndexArticle(ctx context.Context, a models.Article) error {
	if a.ID == "" {
		return fmt.Errorf("index article: empty id")
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: a.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index article: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index article failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// SearchArticles runs a bool query with optional source and category filters.
func (c *Client) SearchArticles(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Size <= 0 {
		params.Size = defaultSize
	}
	if params.Size > maxSize {
		params.Size = maxSize
	}
	if params.From < 0 {
		params.From = 0
	}

	body := map[string]any{
		"from":             params.From,
		"size":             params.Size,
		"track_total_hits": true,
		"query":            buildQuery(params),
		"sort": []map[string]any{
			{"date": map[string]any{"order": "desc", "unmapped_type": "date"}},
		},
	}

	total, items, err := c.search(ctx, body)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Total: total, Items: items}, nil
}

// FetchArticles pages through the index in _id order and returns at most
// limit articles. limit <= 0 means everything.
func (c *Client) FetchArticles(ctx context.Context, limit int) ([]models.Article, error) {
	var (
		out         []models.Article
		searchAfter []any
	)
	for {
		size := fetchPage
		if limit > 0 && limit-len(out) < size {
			size = limit - len(out)
		}
		if size <= 0 {
			break
		}

		body := map[string]any{
			"size":  size,
			"query": map[string]any{"match_all": map[string]any{}},
			"sort":  []map[string]any{{"_id": map[string]any{"order": "asc"}}},
		}
		if searchAfter != nil {
			body["search_after"] = searchAfter
		}

		hits, err := c.searchPage(ctx, body)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			out = append(out, h.Source)
		}
		if len(hits) < size {
			break
		}
		searchAfter = hits[len(hits)-1].Sort
	}

	c.log.Debug("fetched articles", "index", c.index, "count", len(out))
	return out, nil
}

// FetchTexts returns the text field of up to limit stored articles.
func (c *Client) FetchTexts(ctx context.Context, limit int) ([]string, error) {
	articles, err := c.FetchArticles(ctx, limit)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(articles))
	for _, a := range articles {
		if strings.TrimSpace(a.Text) != "" {
			texts = append(texts, a.Text)
		}
	}
	return texts, nil
}

// Health checks cluster health.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

func buildQuery(params SearchParams) map[string]any {
	must := make([]map[string]any, 0, 1)
	filters := make([]map[string]any, 0, 2)

	if params.Query != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  params.Query,
				"fields": []string{"title^2", "text"},
			},
		})
	}
	if params.Source != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"source": params.Source},
		})
	}
	if params.Category != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"category": params.Category},
		})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(must) == 0 && len(filters) == 0 {
		boolQuery["must"] = []map[string]any{
			{"match_all": map[string]any{}},
		}
	}
	return map[string]any{"bool": boolQuery}
}

type hit struct {
	Source models.Article `json:"_source"`
	Sort   []any          `json:"sort"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

func (c *Client) search(ctx context.Context, body map[string]any) (int64, []models.Article, error) {
	parsed, err := c.do(ctx, body)
	if err != nil {
		return 0, nil, err
	}
	items := make([]models.Article, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		items = append(items, h.Source)
	}
	return parsed.Hits.Total.Value, items, nil
}

func (c *Client) searchPage(ctx context.Context, body map[string]any) ([]hit, error) {
	parsed, err := c.do(ctx, body)
	if err != nil {
		return nil, err
	}
	return parsed.Hits.Hits, nil
}

func (c *Client) do(ctx context.Context, body map[string]any) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &parsed, nil
}
