package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/search"
)

// Config holds the cluster connection settings.
type Config struct {
	URL   string
	Index string
	// Transport carries every request. The application passes a
	// circuit-breaking transport so a dead cluster fails fast.
	Transport http.RoundTripper
}

// Engine is an Elasticsearch-backed search.Engine.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.Store `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates an engine for the cluster at cfg.URL. It does not contact the
// cluster; call EnsureIndex before serving.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	indexName := cfg.Index
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Engine{client: client, indexName: indexName, logger: logger}, nil
}

// responseError turns a failed response into an error, preferring the
// cluster's own error type and reason.
func responseError(op string, res *esapi.Response) error {
	var errResp errorResponse
	if err := json.NewDecoder(res.Body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("elasticsearch %s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: unexpected status %s", op, res.Status())
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the stores index with its mapping when missing.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res)
	}

	e.logger.InfoContext(ctx, "elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// Index adds or updates one store document.
func (e *Engine) Index(ctx context.Context, store *domain.Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal store: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(store.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("index", res)
	}

	e.logger.DebugContext(ctx, "indexed store", slog.String("store_id", store.ID))
	return nil
}

// Delete removes a store document. A missing document is ignored.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(e.indexName, id, e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

// Search runs a fuzzy multi-field query over active stores.
func (e *Engine) Search(ctx context.Context, query domain.StoreSearchQuery) (*domain.StoreSearchResult, error) {
	page, perPage := search.NormalizePage(query.Page, query.PerPage)

	data, err := json.Marshal(buildQuery(query, page, perPage))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var resp searchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	stores := make([]domain.Store, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		stores = append(stores, hit.Source)
	}
	return &domain.StoreSearchResult{Stores: stores, Total: resp.Hits.Total.Value}, nil
}

func buildQuery(query domain.StoreSearchQuery, page, perPage int) map[string]any {
	var must any = map[string]any{"match_all": map[string]any{}}
	sort := []any{
		map[string]any{"average_rating": "desc"},
		map[string]any{"review_count": "desc"},
		map[string]any{"name.keyword": "asc"},
	}

	if text := strings.TrimSpace(query.Text); text != "" {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":         text,
				"fields":        []string{"name^3", "name.autocomplete^2", "address", "description", "owner_name"},
				"type":          "best_fields",
				"operator":      "and",
				"fuzziness":     "AUTO",
				"prefix_length": 1,
			},
		}
		sort = append([]any{map[string]any{"_score": "desc"}}, sort...)
	}

	filters := []any{map[string]any{"term": map[string]any{"is_active": true}}}
	if query.MinRating > 0 {
		filters = append(filters, map[string]any{
			"range": map[string]any{"average_rating": map[string]any{"gte": query.MinRating}},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must":   []any{must},
				"filter": filters,
			},
		},
		"sort":             sort,
		"from":             (page - 1) * perPage,
		"size":             perPage,
		"track_total_hits": true,
	}
}

// BulkIndex indexes stores through the bulk NDJSON API.
func (e *Engine) BulkIndex(ctx context.Context, stores []domain.Store) error {
	if len(stores) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range stores {
		action := map[string]any{"index": map[string]any{"_index": e.indexName, "_id": stores[i].ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(stores[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("bulk index", res)
	}

	var resp bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}
	if resp.Errors {
		var msgs []string
		for _, item := range resp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}

	e.logger.InfoContext(ctx, "bulk indexed stores", slog.Int("count", len(stores)))
	return nil
}
