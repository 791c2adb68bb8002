// Package elastic bọc go-elasticsearch cho các thao tác mà dịch vụ cần:
// tạo index, bulk index/xoá và truy vấn search/suggest
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/log"
)

type Client struct {
	Config *cfg.Config
	Logger log.Logger
	es     *elasticsearch.Client
}

type Hit struct {
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    json.RawMessage     `json:"_source"`
	Highlight map[string][]string `json:"highlight"`
}

type SuggestOption struct {
	Text   string          `json:"text"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

type SuggestEntry struct {
	Text    string          `json:"text"`
	Options []SuggestOption `json:"options"`
}

type SearchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []Hit `json:"hits"`
	} `json:"hits"`
	Suggest map[string][]SuggestEntry `json:"suggest"`
}

// BulkDoc is one bulk action; Body is ignored for deletes.
type BulkDoc struct {
	ID   string
	Body interface{}
}

type BulkResult struct {
	Succeeded uint64
	Failed    uint64
}

func NewClient(config *cfg.Config, logger log.Logger) (*Client, error) {
	return NewClientWithTransport(config, logger, nil)
}

// NewClientWithTransport cho phép thay http transport (dùng trong test)
func NewClientWithTransport(config *cfg.Config, logger log.Logger, transport http.RoundTripper) (*Client, error) {
	if len(config.Elasticsearch.Addresses) == 0 {
		return nil, errors.New("no elasticsearch addresses configured")
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Elasticsearch.Addresses,
		Username:  config.Elasticsearch.Username,
		Password:  config.Elasticsearch.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Client{Config: config, Logger: logger, es: es}, nil
}

func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return fmt.Errorf("elasticsearch returned %s: %s", res.Status(), bytes.TrimSpace(body))
}

func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res)
	}
	return nil
}

// EnsureIndex tạo index với mapping nếu chưa tồn tại, trả về true khi vừa tạo
func (c *Client) EnsureIndex(ctx context.Context, index string, mapping []byte) (bool, error) {
	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", index, err)
	}
	res.Body.Close()
	switch {
	case res.StatusCode == http.StatusOK:
		return false, nil
	case res.StatusCode != http.StatusNotFound:
		return false, fmt.Errorf("unexpected status checking index %s: %s", index, res.Status())
	}

	res, err = c.es.Indices.Create(index,
		c.es.Indices.Create.WithBody(bytes.NewReader(mapping)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, responseError(res)
	}
	c.Logger.Info(ctx, "Created elasticsearch index %s", index)
	return true, nil
}

func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	res, err := c.es.Indices.Delete([]string{index},
		c.es.Indices.Delete.WithContext(ctx),
		c.es.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res)
	}
	return nil
}

// Bulk chạy action ("index" hoặc "delete") cho từng doc rồi refresh index.
// Xoá một doc không tồn tại không bị tính là lỗi.
func (c *Client) Bulk(ctx context.Context, index, action string, docs []BulkDoc) (BulkResult, error) {
	if len(docs) == 0 {
		return BulkResult{}, nil
	}
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     c.es,
		Index:      index,
		NumWorkers: 1,
		Refresh:    "true",
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var missing uint64
	for _, doc := range docs {
		item := esutil.BulkIndexerItem{
			Action:     action,
			DocumentID: doc.ID,
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if item.Action == "delete" && res.Status == http.StatusNotFound {
					atomic.AddUint64(&missing, 1)
					return
				}
				if err != nil {
					c.Logger.Error(ctx, "Bulk %s of document %s failed: %v", item.Action, item.DocumentID, err)
					return
				}
				c.Logger.Error(ctx, "Bulk %s of document %s failed: %s: %s", item.Action, item.DocumentID, res.Error.Type, res.Error.Reason)
			},
		}
		if action != "delete" {
			data, err := json.Marshal(doc.Body)
			if err != nil {
				_ = bi.Close(ctx)
				return BulkResult{}, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
			}
			item.Body = bytes.NewReader(data)
		}
		if err := bi.Add(ctx, item); err != nil {
			_ = bi.Close(ctx)
			return BulkResult{}, fmt.Errorf("failed to queue document %s: %w", doc.ID, err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return BulkResult{}, fmt.Errorf("failed to flush bulk request: %w", err)
	}

	stats := bi.Stats()
	result := BulkResult{
		Succeeded: stats.NumIndexed + stats.NumDeleted + stats.NumCreated + stats.NumUpdated + missing,
		Failed:    stats.NumFailed - missing,
	}
	if result.Failed > 0 {
		return result, fmt.Errorf("%d of %d bulk %s actions failed", result.Failed, len(docs), action)
	}
	return result, nil
}

func (c *Client) Search(ctx context.Context, index string, body interface{}) (*SearchResponse, error) {
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(esutil.NewJSONReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError(res)
	}

	var out SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &out, nil
}
