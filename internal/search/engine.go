package search

import (
	"context"

	"github.com/thep200/ecommerce-api/pkg/elastic"
)

// Engine là phần Elasticsearch mà search cần; *elastic.Client thoả interface này
type Engine interface {
	Ping(ctx context.Context) error
	EnsureIndex(ctx context.Context, index string, mapping []byte) (bool, error)
	Bulk(ctx context.Context, index, action string, docs []elastic.BulkDoc) (elastic.BulkResult, error)
	Search(ctx context.Context, index string, body interface{}) (*elastic.SearchResponse, error)
}

var _ Engine = (*elastic.Client)(nil)
