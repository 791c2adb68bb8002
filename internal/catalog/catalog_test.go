package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/apperr"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/db/dbtest"
	"github.com/thep200/ecommerce-api/pkg/log"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []model.ProductMessage
}

func (p *recordingPublisher) PublishProduct(_ context.Context, msg model.ProductMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func floatPtr(f float64) *float64 { return &f }

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	logger, _ := log.NewCslLogger()
	mysql := dbtest.NewSqlite(t, config, model.Tables()...)

	pub := &recordingPublisher{}
	svc, err := NewService(config, logger, mysql, pub)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.categories.CreateBatch(ctx, []model.Category{
		{Name: "Electronics", SortOrder: 1, IsActive: true},
		{Name: "Books", SortOrder: 2, IsActive: true},
	}))
	electronics, err := svc.categories.FindActiveBySlug(ctx, "electronics")
	require.NoError(t, err)
	require.NoError(t, svc.products.CreateBatch(ctx, []model.Product{
		{Name: "iPhone 15 Pro", Description: "Apple smartphone", Price: 999.99, SalePrice: floatPtr(899.99), Sku: "IP15", Stock: 50, CategoryID: electronics.ID, IsActive: true, IsFeatured: true, Rating: 4.8, Views: 10},
		{Name: "Samsung Galaxy S24", Description: "Android smartphone", Price: 849.99, Sku: "SGS24", Stock: 0, CategoryID: electronics.ID, IsActive: true, Rating: 4.6, Views: 3},
		{Name: "USB Cable", Price: 9.99, Sku: "USB1", Stock: 100, CategoryID: electronics.ID, IsActive: true, Rating: 3.9, IsFeatured: true, Views: 30},
	}))
	return svc, pub
}

func names(products []model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestParseProductFilter(t *testing.T) {
	f, err := ParseProductFilter(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, "", f.SortBy)
	assert.Equal(t, 0, f.Offset())

	f, err = ParseProductFilter(url.Values{
		"q": {" phone "}, "page": {"3"}, "limit": {"5"}, "categoryId": {"2"},
		"minPrice": {"10.5"}, "maxPrice": {"100"}, "sortBy": {"price_desc"},
		"onSale": {"true"}, "featured": {"1"}, "inStock": {"false"}, "minRating": {"4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "phone", f.Query)
	assert.Equal(t, 10, f.Offset())
	assert.Equal(t, uint(2), f.CategoryID)
	assert.Equal(t, 10.5, *f.MinPrice)
	assert.Equal(t, SortPriceDesc, f.SortBy)
	assert.True(t, f.OnSale)
	assert.True(t, f.Featured)
	assert.False(t, f.InStock)
	assert.Equal(t, 4.0, *f.MinRating)

	bad := []struct {
		key, value, field string
	}{
		{"page", "0", "page"},
		{"page", "abc", "page"},
		{"page", "4611686018427387905", "page"},
		{"page", strconv.Itoa(MaxPage + 1), "page"},
		{"limit", "101", "limit"},
		{"limit", "0", "limit"},
		{"categoryId", "0", "categoryId"},
		{"minPrice", "-1", "minPrice"},
		{"maxPrice", "NaN", "maxPrice"},
		{"minRating", "6", "minRating"},
		{"sortBy", "random", "sortBy"},
		{"onSale", "maybe", "onSale"},
	}
	for _, tt := range bad {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			_, err := ParseProductFilter(url.Values{tt.key: {tt.value}})
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(err))
			assert.Contains(t, apperr.Message(err), tt.field)
		})
	}

	f, err = ParseProductFilter(url.Values{"page": {strconv.Itoa(MaxPage)}, "limit": {strconv.Itoa(MaxLimit)}})
	require.NoError(t, err)
	assert.Greater(t, f.Offset(), 0)

	long := make([]rune, MaxQueryLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = ParseProductFilter(url.Values{"q": {string(long)}})
	assert.Error(t, err)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 3, TotalItems: 25, ItemsPerPage: 10, HasNext: true, HasPrev: true}, p)

	p = NewPagination(3, 10, 25)
	assert.False(t, p.HasNext)

	p = NewPagination(1, 20, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}

func TestService_ListProducts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter ProductFilter
		want   []string
	}{
		{"price asc", ProductFilter{Page: 1, Limit: 20, SortBy: SortPriceAsc}, []string{"USB Cable", "Samsung Galaxy S24", "iPhone 15 Pro"}},
		{"views", ProductFilter{Page: 1, Limit: 20, SortBy: SortViews}, []string{"USB Cable", "iPhone 15 Pro", "Samsung Galaxy S24"}},
		{"name", ProductFilter{Page: 1, Limit: 20, SortBy: SortName}, []string{"Samsung Galaxy S24", "USB Cable", "iPhone 15 Pro"}},
		{"on sale", ProductFilter{Page: 1, Limit: 20, OnSale: true}, []string{"iPhone 15 Pro"}},
		{"in stock by rating", ProductFilter{Page: 1, Limit: 20, InStock: true, SortBy: SortRating}, []string{"iPhone 15 Pro", "USB Cable"}},
		{"price range", ProductFilter{Page: 1, Limit: 20, MinPrice: floatPtr(10), MaxPrice: floatPtr(900), SortBy: SortPriceAsc}, []string{"Samsung Galaxy S24"}},
		{"second page", ProductFilter{Page: 2, Limit: 2, SortBy: SortPriceAsc}, []string{"iPhone 15 Pro"}},
		{"query ignored", ProductFilter{Query: "zzz", Page: 1, Limit: 1, SortBy: SortPriceAsc}, []string{"USB Cable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.ListProducts(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(list.Products))
		})
	}

	list, err := svc.ListProducts(ctx, ProductFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 2, TotalItems: 3, ItemsPerPage: 2, HasNext: false, HasPrev: true}, list.Pagination)
}

func TestService_SearchLike(t *testing.T) {
	svc, _ := newTestService(t)
	list, err := svc.SearchLike(context.Background(), ProductFilter{Query: "smartphone", Page: 1, Limit: 20, SortBy: SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Samsung Galaxy S24", "iPhone 15 Pro"}, names(list.Products))

	list, err = svc.SearchLike(context.Background(), ProductFilter{Query: "smartphone", Page: 1, Limit: 20, OnSale: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"iPhone 15 Pro"}, names(list.Products))
}

func TestService_ProductBySlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.ProductBySlug(ctx, "iphone-15-pro")
	require.NoError(t, err)
	assert.Equal(t, 11, p.Views)
	require.NotNil(t, p.Category)
	assert.Equal(t, "electronics", p.Category.Slug)

	p, err = svc.ProductBySlug(ctx, "iphone-15-pro")
	require.NoError(t, err)
	assert.Equal(t, 12, p.Views)

	_, err = svc.ProductBySlug(ctx, "missing")
	assert.Equal(t, "Product not found", apperr.Message(err))
	assert.Equal(t, http.StatusNotFound, apperr.HTTPStatus(err))
}

func TestService_CategoriesAndFeatured(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Electronics", cats[0].Name)
	assert.Equal(t, int64(3), cats[0].ProductCount)
	assert.Equal(t, int64(0), cats[1].ProductCount)

	list, err := svc.ProductsByCategory(ctx, "books", ProductFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, list.Products)
	assert.NotNil(t, list.Products)

	list, err = svc.ProductsByCategory(ctx, "electronics", ProductFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, list.Products, 3)

	_, err = svc.ProductsByCategory(ctx, "toys", ProductFilter{Page: 1, Limit: 20})
	assert.Equal(t, "Category not found", apperr.Message(err))

	featured, err := svc.Featured(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"USB Cable", "iPhone 15 Pro"}, names(featured))

	featured, err = svc.Featured(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, featured, 1)
}

func TestService_ProductMutations(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	books, err := svc.categories.FindActiveBySlug(ctx, "books")
	require.NoError(t, err)

	t.Run("create validates", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, ProductInput{Name: "No price", Sku: "X", CategoryID: books.ID})
		assert.Contains(t, apperr.Message(err), "price")

		_, err = svc.CreateProduct(ctx, ProductInput{Name: "Bad cat", Price: floatPtr(1), Sku: "X", CategoryID: 999})
		assert.Equal(t, "Category not found", apperr.Message(err))

		_, err = svc.CreateProduct(ctx, ProductInput{Name: "Dup", Price: floatPtr(1), Sku: "IP15", CategoryID: books.ID})
		assert.Equal(t, http.StatusConflict, apperr.HTTPStatus(err))
	})

	t.Run("slug from non latin names", func(t *testing.T) {
		vn, err := svc.CreateProduct(ctx, ProductInput{Name: "Điện thoại", Price: floatPtr(10), Sku: "DT-01", CategoryID: books.ID})
		require.NoError(t, err)
		assert.Equal(t, "dien-thoai", vn.Slug)

		jp, err := svc.CreateProduct(ctx, ProductInput{Name: "日本", Price: floatPtr(10), Sku: "JP-01", CategoryID: books.ID})
		require.NoError(t, err)
		assert.Equal(t, "jp-01", jp.Slug)

		cn, err := svc.CreateProduct(ctx, ProductInput{Name: "中文", Price: floatPtr(10), Sku: "中文书", CategoryID: books.ID})
		require.NoError(t, err)
		assert.Regexp(t, `^product-[0-9a-f]{12}$`, cn.Slug)

		found, err := svc.ProductBySlug(ctx, "jp-01")
		require.NoError(t, err)
		assert.Equal(t, jp.ID, found.ID)

		for _, p := range []*model.Product{vn, jp, cn} {
			require.NoError(t, svc.DeleteProduct(ctx, p.ID))
		}
	})
	pub.msgs = nil

	created, err := svc.CreateProduct(ctx, ProductInput{
		Name: "Go Programming", Price: floatPtr(39.5), Sku: "BOOK1", CategoryID: books.ID,
		Tags: []string{"golang"},
	})
	require.NoError(t, err)
	assert.Equal(t, "go-programming", created.Slug)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Books", created.Category.Name)

	stock := 7
	updated, err := svc.UpdateProduct(ctx, created.ID, ProductInput{Stock: &stock, Price: floatPtr(35)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, 35.0, updated.Price)
	assert.Equal(t, "Go Programming", updated.Name)

	_, err = svc.UpdateProduct(ctx, 999, ProductInput{Stock: &stock})
	assert.Equal(t, http.StatusNotFound, apperr.HTTPStatus(err))

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	_, err = svc.ProductBySlug(ctx, "go-programming")
	assert.Equal(t, http.StatusNotFound, apperr.HTTPStatus(err))

	assert.Equal(t, []model.ProductMessage{
		{ID: created.ID, Action: model.ProductActionUpsert},
		{ID: created.ID, Action: model.ProductActionUpsert},
		{ID: created.ID, Action: model.ProductActionDelete},
	}, pub.msgs)
}
