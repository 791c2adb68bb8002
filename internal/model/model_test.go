package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/db/dbtest"
	"github.com/thep200/ecommerce-api/pkg/log"
)

func setup(t *testing.T) (*cfg.Config, log.Logger, *db.Mysql) {
	t.Helper()
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	logger, _ := log.NewCslLogger()
	return config, logger, dbtest.NewSqlite(t, config, Tables()...)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Home & Garden":       "home-garden",
		"  iPhone 15 Pro  ":   "iphone-15-pro",
		"Samsung--Galaxy S24": "samsung-galaxy-s24",
		"!!!":                 "",
		"Áo thun":             "ao-thun",
		"Điện thoại Đồng Nai": "dien-thoai-dong-nai",
		"Bàn phím cơ":         "ban-phim-co",
		"日本":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "ab", TruncateString("abc", 2))
	assert.Equal(t, "Việ", TruncateString("Việt Nam", 3))
}

func TestUser_Lookups(t *testing.T) {
	ctx := context.Background()
	config, logger, mysql := setup(t)
	userMd, _ := NewUser(config, logger, mysql)

	alice := &User{Username: "alice", Email: "alice@example.com", Password: "hash", IsActive: true}
	require.NoError(t, userMd.Create(ctx, alice))
	assert.Equal(t, RoleUser, alice.Role)
	bob := &User{Username: "bob", Email: "bob@example.com", Password: "hash", IsActive: false}
	require.NoError(t, userMd.Create(ctx, bob))

	t.Run("login by email or username", func(t *testing.T) {
		byEmail, err := userMd.FindActiveByLogin(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byEmail.ID)

		byName, err := userMd.FindActiveByLogin(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byName.ID)
	})

	t.Run("inactive users are not found", func(t *testing.T) {
		_, err := userMd.FindActiveByLogin(ctx, "bob")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = userMd.FindActiveByEmail(ctx, "bob@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("exists by email or username", func(t *testing.T) {
		exists, err := userMd.ExistsByEmailOrUsername(ctx, "new@example.com", "alice")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = userMd.ExistsByEmailOrUsername(ctx, "new@example.com", "carol")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("reset token honours expiry", func(t *testing.T) {
		now := time.Now().UTC()
		token := "abc123"
		expires := now.Add(10 * time.Minute)
		alice.ResetPasswordToken = &token
		alice.ResetPasswordExpires = &expires
		require.NoError(t, userMd.Save(ctx, alice))

		found, err := userMd.FindByResetToken(ctx, token, now)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)

		_, err = userMd.FindByResetToken(ctx, token, now.Add(11*time.Minute))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list paginates", func(t *testing.T) {
		users, total, err := userMd.List(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, users, 1)
		assert.Equal(t, "bob", users[0].Username)
	})
}

func TestProduct_Persistence(t *testing.T) {
	ctx := context.Background()
	config, logger, mysql := setup(t)
	categoryMd, _ := NewCategory(config, logger, mysql)
	productMd, _ := NewProduct(config, logger, mysql)

	require.NoError(t, categoryMd.CreateBatch(ctx, []Category{
		{Name: "Electronics", IsActive: true},
		{Name: "Books", IsActive: true},
	}))
	// duplicates are ignored
	require.NoError(t, categoryMd.CreateBatch(ctx, []Category{{Name: "Electronics", IsActive: true}}))

	electronics, err := categoryMd.FindActiveBySlug(ctx, "electronics")
	require.NoError(t, err)

	sale := 899.99
	phone := &Product{
		Name:       "iPhone 15 Pro",
		Price:      999.99,
		SalePrice:  &sale,
		Sku:        "IP15PRO001",
		Stock:      50,
		CategoryID: electronics.ID,
		IsActive:   true,
		Tags:       StringList{"smartphone", "apple"},
	}
	require.NoError(t, productMd.Create(ctx, phone))
	assert.Equal(t, "iphone-15-pro", phone.Slug)

	t.Run("json columns and category preload", func(t *testing.T) {
		found, err := productMd.FindActiveBySlug(ctx, "iphone-15-pro")
		require.NoError(t, err)
		assert.Equal(t, StringList{"smartphone", "apple"}, found.Tags)
		assert.Nil(t, found.Images)
		require.NotNil(t, found.Category)
		assert.Equal(t, "Electronics", found.Category.Name)
		assert.True(t, found.OnSale())
	})

	t.Run("increment views", func(t *testing.T) {
		require.NoError(t, productMd.IncrementViews(ctx, phone.ID))
		require.NoError(t, productMd.IncrementViews(ctx, phone.ID))
		found, err := productMd.FindByID(ctx, phone.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Views)
	})

	t.Run("batch ignores duplicates", func(t *testing.T) {
		require.NoError(t, productMd.CreateBatch(ctx, []Product{
			{Name: "iPhone 15 Pro", Price: 1, Sku: "IP15PRO001", CategoryID: electronics.ID, IsActive: true},
			{Name: "Samsung Galaxy S24", Price: 849.99, Sku: "SGS24001", CategoryID: electronics.ID, IsActive: true},
		}))
		page, err := productMd.FindPage(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, 999.99, page[0].Price)

		rest, err := productMd.FindPage(ctx, page[0].ID, 10)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "samsung-galaxy-s24", rest[0].Slug)
	})

	t.Run("find by ids", func(t *testing.T) {
		found, err := productMd.FindByIDs(ctx, []uint{phone.ID, 9999})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, phone.ID, found[0].ID)

		none, err := productMd.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("missing slug", func(t *testing.T) {
		_, err := productMd.FindActiveBySlug(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestProduct_SearchAndCounts(t *testing.T) {
	ctx := context.Background()
	config, logger, mysql := setup(t)
	categoryMd, _ := NewCategory(config, logger, mysql)
	productMd, _ := NewProduct(config, logger, mysql)

	require.NoError(t, categoryMd.CreateBatch(ctx, []Category{
		{Name: "Electronics", SortOrder: 2, IsActive: true},
		{Name: "Books", SortOrder: 1, IsActive: true},
		{Name: "Hidden", SortOrder: 0, IsActive: false},
	}))
	electronics, err := categoryMd.FindActiveBySlug(ctx, "electronics")
	require.NoError(t, err)

	sale := 10.0
	require.NoError(t, productMd.CreateBatch(ctx, []Product{
		{Name: "Phone Alpha", Description: "fast phone", Price: 100, Sku: "A", Stock: 1, CategoryID: electronics.ID, IsActive: true, IsFeatured: true, Rating: 4.5, Views: 5},
		{Name: "Phone Beta", Price: 50, SalePrice: &sale, Sku: "B", CategoryID: electronics.ID, IsActive: true, Rating: 3},
		{Name: "Tablet", ShortDescription: "big phone", Price: 300, Sku: "C", Stock: 3, CategoryID: electronics.ID, IsActive: true, IsFeatured: true, Views: 9},
		{Name: "Retired Phone", Price: 1, Sku: "D", CategoryID: electronics.ID, IsActive: false},
	}))

	minPrice, minRating := 60.0, 4.0
	tests := []struct {
		name  string
		query ProductQuery
		want  []string
	}{
		{"all active by price", ProductQuery{Order: "price ASC", Limit: 10}, []string{"Phone Beta", "Phone Alpha", "Tablet"}},
		{"keyword matches any text column", ProductQuery{Keyword: "phone", Order: "price ASC", Limit: 10}, []string{"Phone Beta", "Phone Alpha", "Tablet"}},
		{"min price", ProductQuery{MinPrice: &minPrice, Order: "price ASC", Limit: 10}, []string{"Phone Alpha", "Tablet"}},
		{"on sale", ProductQuery{OnSale: true, Limit: 10}, []string{"Phone Beta"}},
		{"in stock and featured", ProductQuery{InStock: true, Featured: true, Order: "views DESC", Limit: 10}, []string{"Tablet", "Phone Alpha"}},
		{"min rating", ProductQuery{MinRating: &minRating, Limit: 10}, []string{"Phone Alpha"}},
		{"paged", ProductQuery{Order: "price ASC", Offset: 1, Limit: 1}, []string{"Phone Alpha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, _, err := productMd.Search(ctx, tt.query)
			require.NoError(t, err)
			names := make([]string, 0, len(products))
			for _, p := range products {
				names = append(names, p.Name)
				require.NotNil(t, p.Category)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	_, total, err := productMd.Search(ctx, ProductQuery{Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	featured, err := productMd.FindFeatured(ctx, 10)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	assert.Equal(t, "Tablet", featured[0].Name)

	names, err := productMd.FindNamesByPrefix(ctx, "Phone", 5)
	require.NoError(t, err)
	assert.Len(t, names, 2)

	exists, err := productMd.ExistsBySkuOrSlug(ctx, "A", "x", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = productMd.ExistsBySkuOrSlug(ctx, "A", "phone-alpha", featured[1].ID)
	require.NoError(t, err)
	assert.False(t, exists)

	counts, err := categoryMd.ListActiveWithCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "Books", counts[0].Name)
	assert.Equal(t, int64(0), counts[0].ProductCount)
	assert.Equal(t, "Electronics", counts[1].Name)
	assert.Equal(t, int64(3), counts[1].ProductCount)
}
