package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/db/dbtest"
	"github.com/thep200/ecommerce-api/pkg/log"
)

func TestSeeder_Run(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	config.Admin = cfg.Admin{Username: "admin", Email: "admin@example.com", Password: "admin123"}
	logger, _ := log.NewCslLogger()
	mysql := dbtest.NewSqlite(t, config, model.Tables()...)

	seeder, err := NewSeeder(config, logger, mysql)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, seeder.Run(ctx))
	// idempotent
	require.NoError(t, seeder.Run(ctx))

	categories, err := model.NewCategory(config, logger, mysql)
	require.NoError(t, err)
	counts, err := categories.ListActiveWithCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 5)
	perSlug := map[string]int64{}
	for _, c := range counts {
		perSlug[c.Slug] = c.ProductCount
	}
	assert.EqualValues(t, 2, perSlug["electronics"])
	assert.EqualValues(t, 1, perSlug["clothing"])
	assert.EqualValues(t, 0, perSlug["sports"])

	products, err := model.NewProduct(config, logger, mysql)
	require.NoError(t, err)
	iphone, err := products.FindActiveBySlug(ctx, "iphone-15-pro")
	require.NoError(t, err)
	assert.Equal(t, "IP15PRO001", iphone.Sku)
	require.NotNil(t, iphone.SalePrice)
	assert.InDelta(t, 899.99, *iphone.SalePrice, 0.001)
	assert.Equal(t, model.StringList{"smartphone", "apple", "premium"}, iphone.Tags)

	users, err := model.NewUser(config, logger, mysql)
	require.NoError(t, err)
	admin, err := users.FindActiveByLogin(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	_, total, err := users.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSeeder_AdminNotConfigured(t *testing.T) {
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	logger, _ := log.NewCslLogger()
	mysql := dbtest.NewSqlite(t, config, model.Tables()...)

	seeder, err := NewSeeder(config, logger, mysql)
	require.NoError(t, err)
	created, err := seeder.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, created)

	config.Admin = cfg.Admin{Username: "root", Email: "root@example.com", Password: "123"}
	_, err = seeder.Admin(context.Background())
	assert.Error(t, err)
}
