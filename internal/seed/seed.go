// Package seed nạp dữ liệu mẫu: danh mục, sản phẩm và tài khoản admin
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/auth"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/log"
)

type sampleProduct struct {
	product      model.Product
	categorySlug string
}

func Categories() []model.Category {
	return []model.Category{
		{Name: "Electronics", Slug: "electronics", Description: "Electronic devices and gadgets", SortOrder: 1, IsActive: true},
		{Name: "Clothing", Slug: "clothing", Description: "Fashion and apparel", SortOrder: 2, IsActive: true},
		{Name: "Books", Slug: "books", Description: "Books and literature", SortOrder: 3, IsActive: true},
		{Name: "Home & Garden", Slug: "home-garden", Description: "Home improvement and garden supplies", SortOrder: 4, IsActive: true},
		{Name: "Sports", Slug: "sports", Description: "Sports and outdoor equipment", SortOrder: 5, IsActive: true},
	}
}

func price(f float64) *float64 { return &f }

func sampleProducts() []sampleProduct {
	return []sampleProduct{
		{categorySlug: "electronics", product: model.Product{
			Name:             "iPhone 15 Pro",
			Slug:             "iphone-15-pro",
			Description:      "Latest iPhone with advanced features",
			ShortDescription: "Premium smartphone with excellent camera",
			Price:            999.99,
			SalePrice:        price(899.99),
			Sku:              "IP15PRO001",
			Stock:            50,
			IsActive:         true,
			IsFeatured:       true,
			Tags:             model.StringList{"smartphone", "apple", "premium"},
		}},
		{categorySlug: "electronics", product: model.Product{
			Name:             "Samsung Galaxy S24",
			Slug:             "samsung-galaxy-s24",
			Description:      "Powerful Android smartphone",
			ShortDescription: "Latest Samsung flagship phone",
			Price:            849.99,
			Sku:              "SGS24001",
			Stock:            30,
			IsActive:         true,
			Tags:             model.StringList{"smartphone", "samsung", "android"},
		}},
		{categorySlug: "clothing", product: model.Product{
			Name:             "Nike Air Max",
			Slug:             "nike-air-max",
			Description:      "Comfortable running shoes",
			ShortDescription: "Premium running shoes for athletes",
			Price:            129.99,
			SalePrice:        price(99.99),
			Sku:              "NAM001",
			Stock:            100,
			IsActive:         true,
			Tags:             model.StringList{"shoes", "nike", "running"},
		}},
	}
}

type Seeder struct {
	Config     *cfg.Config
	Logger     log.Logger
	categories *model.Category
	products   *model.Product
	users      *model.User
}

func NewSeeder(config *cfg.Config, logger log.Logger, mysql *db.Mysql) (*Seeder, error) {
	categories, err := model.NewCategory(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	products, err := model.NewProduct(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	users, err := model.NewUser(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	return &Seeder{Config: config, Logger: logger, categories: categories, products: products, users: users}, nil
}

// Run chèn dữ liệu mẫu, chạy lại nhiều lần không tạo bản ghi trùng
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.categories.CreateBatch(ctx, Categories()); err != nil {
		return err
	}

	ids := map[string]uint{}
	samples := sampleProducts()
	products := make([]model.Product, 0, len(samples))
	for _, sample := range samples {
		id, ok := ids[sample.categorySlug]
		if !ok {
			category, err := s.categories.FindActiveBySlug(ctx, sample.categorySlug)
			if err != nil {
				return fmt.Errorf("failed to find category %s: %w", sample.categorySlug, err)
			}
			id = category.ID
			ids[sample.categorySlug] = id
		}
		p := sample.product
		p.CategoryID = id
		products = append(products, p)
	}
	if err := s.products.CreateBatch(ctx, products); err != nil {
		return err
	}

	if _, err := s.Admin(ctx); err != nil {
		return err
	}
	s.Logger.Info(ctx, "Sample data inserted successfully")
	return nil
}

// Admin tạo tài khoản admin từ config nếu được cấu hình và chưa tồn tại
func (s *Seeder) Admin(ctx context.Context) (bool, error) {
	admin := s.Config.Admin
	if admin.Username == "" || admin.Email == "" || admin.Password == "" {
		return false, nil
	}
	exists, err := s.users.ExistsByEmailOrUsername(ctx, admin.Email, admin.Username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if len(admin.Password) < 6 {
		return false, errors.New("admin password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return false, err
	}
	user := &model.User{
		Username: admin.Username,
		Email:    admin.Email,
		Password: hash,
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, err
	}
	s.Logger.Notice(ctx, "Created admin account %s", admin.Username)
	return true, nil
}
