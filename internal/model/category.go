package model

import (
	"context"
	"fmt"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/log"
	"gorm.io/gorm/clause"
)

type Category struct {
	Model
	Name        string    `json:"name" gorm:"column:name;type:varchar(100);not null"`
	Slug        string    `json:"slug" gorm:"column:slug;type:varchar(100);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"column:description;type:text"`
	Image       string    `json:"image" gorm:"column:image;type:varchar(255)"`
	SortOrder   int       `json:"sortOrder" gorm:"column:sort_order;default:0"`
	IsActive    bool      `json:"isActive" gorm:"column:is_active;not null;index"`
	Products    []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

func NewCategory(config *cfg.Config, logger log.Logger, db *db.Mysql) (*Category, error) {
	category := &Category{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return category, nil
}

func (c *Category) TableName() string {
	return "categories"
}

func (c *Category) FindByID(ctx context.Context, id uint) (*Category, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var category Category
	if err := db.First(&category, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

func (c *Category) FindActiveBySlug(ctx context.Context, slug string) (*Category, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var category Category
	if err := db.Where("slug = ? AND is_active = ?", slug, true).First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// CreateBatch chèn nhiều danh mục, bỏ qua các slug đã tồn tại
func (c *Category) CreateBatch(ctx context.Context, categories []Category) error {
	if len(categories) == 0 {
		return nil
	}
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	for i := range categories {
		if categories[i].Slug == "" {
			categories[i].Slug = Slugify(categories[i].Name)
		}
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).CreateInBatches(categories, 100)
	if result.Error != nil {
		return fmt.Errorf("failed to batch create categories: %w", result.Error)
	}
	c.Logger.Info(ctx, "Inserted %d categories", result.RowsAffected)
	return nil
}

// CategoryCount là danh mục kèm số sản phẩm đang hoạt động
type CategoryCount struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	SortOrder    int    `json:"-"`
	ProductCount int64  `json:"productCount"`
}

func (c *Category) ListActiveWithCounts(ctx context.Context) ([]CategoryCount, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	out := []CategoryCount{}
	err = db.Table("categories").
		Select("categories.id, categories.name, categories.slug, categories.description, categories.image, categories.sort_order, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id AND products.is_active = ?", true).
		Where("categories.is_active = ?", true).
		Group("categories.id, categories.name, categories.slug, categories.description, categories.image, categories.sort_order").
		Order("categories.sort_order ASC").Order("categories.name ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return out, nil
}
