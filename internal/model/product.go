package model

import (
	"context"
	"fmt"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Product struct {
	Model
	Name             string     `json:"name" gorm:"column:name;type:varchar(200);not null;index"`
	Slug             string     `json:"slug" gorm:"column:slug;type:varchar(200);uniqueIndex;not null"`
	Description      string     `json:"description" gorm:"column:description;type:text"`
	ShortDescription string     `json:"shortDescription" gorm:"column:short_description;type:varchar(500)"`
	Price            float64    `json:"price" gorm:"column:price;type:decimal(10,2);not null;index"`
	SalePrice        *float64   `json:"salePrice" gorm:"column:sale_price;type:decimal(10,2)"`
	Sku              string     `json:"sku" gorm:"column:sku;type:varchar(100);uniqueIndex;not null"`
	Stock            int        `json:"stock" gorm:"column:stock;default:0"`
	Images           StringList `json:"images" gorm:"column:images;type:json"`
	CategoryID       uint       `json:"categoryId" gorm:"column:category_id;not null;index"`
	Category         *Category  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	IsActive         bool       `json:"isActive" gorm:"column:is_active;not null;index"`
	IsFeatured       bool       `json:"isFeatured" gorm:"column:is_featured;not null;index"`
	Views            int        `json:"views" gorm:"column:views;default:0;index"`
	Rating           float64    `json:"rating" gorm:"column:rating;type:decimal(3,2);default:0"`
	ReviewCount      int        `json:"reviewCount" gorm:"column:review_count;default:0"`
	Weight           *float64   `json:"weight" gorm:"column:weight;type:decimal(8,2)"`
	Dimensions       string     `json:"dimensions" gorm:"column:dimensions;type:varchar(255)"`
	Tags             StringList `json:"tags" gorm:"column:tags;type:json"`
}

func NewProduct(config *cfg.Config, logger log.Logger, db *db.Mysql) (*Product, error) {
	product := &Product{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return product, nil
}

func (p *Product) TableName() string {
	return "products"
}

// OnSale reports whether a sale price is set.
func (p *Product) OnSale() bool {
	return p.SalePrice != nil
}

func (p *Product) Create(ctx context.Context, newProduct *Product) error {
	db, err := p.conn(ctx)
	if err != nil {
		p.Logger.Error(ctx, "Failed to get database connection: %v", err)
		return err
	}

	newProduct.Name = TruncateString(newProduct.Name, 200)
	if newProduct.Slug == "" {
		newProduct.Slug = Slugify(newProduct.Name)
	}

	if err := db.Omit(clause.Associations).Create(newProduct).Error; err != nil {
		p.Logger.Error(ctx, "Failed to create product: %v", err)
		return fmt.Errorf("failed to create product: %w", err)
	}

	p.Logger.Info(ctx, "Successfully created product with ID=%d", newProduct.ID)
	return nil
}

func (p *Product) Save(ctx context.Context, product *Product) error {
	db, err := p.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Omit(clause.Associations).Save(product).Error; err != nil {
		return fmt.Errorf("failed to save product %d: %w", product.ID, err)
	}
	return nil
}

func (p *Product) FindByID(ctx context.Context, id uint) (*Product, error) {
	db, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}
	var product Product
	if err := db.Preload("Category").First(&product, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (p *Product) FindActiveBySlug(ctx context.Context, slug string) (*Product, error) {
	db, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}
	var product Product
	err = db.Preload("Category").Where("slug = ? AND is_active = ?", slug, true).First(&product).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindByIDs trả về các sản phẩm theo danh sách ID (không đảm bảo thứ tự)
func (p *Product) FindByIDs(ctx context.Context, ids []uint) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	db, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := db.Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products by ids: %w", err)
	}
	return products, nil
}

// FindPage đọc một trang sản phẩm theo thứ tự ID, dùng khi reindex
func (p *Product) FindPage(ctx context.Context, afterID uint, limit int) ([]Product, error) {
	db, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}
	var products []Product
	err = db.Preload("Category").Where("id > ?", afterID).Order("id ASC").Limit(limit).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to page products: %w", err)
	}
	return products, nil
}

func (p *Product) IncrementViews(ctx context.Context, id uint) error {
	db, err := p.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Model(&Product{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to increment views of product %d: %w", id, err)
	}
	return nil
}

// CreateBatch chèn nhiều sản phẩm, bỏ qua các SKU/slug đã tồn tại
func (p *Product) CreateBatch(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	db, err := p.conn(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].Slug == "" {
			products[i].Slug = Slugify(products[i].Name)
		}
	}
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(products, 100)
		if result.Error != nil {
			return fmt.Errorf("failed to batch create products: %w", result.Error)
		}
		p.Logger.Info(ctx, "Inserted %d products", result.RowsAffected)
		return nil
	})
}

// ProductQuery mô tả điều kiện lọc/sắp xếp cho danh sách sản phẩm đang hoạt động
type ProductQuery struct {
	CategoryID uint
	MinPrice   *float64
	MaxPrice   *float64
	OnSale     bool
	Featured   bool
	InStock    bool
	MinRating  *float64
	Keyword    string
	Order      string
	Offset     int
	Limit      int
}

func (q ProductQuery) scope(tx *gorm.DB) *gorm.DB {
	tx = tx.Where("products.is_active = ?", true)
	if q.CategoryID > 0 {
		tx = tx.Where("products.category_id = ?", q.CategoryID)
	}
	if q.MinPrice != nil {
		tx = tx.Where("products.price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("products.price <= ?", *q.MaxPrice)
	}
	if q.OnSale {
		tx = tx.Where("products.sale_price IS NOT NULL")
	}
	if q.Featured {
		tx = tx.Where("products.is_featured = ?", true)
	}
	if q.InStock {
		tx = tx.Where("products.stock > ?", 0)
	}
	if q.MinRating != nil {
		tx = tx.Where("products.rating >= ?", *q.MinRating)
	}
	if q.Keyword != "" {
		like := "%" + q.Keyword + "%"
		tx = tx.Where("(products.name LIKE ? OR products.description LIKE ? OR products.short_description LIKE ?)", like, like, like)
	}
	return tx
}

// Search trả về một trang sản phẩm thoả query cùng tổng số bản ghi
func (p *Product) Search(ctx context.Context, q ProductQuery) ([]Product, int64, error) {
	db, err := p.conn(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Model(&Product{}).Scopes(q.scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	products := []Product{}
	if total == 0 || q.Offset >= int(total) {
		return products, total, nil
	}
	tx := db.Scopes(q.scope).Preload("Category")
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if err := tx.Offset(q.Offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (p *Product) FindFeatured(ctx context.Context, limit int) ([]Product, error) {
	db, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}
	products := []Product{}
	err = db.Preload("Category").
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("views DESC").Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// FindNamesByPrefix dùng cho gợi ý tìm kiếm khi không có Elasticsearch
func (p *Product) FindNamesByPrefix(ctx context.Context, prefix string, limit int) ([]Product, error) {
	db, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}
	products := []Product{}
	err = db.Select("id", "name", "slug", "price", "sale_price", "images").
		Where("is_active = ? AND name LIKE ?", true, prefix+"%").
		Order("views DESC").Order("name ASC").
		Limit(limit).Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find product names: %w", err)
	}
	return products, nil
}

// ExistsBySkuOrSlug bỏ qua sản phẩm excludeID (dùng khi cập nhật)
func (p *Product) ExistsBySkuOrSlug(ctx context.Context, sku, slug string, excludeID uint) (bool, error) {
	db, err := p.conn(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	tx := db.Model(&Product{}).Where("(sku = ? OR slug = ?)", sku, slug)
	if excludeID > 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	if err := tx.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check existing product: %w", err)
	}
	return count > 0, nil
}
