package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/apperr"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/log"
)

const DefaultFeaturedLimit = 10

// EventPublisher nhận sự kiện thay đổi sản phẩm để đồng bộ chỉ mục tìm kiếm
type EventPublisher interface {
	PublishProduct(ctx context.Context, msg model.ProductMessage) error
}

type ProductList struct {
	Products   []model.Product `json:"products"`
	Pagination Pagination      `json:"pagination"`
}

type Service struct {
	Config     *cfg.Config
	Logger     log.Logger
	products   *model.Product
	categories *model.Category
	publisher  EventPublisher
}

func NewService(config *cfg.Config, logger log.Logger, mysql *db.Mysql, publisher EventPublisher) (*Service, error) {
	products, err := model.NewProduct(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	categories, err := model.NewCategory(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	return &Service{
		Config:     config,
		Logger:     logger,
		products:   products,
		categories: categories,
		publisher:  publisher,
	}, nil
}

func (s *Service) list(ctx context.Context, f ProductFilter, keyword string) (*ProductList, error) {
	products, total, err := s.products.Search(ctx, model.ProductQuery{
		CategoryID: f.CategoryID,
		MinPrice:   f.MinPrice,
		MaxPrice:   f.MaxPrice,
		OnSale:     f.OnSale,
		Featured:   f.Featured,
		InStock:    f.InStock,
		MinRating:  f.MinRating,
		Keyword:    keyword,
		Order:      orderClause(f.SortBy),
		Offset:     f.Offset(),
		Limit:      f.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &ProductList{Products: products, Pagination: NewPagination(f.Page, f.Limit, total)}, nil
}

// ListProducts trả về sản phẩm đang hoạt động theo bộ lọc, bỏ qua f.Query
func (s *Service) ListProducts(ctx context.Context, f ProductFilter) (*ProductList, error) {
	return s.list(ctx, f, "")
}

// SearchLike là tìm kiếm dự phòng bằng LIKE trên name, description, short_description
func (s *Service) SearchLike(ctx context.Context, f ProductFilter) (*ProductList, error) {
	return s.list(ctx, f, f.Query)
}

func (s *Service) ProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	product, err := s.products.FindActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, err
	}
	if err := s.products.IncrementViews(ctx, product.ID); err != nil {
		return nil, err
	}
	product.Views++
	return product, nil
}

func (s *Service) Categories(ctx context.Context) ([]model.CategoryCount, error) {
	return s.categories.ListActiveWithCounts(ctx)
}

func (s *Service) ProductsByCategory(ctx context.Context, slug string, f ProductFilter) (*ProductList, error) {
	category, err := s.categories.FindActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		return nil, err
	}
	f.CategoryID = category.ID
	return s.ListProducts(ctx, f)
}

func (s *Service) Featured(ctx context.Context, limit int) ([]model.Product, error) {
	if limit < 1 || limit > MaxLimit {
		limit = DefaultFeaturedLimit
	}
	return s.products.FindFeatured(ctx, limit)
}

// ProductInput là dữ liệu tạo/cập nhật sản phẩm do admin gửi lên
type ProductInput struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"shortDescription"`
	Price            *float64 `json:"price"`
	SalePrice        *float64 `json:"salePrice"`
	Sku              string   `json:"sku"`
	Stock            *int     `json:"stock"`
	Images           []string `json:"images"`
	CategoryID       uint     `json:"categoryId"`
	IsActive         *bool    `json:"isActive"`
	IsFeatured       *bool    `json:"isFeatured"`
	Weight           *float64 `json:"weight"`
	Dimensions       string   `json:"dimensions"`
	Tags             []string `json:"tags"`
}

func (in *ProductInput) validate(partial bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Sku = strings.TrimSpace(in.Sku)
	in.Slug = model.Slugify(in.Slug)
	switch {
	case !partial && in.Name == "":
		return apperr.Validation(`"name" is required`)
	case len([]rune(in.Name)) > 200:
		return apperr.Validation(`"name" length must be less than or equal to 200 characters long`)
	case !partial && in.Price == nil:
		return apperr.Validation(`"price" is required`)
	case in.Price != nil && *in.Price < 0:
		return apperr.Validation(`"price" must be greater than or equal to 0`)
	case in.SalePrice != nil && *in.SalePrice < 0:
		return apperr.Validation(`"salePrice" must be greater than or equal to 0`)
	case !partial && in.Sku == "":
		return apperr.Validation(`"sku" is required`)
	case !partial && in.CategoryID == 0:
		return apperr.Validation(`"categoryId" is required`)
	case in.Stock != nil && *in.Stock < 0:
		return apperr.Validation(`"stock" must be greater than or equal to 0`)
	case len([]rune(in.ShortDescription)) > 500:
		return apperr.Validation(`"shortDescription" length must be less than or equal to 500 characters long`)
	}
	return nil
}

func (in *ProductInput) apply(p *model.Product) {
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Slug != "" {
		p.Slug = in.Slug
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.ShortDescription != "" {
		p.ShortDescription = in.ShortDescription
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.SalePrice != nil {
		p.SalePrice = in.SalePrice
	}
	if in.Sku != "" {
		p.Sku = in.Sku
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Images != nil {
		p.Images = model.StringList(in.Images)
	}
	if in.CategoryID > 0 {
		p.CategoryID = in.CategoryID
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.Dimensions != "" {
		p.Dimensions = in.Dimensions
	}
	if in.Tags != nil {
		p.Tags = model.StringList(in.Tags)
	}
}

func (s *Service) checkCategory(ctx context.Context, id uint) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apperr.Validation("Category not found")
		}
		return err
	}
	return nil
}

func (s *Service) checkUnique(ctx context.Context, p *model.Product) error {
	exists, err := s.products.ExistsBySkuOrSlug(ctx, p.Sku, p.Slug, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Conflict("Product with this SKU or slug already exists")
	}
	return nil
}

// publish chỉ ghi log khi lỗi: dữ liệu đã lưu, chỉ mục sẽ được đồng bộ ở lần reindex sau
func (s *Service) publish(ctx context.Context, id uint, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishProduct(ctx, model.ProductMessage{ID: id, Action: action}); err != nil {
		s.Logger.Error(ctx, "Failed to publish %s event for product %d: %v", action, id, err)
	}
}

// defaultSlug lấy từ tên, rồi tới SKU; tên và SKU không có ký tự latin thì sinh ngẫu nhiên
func defaultSlug(p *model.Product) string {
	if slug := model.Slugify(p.Name); slug != "" {
		return slug
	}
	if slug := model.Slugify(p.Sku); slug != "" {
		return slug
	}
	return "product-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product := &model.Product{IsActive: true}
	in.apply(product)
	if product.Slug == "" {
		product.Slug = defaultSlug(product)
	}
	if err := s.checkUnique(ctx, product); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, product.ID, model.ProductActionUpsert)
	return s.products.FindByID(ctx, product.ID)
}

func (s *Service) findProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*model.Product, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID > 0 && in.CategoryID != product.CategoryID {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
	}

	in.apply(product)
	product.Category = nil
	if err := s.checkUnique(ctx, product); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	action := model.ProductActionUpsert
	if !product.IsActive {
		action = model.ProductActionDelete
	}
	s.publish(ctx, product.ID, action)
	return s.products.FindByID(ctx, product.ID)
}

// DeleteProduct ẩn sản phẩm (is_active = false) và gỡ khỏi chỉ mục
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}
	product.IsActive = false
	product.Category = nil
	if err := s.products.Save(ctx, product); err != nil {
		return err
	}
	s.publish(ctx, product.ID, model.ProductActionDelete)
	return nil
}
