package search

import (
	"strconv"
	"time"

	"github.com/thep200/ecommerce-api/internal/model"
)

// IndexMapping là mapping của index sản phẩm; name có thêm trường con
// name.suggest kiểu completion cho gợi ý tìm kiếm
const IndexMapping = `{
  "settings": {
    "analysis": {
      "analyzer": {
        "product_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id": { "type": "integer" },
      "name": {
        "type": "text",
        "analyzer": "product_analyzer",
        "fields": {
          "keyword": { "type": "keyword" },
          "suggest": { "type": "completion" }
        }
      },
      "slug": { "type": "keyword" },
      "description": { "type": "text", "analyzer": "product_analyzer" },
      "shortDescription": { "type": "text", "analyzer": "product_analyzer" },
      "price": { "type": "float" },
      "salePrice": { "type": "float" },
      "sku": { "type": "keyword" },
      "categoryId": { "type": "integer" },
      "categoryName": { "type": "keyword" },
      "tags": { "type": "keyword" },
      "isActive": { "type": "boolean" },
      "isFeatured": { "type": "boolean" },
      "views": { "type": "integer" },
      "rating": { "type": "float" },
      "stock": { "type": "integer" },
      "createdAt": { "type": "date" }
    }
  }
}`

type Document struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"shortDescription"`
	Price            float64   `json:"price"`
	SalePrice        *float64  `json:"salePrice"`
	Sku              string    `json:"sku"`
	CategoryID       uint      `json:"categoryId"`
	CategoryName     string    `json:"categoryName,omitempty"`
	Tags             []string  `json:"tags"`
	IsActive         bool      `json:"isActive"`
	IsFeatured       bool      `json:"isFeatured"`
	Views            int       `json:"views"`
	Rating           float64   `json:"rating"`
	Stock            int       `json:"stock"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewDocument(p *model.Product) Document {
	doc := Document{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		SalePrice:        p.SalePrice,
		Sku:              p.Sku,
		CategoryID:       p.CategoryID,
		Tags:             []string(p.Tags),
		IsActive:         p.IsActive,
		IsFeatured:       p.IsFeatured,
		Views:            p.Views,
		Rating:           p.Rating,
		Stock:            p.Stock,
		CreatedAt:        p.CreatedAt,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if p.Category != nil {
		doc.CategoryName = p.Category.Name
	}
	return doc
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
