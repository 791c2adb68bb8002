package catalog

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/thep200/ecommerce-api/internal/apperr"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	MaxQueryLen  = 100
	// MaxPage giữ (page-1)*limit trong phạm vi int32
	MaxPage = math.MaxInt32 / MaxLimit
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortViews     = "views"
	SortName      = "name"
)

var validSorts = []string{SortNewest, SortPriceAsc, SortPriceDesc, SortRating, SortViews, SortName}

// ProductFilter là các tham số lọc/sắp xếp/phân trang của danh sách sản phẩm.
// SortBy rỗng nghĩa là không chỉ định: danh sách dùng newest, tìm kiếm dùng điểm liên quan.
type ProductFilter struct {
	Query      string
	Page       int
	Limit      int
	CategoryID uint
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string
	OnSale     bool
	Featured   bool
	InStock    bool
	MinRating  *float64
}

func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

func parseInt(values url.Values, key string, min, max, def int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("%q must be an integer", key))
	}
	if n < min {
		return 0, apperr.Validation(fmt.Sprintf("%q must be greater than or equal to %d", key, min))
	}
	if max > 0 && n > max {
		return 0, apperr.Validation(fmt.Sprintf("%q must be less than or equal to %d", key, max))
	}
	return n, nil
}

func parseFloat(values url.Values, key string, min, max float64) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, apperr.Validation(fmt.Sprintf("%q must be a number", key))
	}
	if n < min {
		return nil, apperr.Validation(fmt.Sprintf("%q must be greater than or equal to %v", key, min))
	}
	if n > max {
		return nil, apperr.Validation(fmt.Sprintf("%q must be less than or equal to %v", key, max))
	}
	return &n, nil
}

func parseBool(values url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Validation(fmt.Sprintf("%q must be a boolean", key))
	}
	return b, nil
}

// ParseProductFilter đọc và kiểm tra query string; lỗi trả về là apperr Validation
func ParseProductFilter(values url.Values) (ProductFilter, error) {
	var (
		f   ProductFilter
		err error
	)

	f.Query = strings.TrimSpace(values.Get("q"))
	if len([]rune(f.Query)) > MaxQueryLen {
		return f, apperr.Validation(fmt.Sprintf(`"q" length must be less than or equal to %d characters long`, MaxQueryLen))
	}
	if f.Page, err = parseInt(values, "page", 1, MaxPage, 1); err != nil {
		return f, err
	}
	if f.Limit, err = parseInt(values, "limit", 1, MaxLimit, DefaultLimit); err != nil {
		return f, err
	}
	categoryID, err := parseInt(values, "categoryId", 1, 0, 0)
	if err != nil {
		return f, err
	}
	f.CategoryID = uint(categoryID)
	if f.MinPrice, err = parseFloat(values, "minPrice", 0, math.MaxFloat64); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parseFloat(values, "maxPrice", 0, math.MaxFloat64); err != nil {
		return f, err
	}
	if f.MinRating, err = parseFloat(values, "minRating", 0, 5); err != nil {
		return f, err
	}

	if sortBy := strings.TrimSpace(values.Get("sortBy")); sortBy != "" {
		valid := false
		for _, s := range validSorts {
			if s == sortBy {
				valid = true
				break
			}
		}
		if !valid {
			return f, apperr.Validation(fmt.Sprintf(`"sortBy" must be one of [%s]`, strings.Join(validSorts, ", ")))
		}
		f.SortBy = sortBy
	}

	if f.OnSale, err = parseBool(values, "onSale"); err != nil {
		return f, err
	}
	if f.Featured, err = parseBool(values, "featured"); err != nil {
		return f, err
	}
	if f.InStock, err = parseBool(values, "inStock"); err != nil {
		return f, err
	}
	return f, nil
}

type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      int64(page)*int64(limit) < total,
		HasPrev:      page > 1,
	}
}

// orderClause trả về ORDER BY cho sortBy; id DESC giúp thứ tự ổn định khi trùng giá trị
func orderClause(sortBy string) string {
	switch sortBy {
	case SortPriceAsc:
		return "products.price ASC, products.id DESC"
	case SortPriceDesc:
		return "products.price DESC, products.id DESC"
	case SortRating:
		return "products.rating DESC, products.id DESC"
	case SortViews:
		return "products.views DESC, products.id DESC"
	case SortName:
		return "products.name ASC, products.id DESC"
	default:
		return "products.created_at DESC, products.id DESC"
	}
}
