package search

import (
	"github.com/thep200/ecommerce-api/internal/catalog"
)

type M = map[string]interface{}

// BuildQuery dựng body truy vấn Elasticsearch cho q và bộ lọc f
func BuildQuery(f catalog.ProductFilter) M {
	must := []interface{}{M{"match_all": M{}}}
	if f.Query != "" {
		must = []interface{}{M{
			"multi_match": M{
				"query":     f.Query,
				"fields":    []string{"name^3", "description^2", "shortDescription", "tags^2"},
				"fuzziness": "AUTO",
				"operator":  "or",
			},
		}}
	}

	filter := []interface{}{M{"term": M{"isActive": true}}}
	if f.CategoryID > 0 {
		filter = append(filter, M{"term": M{"categoryId": f.CategoryID}})
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := M{}
		if f.MinPrice != nil {
			price["gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["lte"] = *f.MaxPrice
		}
		filter = append(filter, M{"range": M{"price": price}})
	}
	if f.OnSale {
		filter = append(filter, M{"exists": M{"field": "salePrice"}})
	}
	if f.Featured {
		filter = append(filter, M{"term": M{"isFeatured": true}})
	}
	if f.InStock {
		filter = append(filter, M{"range": M{"stock": M{"gt": 0}}})
	}
	if f.MinRating != nil {
		filter = append(filter, M{"range": M{"rating": M{"gte": *f.MinRating}}})
	}

	return M{
		"query": M{
			"bool": M{
				"must":   must,
				"filter": filter,
			},
		},
		"sort":             buildSort(f.SortBy),
		"from":             f.Offset(),
		"size":             f.Limit,
		"track_total_hits": true,
		"highlight": M{
			"fields": M{
				"name":             M{},
				"description":      M{},
				"shortDescription": M{},
			},
		},
	}
}

func buildSort(sortBy string) []interface{} {
	order := func(field, dir string) M { return M{field: M{"order": dir}} }
	switch sortBy {
	case catalog.SortPriceAsc:
		return []interface{}{order("price", "asc")}
	case catalog.SortPriceDesc:
		return []interface{}{order("price", "desc")}
	case catalog.SortRating:
		return []interface{}{order("rating", "desc")}
	case catalog.SortViews:
		return []interface{}{order("views", "desc")}
	case catalog.SortNewest:
		return []interface{}{order("createdAt", "desc")}
	case catalog.SortName:
		return []interface{}{order("name.keyword", "asc")}
	default:
		return []interface{}{order("_score", "desc"), order("createdAt", "desc")}
	}
}

const suggestName = "product_suggest"

func BuildSuggest(prefix string, limit int) M {
	return M{
		"_source": []string{"id", "name", "slug", "price", "salePrice"},
		"suggest": M{
			suggestName: M{
				"prefix": prefix,
				"completion": M{
					"field":           "name.suggest",
					"size":            limit,
					"skip_duplicates": true,
				},
			},
		},
	}
}
