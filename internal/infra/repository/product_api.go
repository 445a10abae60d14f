package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

type ProductAPIRepository struct {
	client *apiclient.Client
}

// DI
func NewProductAPIRepository(client *apiclient.Client) *ProductAPIRepository {
	return &ProductAPIRepository{client: client}
}

// 公開商品を、検索/価格帯/ソート/ページング付きで返す。
func (r *ProductAPIRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if strings.TrimSpace(q.Q) != "" {
		params.Set("q", strings.TrimSpace(q.Q))
	}
	if q.Collection != "" {
		params.Set("collection", q.Collection)
	}
	if q.MinPrice != nil {
		params.Set("min_price", strconv.FormatInt(*q.MinPrice, 10))
	}
	if q.MaxPrice != nil {
		params.Set("max_price", strconv.FormatInt(*q.MaxPrice, 10))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}

	raw, err := apiclient.Do[json.RawMessage](ctx, r.client, http.MethodGet, "/products", nil,
		apiclient.WithQuery(params),
		apiclient.WithOperation("list_products"),
	)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Product](raw, "products")
}

// slugで商品を取得
func (r *ProductAPIRepository) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	p, err := apiclient.Do[model.Product](ctx, r.client, http.MethodGet, "/products/"+apiclient.PathEscape(slug), nil,
		apiclient.WithOperation("get_product"),
	)
	if err != nil {
		return model.Product{}, mapNotFound(err)
	}
	return p, nil
}
