package repository

import (
	"context"
	"net/http"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
)

type CartAPIRepository struct {
	client *apiclient.Client
}

func NewCartAPIRepository(client *apiclient.Client) *CartAPIRepository {
	return &CartAPIRepository{client: client}
}

type validateCartItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type validateCartRequest struct {
	Items []validateCartItem `json:"items"`
}

// サーバーで在庫・価格を確認する
func (r *CartAPIRepository) Validate(ctx context.Context, items []model.CartSnapshotItem) (model.CartValidation, error) {
	req := validateCartRequest{Items: make([]validateCartItem, 0, len(items))}
	for _, it := range items {
		req.Items = append(req.Items, validateCartItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}

	return apiclient.Do[model.CartValidation](ctx, r.client, http.MethodPost, "/cart/validate", req,
		apiclient.WithOperation("validate_cart"),
	)
}
