package repository

import (
	"context"
	"net/http"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
)

type ShippingAPIRepository struct {
	client *apiclient.Client
}

func NewShippingAPIRepository(client *apiclient.Client) *ShippingAPIRepository {
	return &ShippingAPIRepository{client: client}
}

type shippingQuoteRequest struct {
	Items   []validateCartItem `json:"items"`
	Address model.Address      `json:"address"`
}

type shippingQuoteResponse struct {
	Quotes []model.ShippingQuote `json:"quotes"`
}

func (r *ShippingAPIRepository) Quotes(ctx context.Context, items []model.CartSnapshotItem, address model.Address) ([]model.ShippingQuote, error) {
	req := shippingQuoteRequest{
		Items:   make([]validateCartItem, 0, len(items)),
		Address: address,
	}
	for _, it := range items {
		req.Items = append(req.Items, validateCartItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}

	// 見積もりは再計算できるので作成系ではない
	res, err := apiclient.Do[shippingQuoteResponse](ctx, r.client, http.MethodPost, "/shipping/quotes", req,
		apiclient.WithOperation("shipping_quotes"),
	)
	if err != nil {
		return nil, err
	}
	if res.Quotes == nil {
		return []model.ShippingQuote{}, nil
	}
	return res.Quotes, nil
}
