package repository

import (
	"context"
	"net/http"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
)

type OrderAPIRepository struct {
	client *apiclient.Client
}

func NewOrderAPIRepository(client *apiclient.Client) *OrderAPIRepository {
	return &OrderAPIRepository{client: client}
}

// 注文を1件取得
func (r *OrderAPIRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	o, err := apiclient.Do[model.Order](ctx, r.client, http.MethodGet, "/orders/"+apiclient.PathEscape(orderID), nil,
		apiclient.WithOperation("get_order"),
	)
	if err != nil {
		return model.Order{}, mapNotFound(err)
	}
	return o, nil
}

// 注文＋PayFastセッション作成。リトライしても同じキーを送る。
func (r *OrderAPIRepository) CreatePayfastCheckout(ctx context.Context, req model.CheckoutRequest, idempotencyKey string) (model.PaymentRedirect, error) {
	return apiclient.Do[model.PaymentRedirect](ctx, r.client, http.MethodPost, "/checkout/payfast", req,
		apiclient.WithIdempotencyKey(idempotencyKey),
		apiclient.WithOperation("create_payfast_checkout"),
	)
}
