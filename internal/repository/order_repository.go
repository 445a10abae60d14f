package repository

import (
	"context"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	// 注文＋決済セッションを作成（同じキーなら同じ結果を返す）
	CreatePayfastCheckout(ctx context.Context, req model.CheckoutRequest, idempotencyKey string) (model.PaymentRedirect, error)
}
