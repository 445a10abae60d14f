package repository

import (
	"context"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
)

// 配送見積もり
type ShippingRepository interface {
	Quotes(ctx context.Context, items []model.CartSnapshotItem, address model.Address) ([]model.ShippingQuote, error)
}
