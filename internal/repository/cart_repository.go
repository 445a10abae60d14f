package repository

import (
	"context"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
)

// サーバー側のカート検証（在庫・価格）
type CartRepository interface {
	Validate(ctx context.Context, items []model.CartSnapshotItem) (model.CartValidation, error)
}
