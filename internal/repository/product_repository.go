package repository

import (
	"context"
	"errors"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	Collection string
	MinPrice   *int64
	MaxPrice   *int64
	Sort       string
}

// 商品の取得だけを約束（実体はリモートAPI）。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindBySlug(ctx context.Context, slug string) (model.Product, error)
}

// コレクションの取得
type CollectionRepository interface {
	List(ctx context.Context) ([]model.Collection, error)
	FindBySlug(ctx context.Context, slug string) (model.Collection, error)
}
