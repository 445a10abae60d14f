package repository

import (
	"context"
	"errors"
)

// 保存値が読めない（復号失敗など）
var ErrCorruptState = errors.New("corrupt state")

// ローカル状態（カート・ドラフト）をキー単位で保存する約束。
// 無いキーは ErrNotFound。
type StateRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
