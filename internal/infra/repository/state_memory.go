package repository

import (
	"context"
	"sync"

	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

// プロセス内だけの保存先（開発・テスト用）
type StateMemoryRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewStateMemoryRepository() *StateMemoryRepository {
	return &StateMemoryRepository{values: map[string][]byte{}}
}

func (r *StateMemoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *StateMemoryRepository) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = append([]byte(nil), value...)
	return nil
}

func (r *StateMemoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}
