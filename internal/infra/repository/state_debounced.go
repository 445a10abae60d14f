package repository

import (
	"context"
	"sync"
	"time"

	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"

	"github.com/sirupsen/logrus"
)

// 書き込みをdelayだけまとめるラッパー。
// 読み込みは未書き込みの値を優先する。delay<=0なら即時書き込み。
type StateDebouncedRepository struct {
	inner repo.StateRepository
	delay time.Duration
	log   logrus.FieldLogger

	// inner への書き込み順を保つ
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string][]byte
	timers  map[string]*time.Timer
}

func NewStateDebouncedRepository(inner repo.StateRepository, delay time.Duration, log logrus.FieldLogger) *StateDebouncedRepository {
	return &StateDebouncedRepository{
		inner:   inner,
		delay:   delay,
		log:     log,
		pending: map[string][]byte{},
		timers:  map[string]*time.Timer{},
	}
}

func (r *StateDebouncedRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	v, ok := r.pending[key]
	r.mu.Unlock()

	if ok {
		return append([]byte(nil), v...), nil
	}
	return r.inner.Get(ctx, key)
}

func (r *StateDebouncedRepository) Set(ctx context.Context, key string, value []byte) error {
	if r.delay <= 0 {
		return r.inner.Set(ctx, key, value)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[key] = append([]byte(nil), value...)
	if t, ok := r.timers[key]; ok {
		t.Stop()
	}
	r.timers[key] = time.AfterFunc(r.delay, func() {
		if err := r.flushKey(context.Background(), key); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("debounced state write failed")
		}
	})
	return nil
}

// 未書き込みの値は捨てて削除する
func (r *StateDebouncedRepository) Delete(ctx context.Context, key string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	if t, ok := r.timers[key]; ok {
		t.Stop()
		delete(r.timers, key)
	}
	delete(r.pending, key)
	r.mu.Unlock()

	return r.inner.Delete(ctx, key)
}

// Flush は未書き込みの値をすべて書く
func (r *StateDebouncedRepository) Flush(ctx context.Context) error {
	r.mu.Lock()
	keys := make([]string, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	var firstErr error
	for _, k := range keys {
		if err := r.flushKey(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *StateDebouncedRepository) flushKey(ctx context.Context, key string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	v, ok := r.pending[key]
	if t, exists := r.timers[key]; exists {
		t.Stop()
		delete(r.timers, key)
	}
	delete(r.pending, key)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return r.inner.Set(ctx, key, v)
}
