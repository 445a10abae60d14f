package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/config"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/db"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

// StateStores はカート用とドラフト用のストア。
// ドラフトは（鍵があれば）暗号化し、遅延書き込みする。
type StateStores struct {
	Cart  repo.StateRepository
	Draft *StateDebouncedRepository
	close func() error
}

// Close は遅延中のドラフトを書いてから接続を閉じる
func (s StateStores) Close(ctx context.Context) error {
	flushErr := s.Draft.Flush(ctx)
	if s.close != nil {
		if err := s.close(); err != nil {
			return err
		}
	}
	return flushErr
}

// OpenStateStores は STORAGE_DRIVER に応じてストアを組み立てる。
func OpenStateStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (StateStores, error) {
	var (
		base    repo.StateRepository
		closeFn func() error
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		base = NewStateMemoryRepository()

	case config.StorageFile:
		fs, err := NewStateFileRepository(cfg.StorageDir)
		if err != nil {
			return StateStores{}, err
		}
		base = fs

	case config.StoragePostgres:
		gdb, err := db.Connect()
		if err != nil {
			return StateStores{}, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(gdb); err != nil {
			return StateStores{}, fmt.Errorf("migrate: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return StateStores{}, err
		}
		base = NewStateGormRepository(gdb)
		closeFn = sqlDB.Close

	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return StateStores{}, fmt.Errorf("connect redis: %w", err)
		}
		base = NewStateRedisRepository(rdb, "storefront:", cfg.SessionTTL)
		closeFn = rdb.Close

	default:
		return StateStores{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	draft := base
	if cfg.DraftEncryptionKey != "" {
		enc, err := NewStateEncryptedRepository(base, cfg.DraftEncryptionKey)
		if err != nil {
			return StateStores{}, err
		}
		draft = enc
	} else {
		log.Warn("DRAFT_ENCRYPTION_KEY is empty: checkout drafts are stored unencrypted")
	}

	log.WithField("driver", cfg.StorageDriver).Info("state storage ready")
	return StateStores{
		Cart:  base,
		Draft: NewStateDebouncedRepository(draft, cfg.DraftSaveDelay, log),
		close: closeFn,
	}, nil
}
