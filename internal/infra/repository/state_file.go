package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

// 1キー1ファイルで保存する（ブラウザのlocalStorage相当）
type StateFileRepository struct {
	dir string
}

func NewStateFileRepository(dir string) (*StateFileRepository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &StateFileRepository{dir: dir}, nil
}

func (r *StateFileRepository) path(key string) string {
	return filepath.Join(r.dir, url.PathEscape(key)+".json")
}

func (r *StateFileRepository) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(r.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// 一時ファイルに書いてrenameする（途中で落ちても壊れたJSONを残さない）
func (r *StateFileRepository) Set(ctx context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(r.dir, ".state-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, r.path(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (r *StateFileRepository) Delete(ctx context.Context, key string) error {
	err := os.Remove(r.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
