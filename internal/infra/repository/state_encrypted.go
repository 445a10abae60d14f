package repository

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var encryptedPrefix = []byte("enc1:")

const draftKeyInfo = "storefront checkout draft v1"

// 個人情報を暗号化して保存するラッパー（XChaCha20-Poly1305）。
// キー名をADに使うので、別キーに値をコピーしても復号できない。
type StateEncryptedRepository struct {
	inner repo.StateRepository
	key   []byte
}

// secretからHKDFで32byteの鍵を作る
func NewStateEncryptedRepository(inner repo.StateRepository, secret string) (*StateEncryptedRepository, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(draftKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	return &StateEncryptedRepository{inner: inner, key: key}, nil
}

func (r *StateEncryptedRepository) Get(ctx context.Context, key string) ([]byte, error) {
	stored, err := r.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(stored, encryptedPrefix) {
		return nil, fmt.Errorf("%w: value is not encrypted", repo.ErrCorruptState)
	}

	raw, err := base64.StdEncoding.DecodeString(string(stored[len(encryptedPrefix):]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrCorruptState, err)
	}

	aead, err := chacha20poly1305.NewX(r.key)
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", repo.ErrCorruptState)
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrCorruptState, err)
	}
	return plain, nil
}

func (r *StateEncryptedRepository) Set(ctx context.Context, key string, value []byte) error {
	aead, err := chacha20poly1305.NewX(r.key)
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	sealed := aead.Seal(nonce, nonce, value, []byte(key))

	out := make([]byte, 0, len(encryptedPrefix)+base64.StdEncoding.EncodedLen(len(sealed)))
	out = append(out, encryptedPrefix...)
	out = append(out, base64.StdEncoding.EncodeToString(sealed)...)

	return r.inner.Set(ctx, key, out)
}

func (r *StateEncryptedRepository) Delete(ctx context.Context, key string) error {
	return r.inner.Delete(ctx, key)
}
