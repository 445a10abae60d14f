package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

// 404はrepo.ErrNotFoundに寄せる（APIErrorはラップして残す）
func mapNotFound(err error) error {
	if ae, ok := apiclient.AsAPIError(err); ok && ae.Status == http.StatusNotFound {
		return errors.Join(repo.ErrNotFound, ae)
	}
	return err
}

// ErrUnexpectedEnvelope は一覧の入れ物が読めないとき
var ErrUnexpectedEnvelope = errors.New("unexpected list envelope")

// 一覧レスポンスは [..] / {"items": [..]} / {"<key>": [..]} のどれでも受ける。
// それ以外の形は空一覧ではなくエラーにする。
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	out := []T{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUnexpectedEnvelope)
	}

	list := gjson.ParseBytes(trimmed)
	if !list.IsArray() {
		if !list.IsObject() {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedEnvelope, list.Type)
		}
		found := false
		for _, k := range []string{"items", key} {
			if r := list.Get(k); r.Exists() {
				list, found = r, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: want \"items\" or %q", ErrUnexpectedEnvelope, key)
		}
	}

	switch {
	case list.Type == gjson.Null:
		return out, nil
	case !list.IsArray():
		return nil, fmt.Errorf("%w: list is %s", ErrUnexpectedEnvelope, list.Type)
	}
	if err := json.Unmarshal([]byte(list.Raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
