package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError はネットワーク層の失敗を1つの型にまとめたもの。
// Status 0 はHTTPレスポンスが得られなかったことを表す。
type APIError struct {
	Message string
	Status  int
	Body    []byte
	// サーバーが返す構造化エラーコード（無ければ空）
	Code string
	Err  error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "api: " + e.Message
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Network はレスポンスが無かった失敗か
func (e *APIError) Network() bool {
	return e.Status == 0
}

func (e *APIError) Timeout() bool {
	return e.Status == http.StatusRequestTimeout
}

// Canceled は呼び出し元のctxで中断されたか
func (e *APIError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled)
}

// Retryable は既定ポリシーで再試行対象になる失敗か
func (e *APIError) Retryable() bool {
	if e.Canceled() {
		return false
	}
	return e.Status == 0 || DefaultRetryPolicy().IsRetryableStatus(e.Status)
}

func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}

func networkError(err error) *APIError {
	return &APIError{
		Message: "network error: unable to reach the server",
		Status:  0,
		Err:     err,
	}
}

func timeoutError(err error) *APIError {
	return &APIError{
		Message: "request timed out",
		Status:  http.StatusRequestTimeout,
		Err:     err,
	}
}

func canceledError(err error, last *APIError) *APIError {
	ae := &APIError{
		Message: "request canceled",
		Status:  0,
		Err:     err,
	}
	if last != nil {
		ae.Body = last.Body
	}
	return ae
}

// エラーレスポンスの本文からメッセージとコードを取り出す。
// {"detail": "..."} / {"detail": {"message","code"}} / {"message","code"} / {"error": ...} に対応。
func responseError(status int, body []byte) *APIError {
	ae := &APIError{
		Status: status,
		Body:   body,
	}

	if gjson.ValidBytes(body) {
		ae.Message = firstString(body, "detail", "detail.message", "message", "error", "error.message")
		ae.Code = firstString(body, "code", "error_code", "detail.code", "error.code")
		if ae.Message == "" {
			// FastAPIのバリデーションエラー: detail: [{msg: ...}]
			if msgs := gjson.GetBytes(body, "detail.#.msg"); msgs.IsArray() {
				parts := make([]string, 0)
				for _, m := range msgs.Array() {
					parts = append(parts, m.String())
				}
				ae.Message = strings.Join(parts, "; ")
			}
		}
	}

	if ae.Message == "" {
		if text := http.StatusText(status); text != "" {
			ae.Message = text
		} else {
			ae.Message = fmt.Sprintf("request failed with status %d", status)
		}
	}
	return ae
}

func firstString(body []byte, paths ...string) string {
	for _, p := range paths {
		r := gjson.GetBytes(body, p)
		if r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
			return strings.TrimSpace(r.Str)
		}
	}
	return ""
}
