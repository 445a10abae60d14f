package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/validator"
)

var (
	// カートが空のままチェックアウトへ進もうとした
	ErrCartEmpty = errors.New("cart is empty")

	// 商品/バリエーションがカタログに無い
	ErrVariantNotFound = errors.New("variant not found")

	// 同じセッションで送信中
	ErrSubmitInProgress = errors.New("checkout submission in progress")
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// FieldError はチェックアウトの入力不足（ネットワークには出ない）。
type FieldError struct {
	Fields []validator.FieldIssue
}

func (e *FieldError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "checkout incomplete: " + strings.Join(names, ", ")
}

func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	ok := errors.As(err, &fe)
	return fe, ok
}

// UploadValidationError はデザインファイルの構造的な問題
type UploadValidationError struct {
	Filename string
	Message  string
	Problems []string
	// サーバー側で判定された（送信前チェックではない）
	Remote bool
}

func (e *UploadValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("invalid design %q: %s", e.Filename, e.Message)
	}
	return fmt.Sprintf("invalid design %q: %s", e.Filename, strings.Join(e.Problems, "; "))
}

func AsUploadValidationError(err error) (*UploadValidationError, bool) {
	var ue *UploadValidationError
	ok := errors.As(err, &ue)
	return ue, ok
}

// 送信失敗の分類
type FailureCategory string

const (
	FailureNetwork   FailureCategory = "network"
	FailureInventory FailureCategory = "inventory"
	FailureUnknown   FailureCategory = "unknown"
)

// CheckoutFailure は分類済みの送信エラー。Message は画面にそのまま出せる文言。
type CheckoutFailure struct {
	Category FailureCategory `json:"category"`
	Message  string          `json:"message"`
	Err      error           `json:"-"`
}

func (e *CheckoutFailure) Error() string {
	return fmt.Sprintf("checkout failed (%s): %s", e.Category, e.Message)
}

func (e *CheckoutFailure) Unwrap() error {
	return e.Err
}

func AsCheckoutFailure(err error) (*CheckoutFailure, bool) {
	var cf *CheckoutFailure
	ok := errors.As(err, &cf)
	return cf, ok
}

// HTTPStatus はハンドラ向けのステータス
func (e *CheckoutFailure) HTTPStatus() int {
	switch e.Category {
	case FailureNetwork:
		return http.StatusBadGateway
	case FailureInventory:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
