package validator

import (
	"regexp"
	"strings"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
)

// 簡易メール形式（local@domain.tld）。RFC準拠ではない。
var emailLike = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// 未充足のチェック項目
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	FieldEmail           = "email"
	FieldFirstName       = "firstName"
	FieldDeliveryAddress = "address"
	FieldBillingAddress  = "billingAddress"
)

// CheckoutIssues は注文確定に足りない項目を返す（空なら確定可能）。
//
//	ready = email非空 AND email形式 AND firstName非空
//	        AND 配送先が有効 AND (請求先=配送先 OR 請求先が有効)
func CheckoutIssues(d model.CheckoutDraft) []FieldIssue {
	issues := []FieldIssue{}

	email := strings.TrimSpace(d.Email)
	if email == "" {
		issues = append(issues, FieldIssue{Field: FieldEmail, Message: "email is required"})
	} else if !IsEmailLike(email) {
		issues = append(issues, FieldIssue{Field: FieldEmail, Message: "email is invalid"})
	}

	if strings.TrimSpace(d.FirstName) == "" {
		issues = append(issues, FieldIssue{Field: FieldFirstName, Message: "first name is required"})
	}

	if !IsAddressValid(d.Address) {
		issues = append(issues, FieldIssue{Field: FieldDeliveryAddress, Message: "delivery address is incomplete"})
	}

	if !d.SameAsDelivery && !IsAddressValid(d.BillingAddress) {
		issues = append(issues, FieldIssue{Field: FieldBillingAddress, Message: "billing address is incomplete"})
	}

	return issues
}

// IsCheckoutReady は確定ゲート
func IsCheckoutReady(d model.CheckoutDraft) bool {
	return len(CheckoutIssues(d)) == 0
}

func IsEmailLike(s string) bool {
	return emailLike.MatchString(s)
}

// 住所の必須項目: 番地・市区町村・州・郵便番号
func IsAddressValid(a model.Address) bool {
	return strings.TrimSpace(a.Line1) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.Province) != "" &&
		strings.TrimSpace(a.PostalCode) != ""
}
