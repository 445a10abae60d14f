package model

// 入力途中のチェックアウト情報。
// 入力のたびに上書きされ、ローカルに保存される。
type CheckoutDraft struct {
	Email          string  `json:"email"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Phone          string  `json:"phone"`
	Address        Address `json:"address"`
	BillingAddress Address `json:"billingAddress"`
	SameAsDelivery bool    `json:"sameAsDelivery"`

	// 見積もりは古くなるので保存しない
	SelectedShippingQuote *ShippingQuote `json:"-"`
}

// 新規ドラフト（請求先は配送先と同じ）
func NewCheckoutDraft() CheckoutDraft {
	return CheckoutDraft{SameAsDelivery: true}
}
