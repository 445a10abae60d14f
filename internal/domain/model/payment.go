package model

// PayFastへ送るフォーム項目
type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// POST /checkout/payfast のレスポンス。
// 決済ゲートウェイへのリダイレクト先とフォーム項目。
type PaymentRedirect struct {
	OrderID    string      `json:"order_id"`
	PayfastURL string      `json:"payfast_url"`
	FormFields []FormField `json:"form_fields"`
	Total      int64       `json:"total"`
}

// POST /checkout/payfast の明細
type CheckoutLineItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

// POST /checkout/payfast のリクエスト
type CheckoutRequest struct {
	Items             []CheckoutLineItem `json:"items"`
	CustomerEmail     string             `json:"customer_email"`
	CustomerFirstName string             `json:"customer_first_name"`
	CustomerLastName  string             `json:"customer_last_name,omitempty"`
	CustomerPhone     string             `json:"customer_phone,omitempty"`
	ShippingAddress   Address            `json:"shipping_address"`
	BillingAddress    *Address           `json:"billing_address,omitempty"`
	ShippingService   string             `json:"shipping_service,omitempty"`
	ShippingCost      int64              `json:"shipping_cost"`
}
