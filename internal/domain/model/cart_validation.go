package model

// POST /cart/validate の明細ごとの結果
type ValidatedCartItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

type CartValidation struct {
	Valid    bool                `json:"valid"`
	Items    []ValidatedCartItem `json:"items"`
	Subtotal int64               `json:"subtotal"`
	Errors   []string            `json:"errors"`
}
