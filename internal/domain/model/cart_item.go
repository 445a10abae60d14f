package model

// カートの明細
// 追加時点の商品/バリエーションをキャッシュとして持つ。
type CartItem struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id"`
	Quantity  int64   `json:"quantity"`
	Product   Product `json:"product"`
	Variant   Variant `json:"variant"`
}

// LineTotalは単価×数量
func (it CartItem) LineTotal() int64 {
	return it.Variant.Price * it.Quantity
}
