package model

// カート本体。
// Subtotal / ItemCount は Items から計算する値で、直接セットしない。
type Cart struct {
	Items     []CartItem `json:"items"`
	Subtotal  int64      `json:"subtotal"`
	ItemCount int64      `json:"item_count"`
	IsOpen    bool       `json:"is_open"`
}

// 空のカート（初期状態）
func EmptyCart() Cart {
	return Cart{Items: []CartItem{}}
}

// FindItemはvariantIDの明細を返す
func (c Cart) FindItem(variantID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.VariantID == variantID {
			return it, true
		}
	}
	return CartItem{}, false
}

// 永続化用の最小スナップショット。
// 商品情報は古くなるので保存しない。
type CartSnapshot struct {
	Items []CartSnapshotItem `json:"items"`
}

type CartSnapshotItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int64  `json:"quantity"`
}

// Snapshotは保存用の形に変換する
func (c Cart) Snapshot() CartSnapshot {
	items := make([]CartSnapshotItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartSnapshotItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}
	return CartSnapshot{Items: items}
}
