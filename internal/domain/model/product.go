package model

// 商品（カタログAPIから取得）
type Product struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	IsActive    bool      `json:"is_active"`
	Variants    []Variant `json:"variants"`
}

// 商品のバリエーション（サイズ・素材など）。価格はここに持つ。
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	// 最小通貨単位（セント）
	Price    int64 `json:"price"`
	Stock    int64 `json:"stock"`
	IsActive bool  `json:"is_active"`
}

// FindVariantはIDでバリエーションを探す
func (p Product) FindVariant(variantID string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return Variant{}, false
}
