package model

// 配送見積もり（外部配送サービスの結果）
type ShippingQuote struct {
	Service       string `json:"service"`
	Carrier       string `json:"carrier,omitempty"`
	Cost          int64  `json:"cost"`
	EstimatedDays int    `json:"estimated_days,omitempty"`
}
