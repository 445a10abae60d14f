package model

// 配送先・請求先住所
type Address struct {
	//番地など
	Line1 string `json:"line1"`

	//建物名など
	Line2 string `json:"line2,omitempty"`

	Suburb string `json:"suburb,omitempty"`

	//市区町村
	City string `json:"city"`

	//州・県
	Province string `json:"province"`

	//郵便番号
	PostalCode string `json:"postal_code"`

	Country string `json:"country,omitempty"`
}
