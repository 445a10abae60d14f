package model

import "time"

// ブラウザのlocalStorage相当をDBに置く場合の1行。
type LocalState struct {
	Key       string    `gorm:"primaryKey;type:varchar(255)" json:"key"`
	Value     []byte    `gorm:"type:bytea;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
