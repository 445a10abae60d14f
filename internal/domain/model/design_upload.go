package model

// DXFの外接矩形（mm）
type BoundingBox struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	MaxX   float64 `json:"max_x"`
	MaxY   float64 `json:"max_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type DXFInfo struct {
	EntityCount int          `json:"entity_count"`
	Layers      []string     `json:"layers"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
}

// POST /uploads/design のレスポンス
type DesignUpload struct {
	FileID            string   `json:"file_id"`
	FileURL           string   `json:"file_url"`
	ThumbnailURL      string   `json:"thumbnail_url,omitempty"`
	IsValid           bool     `json:"is_valid"`
	ValidationMessage string   `json:"validation_message,omitempty"`
	DXFInfo           *DXFInfo `json:"dxf_info,omitempty"`
}

// POST /uploads/design/validate-dxf のレスポンス
type DXFValidation struct {
	IsValid     bool         `json:"is_valid"`
	EntityCount int          `json:"entity_count"`
	Layers      []string     `json:"layers"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
	Warnings    []string     `json:"warnings"`
	Errors      []string     `json:"errors"`
}
