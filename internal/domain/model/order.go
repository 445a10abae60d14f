package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// GET /orders/{id} のレスポンス
type Order struct {
	ID              string      `json:"id"`
	Status          OrderStatus `json:"status"`
	CustomerEmail   string      `json:"customer_email"`
	Subtotal        int64       `json:"subtotal"`
	ShippingCost    int64       `json:"shipping_cost"`
	Total           int64       `json:"total"`
	Items           []OrderItem `json:"items"`
	ShippingAddress Address     `json:"shipping_address"`
	ShippingService string      `json:"shipping_service,omitempty"`
	WaybillNumber   string      `json:"waybill_number,omitempty"`
	TrackingURL     string      `json:"tracking_url,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}
