package domain

import "time"

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// Order is a placed customer order. Amounts are Colombian pesos.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Status          string      `json:"status"`
	Items           []OrderItem `json:"items"`
	SubtotalAmount  int64       `json:"subtotal_amount"`
	ShippingAmount  int64       `json:"shipping_amount"`
	TotalAmount     int64       `json:"total_amount"`
	Currency        string      `json:"currency"`
	ShippingAddress *Address    `json:"shipping_address,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	CanceledReason  string      `json:"canceled_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order. Product fields are copied from the
// cart snapshot at checkout time, so later catalog edits do not change
// placed orders.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	ImageURL  string `json:"image_url"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns the total price for this line item.
func (i *OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Address is the delivery address captured at checkout.
type Address struct {
	FullName    string `json:"full_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	Department  string `json:"department"`
	PostalCode  string `json:"postal_code,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCanceled},
		OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCanceled},
		OrderStatusShipped:   {OrderStatusDelivered},
		OrderStatusDelivered: {},
		OrderStatusCanceled:  {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
