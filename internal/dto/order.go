package dto

import (
	"time"

	"github.com/birkolabs/vitrin/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
// Product name/price/total are the creation-time snapshot; the
// currentProduct* fields carry the catalog row as it looks today.
type OrderResponse struct {
	ID           int64   `json:"id"`
	OrderNumber  string  `json:"orderNumber"`
	ProductID    int64   `json:"productId,omitempty"`
	ProductName  string  `json:"productName"`
	ProductPrice float64 `json:"productPrice"`
	Quantity     int     `json:"quantity"`
	TotalAmount  float64 `json:"totalAmount"`

	CustomerFirstName  string `json:"customerFirstName"`
	CustomerLastName   string `json:"customerLastName"`
	NationalID         string `json:"nationalId"`
	CustomerEmail      string `json:"customerEmail"`
	CustomerPhone      string `json:"customerPhone"`
	CustomerAddress    string `json:"customerAddress"`
	CustomerCity       string `json:"customerCity"`
	CustomerDistrict   string `json:"customerDistrict"`
	CustomerPostalCode string `json:"customerPostalCode,omitempty"`

	PaymentStatus     string `json:"paymentStatus"`
	OrderStatus       string `json:"orderStatus"`
	CheckoutSessionID string `json:"checkoutSessionId,omitempty"`

	CurrentProductName  string `json:"currentProductName,omitempty"`
	CurrentProductImage string `json:"currentProductImage,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewOrderResponse maps an entity to its transport shape.
func NewOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:                  o.ID,
		OrderNumber:         o.Number,
		ProductID:           o.ProductID,
		ProductName:         o.ProductName,
		ProductPrice:        o.ProductPrice,
		Quantity:            o.Quantity,
		TotalAmount:         o.TotalAmount,
		CustomerFirstName:   o.CustomerFirstName,
		CustomerLastName:    o.CustomerLastName,
		NationalID:          o.NationalID,
		CustomerEmail:       o.CustomerEmail,
		CustomerPhone:       o.CustomerPhone,
		CustomerAddress:     o.CustomerAddress,
		CustomerCity:        o.CustomerCity,
		CustomerDistrict:    o.CustomerDistrict,
		CustomerPostalCode:  o.CustomerPostalCode,
		PaymentStatus:       o.PaymentStatus,
		OrderStatus:         o.OrderStatus,
		CheckoutSessionID:   o.CheckoutSessionID,
		CurrentProductName:  o.CurrentProductName,
		CurrentProductImage: o.CurrentProductImage,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

// NewOrderResponses maps a slice of entities.
func NewOrderResponses(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}
