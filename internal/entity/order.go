package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order statuses. The two fields move independently; there is no
// enforced transition graph between them (admin discretion).
const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentCompleted  = "completed"

	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderCompleted  = "completed"
)

// Order captures a checkout. Product name/price/total are a snapshot
// taken at creation time and stay frozen even if the catalog row is
// edited afterwards.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64   `bun:",pk,autoincrement"`
	Number       string  `bun:"number,notnull,unique"`
	ProductID    int64   `bun:"product_id,nullzero"`
	ProductName  string  `bun:"product_name,notnull"`
	ProductPrice float64 `bun:"product_price,notnull"`
	Quantity     int     `bun:"quantity,notnull"`
	TotalAmount  float64 `bun:"total_amount,notnull"`

	CustomerFirstName  string `bun:"customer_first_name,notnull"`
	CustomerLastName   string `bun:"customer_last_name,notnull"`
	NationalID         string `bun:"national_id,notnull"`
	CustomerEmail      string `bun:"customer_email,notnull"`
	CustomerPhone      string `bun:"customer_phone,notnull"`
	CustomerAddress    string `bun:"customer_address,notnull"`
	CustomerCity       string `bun:"customer_city,notnull"`
	CustomerDistrict   string `bun:"customer_district,notnull"`
	CustomerPostalCode string `bun:"customer_postal_code"`

	PaymentStatus     string `bun:"payment_status,notnull,default:'pending'"`
	OrderStatus       string `bun:"order_status,notnull,default:'pending'"`
	CheckoutSessionID string `bun:"checkout_session_id,nullzero"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`

	// Display-only: current catalog name/image joined at read time.
	// The snapshot columns above remain authoritative.
	CurrentProductName  string `bun:"current_product_name,scanonly"`
	CurrentProductImage string `bun:"current_product_image,scanonly"`
}
