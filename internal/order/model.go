package order

import (
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (os OrderStatus) String() string {
	return string(os)
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (ps PaymentStatus) String() string {
	return string(ps)
}

func (ps PaymentStatus) Valid() bool {
	switch ps {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Address is a copy of the client's address taken when the order is placed.
// Later edits to the client's address book do not change it.
type Address struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone,omitempty"`
	Country    string `json:"country"`
	City       string `json:"city"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code,omitempty"`
}

type OrderItem struct {
	ID        int64 `json:"id" db:"id"`
	OrderID   int64 `json:"order_id" db:"order_id"`
	ProductID int64 `json:"product_id" db:"product_id"`
	// Name, SKU and UnitPrice are snapshots of the product at order time.
	ProductName string    `json:"product_name" db:"product_name"`
	ProductSKU  string    `json:"product_sku" db:"product_sku"`
	UnitPrice   int64     `json:"unit_price" db:"unit_price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	TotalPrice  int64     `json:"total_price" db:"total_price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Order struct {
	ID              int64         `json:"id" db:"id"`
	OrderNumber     string        `json:"order_number" db:"order_number"`
	Status          OrderStatus   `json:"status" db:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status" db:"payment_status"`
	Items           []OrderItem   `json:"items" db:"-"`
	Subtotal        int64         `json:"subtotal" db:"subtotal"`
	TaxAmount       int64         `json:"tax_amount" db:"tax_amount"`
	ShippingAmount  int64         `json:"shipping_amount" db:"shipping_amount"`
	DiscountAmount  int64         `json:"discount_amount" db:"discount_amount"`
	TotalAmount     int64         `json:"total_amount" db:"total_amount"`
	BillingAddress  *Address      `json:"billing_address,omitempty" db:"billing_address"`
	ShippingAddress *Address      `json:"shipping_address,omitempty" db:"shipping_address"`
	ShippedAt       *time.Time    `json:"shipped_at,omitempty" db:"shipped_at"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}
