package catalog

import "time"

// Product amounts are integers in minor currency units.
type Product struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	SKU   string `json:"sku" db:"sku"`
	Price int64  `json:"price" db:"price"`
	// ComparePrice is the manually set "was" price shown struck through.
	ComparePrice *int64 `json:"compare_price,omitempty" db:"compare_price"`
	// FinalPrice is Price minus the active promotion discount.
	FinalPrice      int64     `json:"final_price" db:"final_price"`
	StockQuantity   int       `json:"stock_quantity" db:"stock_quantity"`
	TrackQuantity   bool      `json:"track_quantity" db:"track_quantity"`
	ContinueSelling bool      `json:"continue_selling" db:"continue_selling"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
