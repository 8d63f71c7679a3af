package promotion

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (dt DiscountType) String() string {
	return string(dt)
}

type Promotion struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
	EndsAt   time.Time `json:"ends_at" db:"ends_at"`
	// DiscountValue is a percent for DiscountPercentage and an amount in minor
	// currency units for DiscountFixed.
	DiscountType  DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue int64        `json:"discount_value" db:"discount_value"`
	IsActive      bool         `json:"is_active" db:"is_active"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}
