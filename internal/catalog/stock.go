package catalog

type StockStatus string

const (
	StockUntracked  StockStatus = "untracked"
	StockBackorder  StockStatus = "backorder"
	StockOutOfStock StockStatus = "out_of_stock"
	StockLow        StockStatus = "low_stock"
	StockIn         StockStatus = "in_stock"
)

func (s StockStatus) String() string {
	return string(s)
}

const DefaultLowStockThreshold = 5

// StockPolicy classifies stock levels. Quantities in (0, LowStockThreshold]
// are reported as low stock.
type StockPolicy struct {
	LowStockThreshold int
}

func DefaultStockPolicy() StockPolicy {
	return StockPolicy{LowStockThreshold: DefaultLowStockThreshold}
}

func (sp StockPolicy) Status(p *Product) StockStatus {
	switch {
	case !p.TrackQuantity:
		return StockUntracked
	case p.StockQuantity <= 0 && p.ContinueSelling:
		return StockBackorder
	case p.StockQuantity <= 0:
		return StockOutOfStock
	case p.StockQuantity <= sp.LowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// IsInStock reports whether the product can be ordered right now.
func (p *Product) IsInStock() bool {
	return !p.TrackQuantity || p.StockQuantity > 0 || p.ContinueSelling
}

// DecrementStock lowers a tracked quantity, flooring at zero.
// Untracked products and non-positive amounts are left alone.
func (p *Product) DecrementStock(amount int) {
	if !p.TrackQuantity || amount <= 0 {
		return
	}
	p.StockQuantity = max(0, p.StockQuantity-amount)
}

func (p *Product) IncrementStock(amount int) {
	if !p.TrackQuantity || amount <= 0 {
		return
	}
	p.StockQuantity += amount
}
