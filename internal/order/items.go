package order

import (
	"errors"
	"fmt"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

func LineTotal(unitPrice int64, quantity int) int64 {
	return unitPrice * int64(quantity)
}

// NewOrderItem builds a line item with its total already calculated.
func NewOrderItem(productID int64, name, sku string, unitPrice int64, quantity int) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, fmt.Errorf("%w: got %d for product %d", ErrInvalidQuantity, quantity, productID)
	}
	if unitPrice < 0 {
		return OrderItem{}, fmt.Errorf("unit price for product %d cannot be negative", productID)
	}

	return OrderItem{
		ProductID:   productID,
		ProductName: name,
		ProductSKU:  sku,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		TotalPrice:  LineTotal(unitPrice, quantity),
	}, nil
}

// UpdateQuantity changes the quantity and total. The unit price snapshot is kept.
func (i *OrderItem) UpdateQuantity(quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	i.Quantity = quantity
	i.TotalPrice = LineTotal(i.UnitPrice, quantity)
	return nil
}

// TotalItems sums item quantities, not the number of lines.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// RecalculateTotals derives Subtotal from the items and TotalAmount from
// Subtotal + TaxAmount + ShippingAmount - DiscountAmount.
func (o *Order) RecalculateTotals() {
	var subtotal int64
	for _, item := range o.Items {
		subtotal += item.TotalPrice
	}
	o.Subtotal = subtotal
	o.TotalAmount = o.Subtotal + o.TaxAmount + o.ShippingAmount - o.DiscountAmount
}

func (o *Order) item(itemID int64) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}
