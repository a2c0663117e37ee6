package domain

import "errors"

var ErrLineItemNotFound = errors.New("line item not found in cart")

// LineItem is one product entry in the cart with its quantity.
type LineItem struct {
	ProductID string  `json:"productId"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
}

func (li LineItem) Subtotal() int64 {
	return li.Product.UnitPrice * int64(li.Quantity)
}

// Cart holds at most one line item per product, in insertion order.
// Stored quantities are always >= 1; the total is always derived from
// the current items, never cached.
type Cart struct {
	items []LineItem
}

func NewCart() *Cart {
	return &Cart{}
}

// RestoreCart rebuilds a cart from persisted line items. Lines with a
// quantity below 1 are dropped.
func RestoreCart(items []LineItem) *Cart {
	c := &Cart{}
	for _, li := range items {
		if li.Quantity < 1 {
			continue
		}
		c.items = append(c.items, li)
	}
	return c
}

// AddItem increments the quantity of an existing line for the product,
// or appends a new line with quantity 1.
func (c *Cart) AddItem(p Product) {
	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, LineItem{ProductID: p.ID, Product: p, Quantity: 1})
}

// SetQuantity sets the line quantity exactly. A quantity of zero or less
// removes the line. Returns ErrLineItemNotFound when no line exists for
// the product.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	for i := range c.items {
		if c.items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
		c.items[i].Quantity = quantity
		return nil
	}
	return ErrLineItemNotFound
}

// RemoveItem deletes the line for the product. Returns false when the
// product is not in the cart.
func (c *Cart) RemoveItem(productID string) bool {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.items = nil
}

// Total is the sum of unitPrice times quantity over the current lines.
func (c *Cart) Total() int64 {
	var sum int64
	for _, li := range c.items {
		sum += li.Subtotal()
	}
	return sum
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}
