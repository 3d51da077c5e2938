package models

import "github.com/shopspring/decimal"

// CartItem is a line in a cart or an order. Name, price and image are a
// snapshot taken when the item was added.
type CartItem struct {
	ProductID string          `json:"productId" bson:"productId" validate:"required"`
	Name      string          `json:"name" bson:"name"`
	Price     decimal.Decimal `json:"price" bson:"price"`
	ImageURL  string          `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity" bson:"quantity" validate:"gte=1"`
	Size      string          `json:"size,omitempty" bson:"size,omitempty"`
	Color     string          `json:"color,omitempty" bson:"color,omitempty"`
}

// CartKey identifies a cart line. Two items with the same key are the same line.
type CartKey struct {
	ProductID string `json:"productId" query:"productId"`
	Size      string `json:"size" query:"size"`
	Color     string `json:"color" query:"color"`
}

// Key returns the merge key of the item.
func (i CartItem) Key() CartKey {
	return CartKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MergeCartItem adds item to cart. If a line with the same key already
// exists its quantity is increased and the line is not duplicated.
func MergeCartItem(cart []CartItem, item CartItem) []CartItem {
	for i := range cart {
		if cart[i].Key() == item.Key() {
			cart[i].Quantity += item.Quantity
			return cart
		}
	}
	return append(cart, item)
}

// RemoveCartItem drops the line with the given key. The second result is
// false when no line matched.
func RemoveCartItem(cart []CartItem, key CartKey) ([]CartItem, bool) {
	for i := range cart {
		if cart[i].Key() == key {
			return append(cart[:i:i], cart[i+1:]...), true
		}
	}
	return cart, false
}

// Subtotal sums the line totals of items.
func Subtotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
