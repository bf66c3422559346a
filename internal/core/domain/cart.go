package domain

import "math"

// CartLine is one product/quantity entry in a user's cart. Title, Price and
// Image are a snapshot of the catalog entry taken when the product was added.
type CartLine struct {
	ProductID string  `json:"productId" bson:"product_id"`
	Title     string  `json:"title" bson:"title"`
	Price     float64 `json:"price" bson:"price"`
	Image     string  `json:"image" bson:"image"`
	Quantity  int     `json:"quantity" bson:"quantity"`
}

// Cart is the ordered list of lines owned by one user. At most one line
// exists per ProductID.
//
// Every operation returns a new slice and leaves the receiver untouched, so a
// failed write can be retried from the originally loaded cart.
type Cart []CartLine

// Index returns the position of productID in the cart, or -1.
func (c Cart) Index(productID string) int {
	for i, line := range c {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges line into the cart: an existing product has its quantity
// increased by line.Quantity, otherwise the line is appended. A merged
// quantity that would overflow, or a total that would no longer be finite,
// yields a *ValidationError.
func (c Cart) Add(line CartLine) (Cart, error) {
	out := c.clone()
	if i := out.Index(line.ProductID); i >= 0 {
		if line.Quantity > 0 && out[i].Quantity > math.MaxInt-line.Quantity {
			return nil, NewValidationError(FieldError{Field: "quantity", Message: "Quantity is too large"})
		}
		out[i].Quantity += line.Quantity
	} else {
		out = append(out, line)
	}
	if !out.countFits() {
		return nil, NewValidationError(FieldError{Field: "quantity", Message: "Quantity is too large"})
	}
	if !out.totalIsFinite() {
		return nil, NewValidationError(FieldError{Field: "price", Message: "Cart total is too large"})
	}
	return out, nil
}

// SetQuantity replaces the quantity of an existing line.
func (c Cart) SetQuantity(productID string, quantity int) (Cart, error) {
	i := c.Index(productID)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}
	out := c.clone()
	out[i].Quantity = quantity
	if !out.countFits() {
		return nil, NewValidationError(FieldError{Field: "quantity", Message: "Quantity is too large"})
	}
	if !out.totalIsFinite() {
		return nil, NewValidationError(FieldError{Field: "quantity", Message: "Cart total is too large"})
	}
	return out, nil
}

// Remove drops the line for productID. The boolean reports whether anything
// was removed.
func (c Cart) Remove(productID string) (Cart, bool) {
	i := c.Index(productID)
	if i < 0 {
		return c.clone(), false
	}
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...), true
}

// Count is the total number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, line := range c {
		n += line.Quantity
	}
	return n
}

// Total is the sum of price * quantity across all lines.
func (c Cart) Total() float64 {
	var total float64
	for _, line := range c {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

// countFits reports whether Count can be computed without overflowing.
func (c Cart) countFits() bool {
	n := 0
	for _, line := range c {
		if line.Quantity > math.MaxInt-n {
			return false
		}
		n += line.Quantity
	}
	return true
}

func (c Cart) totalIsFinite() bool {
	t := c.Total()
	return !math.IsInf(t, 0) && !math.IsNaN(t)
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
