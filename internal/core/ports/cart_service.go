package ports

import (
	"context"

	"github.com/modernshop/shop-api/internal/core/domain"
)

// AddItemInput is the DTO passed from the transport layer to CartService.AddItem.
// Price and Quantity are pointers so that omitted values can be told apart
// from zero; an omitted Quantity defaults to 1.
type AddItemInput struct {
	ProductID string
	Title     string
	Price     *float64
	Image     string
	Quantity  *int
}

// CartService mutates the cart of the authenticated user only.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, userID string, in AddItemInput) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error)
	Clear(ctx context.Context, userID string) (domain.Cart, error)
}
