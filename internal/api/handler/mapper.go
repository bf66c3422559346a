package handler

import (
	"strings"

	"github.com/modernshop/shop-api/internal/core/domain"
	"github.com/modernshop/shop-api/internal/core/ports"
)

// --- Request → Service input ---

func toAddItemInput(req addItemRequest) ports.AddItemInput {
	return ports.AddItemInput{
		ProductID: strings.TrimSpace(string(req.ProductID)),
		Title:     strings.TrimSpace(req.Title),
		Price:     req.Price,
		Image:     strings.TrimSpace(req.Image),
		Quantity:  req.Quantity,
	}
}

// --- Domain → Response ---

func toUserSummary(u *domain.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toProfileResponse(u *domain.User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Cart:      nonNilCart(u.Cart),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toCartResponse(c domain.Cart) cartResponse {
	return cartResponse{Items: nonNilCart(c), Count: c.Count(), Total: c.Total()}
}

func toCartMutationResponse(message string, c domain.Cart) cartMutationResponse {
	return cartMutationResponse{Message: message, Cart: nonNilCart(c)}
}

// nonNilCart makes empty carts render as [] rather than null.
func nonNilCart(c domain.Cart) domain.Cart {
	if c == nil {
		return domain.Cart{}
	}
	return c
}
