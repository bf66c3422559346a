package ports

import (
	"context"

	"github.com/modernshop/shop-api/internal/core/domain"
)

// UserRepository persists users and their embedded carts.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrDuplicateEmail when the
	// email is already registered.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// ReplaceCart overwrites the user's cart only if the stored cart version
	// still equals expectedVersion, then bumps the version. A version mismatch
	// yields domain.ErrCartConflict; a missing user yields domain.ErrUserNotFound.
	ReplaceCart(ctx context.Context, userID string, cart domain.Cart, expectedVersion int64) error
}
