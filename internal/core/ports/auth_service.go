package ports

import (
	"context"
	"time"

	"github.com/modernshop/shop-api/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}

// SessionIssuer issues and verifies stateless bearer tokens.
type SessionIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// UserLookup is the read-only slice of UserRepository the auth gate needs.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
