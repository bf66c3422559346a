package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/modernshop/shop-api/internal/core/domain"
	"github.com/modernshop/shop-api/internal/core/ports"
	"github.com/modernshop/shop-api/internal/pkg/metrics"
)

const (
	defaultCartWriteAttempts = 3

	cartRetryBase = 5 * time.Millisecond
	cartRetryCap  = 50 * time.Millisecond
)

// errNoChange tells mutate that the operation left the cart as it was and no
// write is needed.
var errNoChange = errors.New("cart unchanged")

type CartService struct {
	repo          ports.UserRepository
	writeAttempts int
	logger        zerolog.Logger
}

// NewCartService returns a CartService. writeAttempts bounds how many times a
// mutation is re-read and re-applied after losing a concurrent write; values
// below 1 fall back to defaultCartWriteAttempts.
func NewCartService(repo ports.UserRepository, writeAttempts int, logger zerolog.Logger) *CartService {
	if writeAttempts < 1 {
		writeAttempts = defaultCartWriteAttempts
	}
	return &CartService{repo: repo, writeAttempts: writeAttempts, logger: logger}
}

// GetCart returns the user's current cart, empty if none.
func (s *CartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if user.Cart == nil {
		return domain.Cart{}, nil
	}
	return user.Cart, nil
}

// AddItem appends a new line or increases the quantity of an existing one.
func (s *CartService) AddItem(ctx context.Context, userID string, in ports.AddItemInput) (domain.Cart, error) {
	if err := validateAddItem(in); err != nil {
		metrics.CartMutationsTotal.WithLabelValues("add", "error").Inc()
		return nil, err
	}

	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	line := domain.CartLine{
		ProductID: in.ProductID,
		Title:     in.Title,
		Price:     *in.Price,
		Image:     in.Image,
		Quantity:  quantity,
	}

	return s.mutate(ctx, userID, "add", func(c domain.Cart) (domain.Cart, error) {
		return c.Add(line)
	})
}

// UpdateQuantity sets the quantity of an existing line to exactly quantity.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (domain.Cart, error) {
	if err := validateQuantity(quantity); err != nil {
		metrics.CartMutationsTotal.WithLabelValues("update", "error").Inc()
		return nil, err
	}

	return s.mutate(ctx, userID, "update", func(c domain.Cart) (domain.Cart, error) {
		return c.SetQuantity(productID, quantity)
	})
}

// RemoveItem drops the line for productID. Removing an absent product is not
// an error and does not write.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, "remove", func(c domain.Cart) (domain.Cart, error) {
		next, removed := c.Remove(productID)
		if !removed {
			return next, errNoChange
		}
		return next, nil
	})
}

// Clear empties the cart unconditionally.
func (s *CartService) Clear(ctx context.Context, userID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, "clear", func(domain.Cart) (domain.Cart, error) {
		return domain.Cart{}, nil
	})
}

// mutate runs a read-modify-write of the user's cart. The write only lands if
// nobody else wrote the cart since it was read; otherwise the cart is re-read
// and apply runs again on the fresh copy, up to writeAttempts times.
func (s *CartService) mutate(ctx context.Context, userID, op string, apply func(domain.Cart) (domain.Cart, error)) (domain.Cart, error) {
	var (
		result  domain.Cart
		attempt int
	)

	backoff := retry.WithMaxRetries(uint64(s.writeAttempts-1),
		retry.WithCappedDuration(cartRetryCap, retry.NewExponential(cartRetryBase)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		user, err := s.repo.FindByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("%s cart item: %w", op, err)
		}

		next, err := apply(user.Cart)
		if err != nil {
			if errors.Is(err, errNoChange) {
				result = next
			}
			return err
		}

		err = s.repo.ReplaceCart(ctx, userID, next, user.CartVersion)
		if errors.Is(err, domain.ErrCartConflict) {
			metrics.CartWriteConflictsTotal.WithLabelValues(op).Inc()
			s.logger.Debug().
				Str("user_id", userID).
				Str("operation", op).
				Int("attempt", attempt).
				Msg("cart write conflict")
			return retry.RetryableError(err)
		}
		if err != nil {
			return fmt.Errorf("%s cart item: %w", op, err)
		}

		result = next
		return nil
	})

	switch {
	case err == nil:
		metrics.CartMutationsTotal.WithLabelValues(op, "success").Inc()
		return result, nil
	case errors.Is(err, errNoChange):
		metrics.CartMutationsTotal.WithLabelValues(op, "noop").Inc()
		return result, nil
	case errors.Is(err, domain.ErrCartConflict):
		s.logger.Warn().Str("user_id", userID).Str("operation", op).Int("attempts", attempt).Msg("cart write conflict, giving up")
	}
	metrics.CartMutationsTotal.WithLabelValues(op, "error").Inc()
	return nil, err
}
