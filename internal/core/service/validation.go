package service

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/modernshop/shop-api/internal/core/domain"
	"github.com/modernshop/shop-api/internal/core/ports"
)

const (
	nameMinLen       = 2
	nameMaxLen       = 50
	passwordMinLen   = 6
	passwordMaxBytes = 72 // bcrypt ignores input beyond this length
)

var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func validateRegistration(name, email, password string) error {
	ve := domain.NewValidationError()

	if n := utf8.RuneCountInString(name); n < nameMinLen || n > nameMaxLen {
		ve.Add("name", "Name must be between 2 and 50 characters")
	}
	if !validEmail(email) {
		ve.Add("email", "Please enter a valid email")
	}
	switch {
	case utf8.RuneCountInString(password) < passwordMinLen:
		ve.Add("password", "Password must be at least 6 characters long")
	case len(password) > passwordMaxBytes:
		ve.Add("password", "Password must be at most 72 bytes long")
	}

	return ve.OrNil()
}

func validateLogin(email string) error {
	if !validEmail(email) {
		return domain.NewValidationError(domain.FieldError{Field: "email", Message: "Please enter a valid email"})
	}
	return nil
}

func validateAddItem(in ports.AddItemInput) error {
	ve := domain.NewValidationError()

	if strings.TrimSpace(in.ProductID) == "" {
		ve.Add("productId", "productId is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		ve.Add("title", "title is required")
	}
	switch {
	case in.Price == nil:
		ve.Add("price", "price is required")
	case math.IsInf(*in.Price, 0) || math.IsNaN(*in.Price):
		ve.Add("price", "price must be a finite number")
	case *in.Price < 0:
		ve.Add("price", "price must not be negative")
	}
	if strings.TrimSpace(in.Image) == "" {
		ve.Add("image", "image is required")
	}
	if in.Quantity != nil && *in.Quantity < 1 {
		ve.Add("quantity", "Quantity must be at least 1")
	}

	return ve.OrNil()
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return domain.NewValidationError(domain.FieldError{Field: "quantity", Message: "Quantity must be at least 1"})
	}
	return nil
}
