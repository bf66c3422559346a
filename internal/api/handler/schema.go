package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modernshop/shop-api/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
	Path    string              `json:"path,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// --- Request types ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Password only has to be present; an empty one is a wrong password.
type loginRequest struct {
	Email    string  `json:"email"    validate:"required"`
	Password *string `json:"password" validate:"required" swaggertype:"string"`
}

type addItemRequest struct {
	ProductID productID `json:"productId" validate:"required" swaggertype:"string"`
	Title     string    `json:"title"     validate:"required"`
	Price     *float64  `json:"price"     validate:"required"`
	Image     string    `json:"image"     validate:"required"`
	Quantity  *int      `json:"quantity,omitempty"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// productID accepts both JSON strings and numbers; catalog ids are numeric
// but stored as strings.
type productID string

func (p *productID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = productID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("productId must be a string or a number")
	}
	*p = productID(n.String())
	return nil
}

// --- Response types ---

type userSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userSummary `json:"user"`
}

type profileResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Cart      domain.Cart `json:"cart"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type cartResponse struct {
	Items domain.Cart `json:"items"`
	Count int         `json:"count"`
	Total float64     `json:"total"`
}

type cartMutationResponse struct {
	Message string      `json:"message"`
	Cart    domain.Cart `json:"cart"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}
