package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modernshop/shop-api/internal/core/ports"
)

// CartHandler serves the authenticated user's cart.
type CartHandler struct {
	service ports.CartService
}

func NewCartHandler(service ports.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// Get handles GET /api/cart.
//
// @Summary      Get the current cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	cart, err := h.service.GetCart(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

// Add handles POST /api/cart.
//
// @Summary      Add a product to the cart
// @Description  Adds a new line, or increases the quantity when the product is already in the cart.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addItemRequest  true  "Product snapshot and quantity (default 1)"
// @Success      200   {object}  cartMutationResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /cart [post]
func (h *CartHandler) Add(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.service.AddItem(c.Request().Context(), user.ID, toAddItemInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartMutationResponse("Item added to cart successfully", cart))
}

// UpdateQuantity handles PUT /api/cart/:productId.
//
// @Summary      Set the quantity of a cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path      string                 true  "Product id"
// @Param        body       body      updateQuantityRequest  true  "New quantity (>= 1)"
// @Success      200        {object}  cartMutationResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      409        {object}  errorResponse
// @Failure      500        {object}  errorResponse
// @Router       /cart/{productId} [put]
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req updateQuantityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.service.UpdateQuantity(c.Request().Context(), user.ID, c.Param("productId"), *req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartMutationResponse("Cart item updated successfully", cart))
}

// Remove handles DELETE /api/cart/:productId. Removing a product that is not
// in the cart succeeds and returns the cart unchanged.
//
// @Summary      Remove a product from the cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path      string  true  "Product id"
// @Success      200        {object}  cartMutationResponse
// @Failure      401        {object}  errorResponse
// @Failure      409        {object}  errorResponse
// @Failure      500        {object}  errorResponse
// @Router       /cart/{productId} [delete]
func (h *CartHandler) Remove(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	cart, err := h.service.RemoveItem(c.Request().Context(), user.ID, c.Param("productId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartMutationResponse("Item removed from cart successfully", cart))
}

// Clear handles DELETE /api/cart.
//
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartMutationResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /cart [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	cart, err := h.service.Clear(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartMutationResponse("Cart cleared successfully", cart))
}
