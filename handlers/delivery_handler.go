package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/waconnect/storefront-backend/cache"
	"github.com/waconnect/storefront-backend/geo"
	"github.com/waconnect/storefront-backend/models"
	"github.com/waconnect/storefront-backend/store"
)

// DeliveryHandler serves the public storefront endpoints that only need the
// sanitized business record; these go through the redis cache.
type DeliveryHandler struct {
	Businesses store.BusinessSource
	Cache      *cache.BusinessCache
}

func NewDeliveryHandler(businesses store.BusinessSource, c *cache.BusinessCache) *DeliveryHandler {
	return &DeliveryHandler{Businesses: businesses, Cache: c}
}

func (h *DeliveryHandler) business(c *fiber.Ctx) (*models.Business, error) {
	subdomain := c.Params("subdomain")
	if biz, ok := h.Cache.Get(c.Context(), subdomain); ok {
		return biz, nil
	}
	biz, err := h.Businesses.FindBySubdomain(c.Context(), subdomain)
	if err != nil {
		return nil, err
	}
	h.Cache.Set(c.Context(), biz)
	return biz, nil
}

// CalculateDelivery quotes the delivery charge for a customer location.
func (h *DeliveryHandler) CalculateDelivery(c *fiber.Ctx) error {
	biz, err := h.business(c)
	if err != nil {
		return writeError(c, err)
	}

	var req models.DeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, kindInvalid, "invalid request body")
	}
	if req.CustomerLatitude == nil || req.CustomerLongitude == nil {
		return errorResponse(c, fiber.StatusUnprocessableEntity, kindInvalid, "customer_latitude and customer_longitude are required")
	}

	return c.JSON(geo.QuoteDelivery(biz, *req.CustomerLatitude, *req.CustomerLongitude))
}

// GetBusiness returns the sanitized public business record; credential
// columns are never serialized.
func (h *DeliveryHandler) GetBusiness(c *fiber.Ctx) error {
	biz, err := h.business(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(biz)
}
