package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/waconnect/storefront-backend/gateways"
	"github.com/waconnect/storefront-backend/payments"
	"github.com/waconnect/storefront-backend/store"
)

// Stable error kinds exposed at the boundary.
const (
	kindConfiguration = "configuration_error"
	kindNotFound      = "not_found"
	kindGateway       = "external_gateway_error"
	kindVerification  = "verification_error"
	kindInvalid       = "invalid_request"
	kindInternal      = "internal_error"
)

func errorResponse(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(fiber.Map{"errorKind": kind, "message": message})
}

// writeError translates the typed error taxonomy into the stable
// {errorKind, message} boundary shape. Internal details never leak; they
// are logged and replaced with a generic message.
func writeError(c *fiber.Ctx, err error) error {
	var configErr *gateways.ConfigError
	var gatewayErr *gateways.GatewayError

	switch {
	case errors.As(err, &configErr):
		return errorResponse(c, fiber.StatusBadRequest, kindConfiguration, configErr.Error())
	case errors.Is(err, gateways.ErrUnknownGateway):
		return errorResponse(c, fiber.StatusBadRequest, kindConfiguration, "payment gateway not configured for this business")
	case errors.Is(err, store.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, kindNotFound, "not found")
	case errors.As(err, &gatewayErr):
		return errorResponse(c, fiber.StatusBadGateway, kindGateway, gatewayErr.Error())
	case errors.Is(err, payments.ErrVerificationFailed):
		return errorResponse(c, fiber.StatusBadRequest, kindVerification, "payment verification failed")
	case errors.Is(err, payments.ErrInvalidAmount):
		return errorResponse(c, fiber.StatusBadRequest, kindInvalid, err.Error())
	default:
		log.Printf("handlers: %s %s: %v", c.Method(), c.Path(), err)
		return errorResponse(c, fiber.StatusInternalServerError, kindInternal, "internal error")
	}
}
