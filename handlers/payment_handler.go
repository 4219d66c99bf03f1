package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/waconnect/storefront-backend/gateways"
	"github.com/waconnect/storefront-backend/models"
	"github.com/waconnect/storefront-backend/payments"
	"github.com/waconnect/storefront-backend/store"
)

// PaymentHandler exposes the checkout-facing payment endpoints. Payment
// paths always load the business from the store (the cache serialization
// strips credential columns).
type PaymentHandler struct {
	Businesses store.BusinessSource
	Orch       *payments.Orchestrator
}

func NewPaymentHandler(businesses store.BusinessSource, orch *payments.Orchestrator) *PaymentHandler {
	return &PaymentHandler{Businesses: businesses, Orch: orch}
}

func (h *PaymentHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// CreatePayment starts a payment attempt for an order. The response body is
// the adapter's client payload: remote order id + key, checkout URL, form
// fields, or base64 payload + checksum, depending on the gateway.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	biz, err := h.Businesses.FindBySubdomain(c.Context(), c.Params("subdomain"))
	if err != nil {
		return writeError(c, err)
	}

	var req models.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, kindInvalid, "invalid request body")
	}
	if req.OrderID == "" {
		return errorResponse(c, fiber.StatusBadRequest, kindInvalid, "order_id is required")
	}

	payload, err := h.Orch.Create(c.Context(), biz, c.Params("gateway"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(payload)
}

// VerifyRazorpay handles the browser-posted checkout confirmation.
func (h *PaymentHandler) VerifyRazorpay(c *fiber.Ctx) error {
	biz, err := h.Businesses.FindBySubdomain(c.Context(), c.Params("subdomain"))
	if err != nil {
		return writeError(c, err)
	}

	var req models.RazorpayVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, kindInvalid, "invalid request body")
	}

	tx, _, err := h.Orch.Verify(c.Context(), biz, models.GatewayRazorpay, gateways.VerifyInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"status": tx.Status})
}

// StripeStatus polls the checkout session and settles the transaction when
// the session has been paid.
func (h *PaymentHandler) StripeStatus(c *fiber.Ctx) error {
	biz, err := h.Businesses.FindBySubdomain(c.Context(), c.Params("subdomain"))
	if err != nil {
		return writeError(c, err)
	}

	tx, result, err := h.Orch.Verify(c.Context(), biz, models.GatewayStripe, gateways.VerifyInput{
		GatewayOrderID: c.Params("sessionId"),
	})
	if err != nil {
		return writeError(c, err)
	}

	resp := fiber.Map{
		"status":   tx.Status,
		"amount":   tx.Amount,
		"currency": tx.Currency,
	}
	if result != nil {
		for k, v := range result.Details {
			resp[k] = v
		}
	}
	return c.JSON(resp)
}

// TransactionStatus returns the current state of a payment attempt, matched
// by internal id or gateway order id.
func (h *PaymentHandler) TransactionStatus(c *fiber.Ctx) error {
	tx, err := h.Orch.GetStatus(c.Context(), c.Params("transactionId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":   tx.Status,
		"amount":   tx.Amount,
		"gateway":  tx.Gateway,
		"order_id": tx.OrderID,
	})
}

// PhonePeWebhook receives the processor-initiated callback: the same base64
// payload/checksum structure used at creation, checksum in X-VERIFY.
func (h *PaymentHandler) PhonePeWebhook(c *fiber.Ctx) error {
	biz, err := h.Businesses.FindBySubdomain(c.Context(), c.Params("subdomain"))
	if err != nil {
		return writeError(c, err)
	}

	raw, cb, err := gateways.ParsePhonePeCallback(c.Body())
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, kindInvalid, "invalid callback payload")
	}

	tx, _, err := h.Orch.Verify(c.Context(), biz, models.GatewayPhonePe, gateways.VerifyInput{
		GatewayOrderID: cb.Data.MerchantTransactionID,
		Signature:      c.Get("X-Verify"),
		Body:           []byte(raw),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"status": tx.Status})
}

// PayUWebhook receives PayU's redirect-POST result and verifies the hash
// over the posted form fields.
func (h *PaymentHandler) PayUWebhook(c *fiber.Ctx) error {
	biz, err := h.Businesses.FindBySubdomain(c.Context(), c.Params("subdomain"))
	if err != nil {
		return writeError(c, err)
	}

	fields := map[string]string{}
	for _, k := range []string{"txnid", "amount", "productinfo", "firstname", "email", "status", "hash", "mihpayid"} {
		fields[k] = c.FormValue(k)
	}
	if fields["txnid"] == "" {
		return errorResponse(c, fiber.StatusBadRequest, kindInvalid, "txnid is required")
	}

	tx, _, err := h.Orch.Verify(c.Context(), biz, models.GatewayPayU, gateways.VerifyInput{
		GatewayOrderID: fields["txnid"],
		Fields:         fields,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"status": tx.Status})
}
