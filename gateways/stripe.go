package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/waconnect/storefront-backend/models"
)

const stripeAPIBaseURL = "https://api.stripe.com/v1"

// StripeAdapter creates a hosted checkout session and settles by polling
// the session status endpoint; Stripe involves no locally computed
// signature.
type StripeAdapter struct {
	Client     *http.Client
	BaseURL    string // overridable for tests
	AppBaseURL string // success/cancel redirect target
}

func NewStripeAdapter(client *http.Client, appBaseURL string) *StripeAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &StripeAdapter{Client: client, BaseURL: stripeAPIBaseURL, AppBaseURL: appBaseURL}
}

func (a *StripeAdapter) Name() string { return models.GatewayStripe }

func (a *StripeAdapter) Create(ctx context.Context, creds Credentials, req CreateRequest) (*CreateResult, error) {
	if creds.StripeSecretKey == "" {
		return nil, &ConfigError{Gateway: a.Name(), Reason: "secret key is required"}
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", fmt.Sprintf("%s/%s/payment/success?session_id={CHECKOUT_SESSION_ID}", a.AppBaseURL, req.Subdomain))
	form.Set("cancel_url", fmt.Sprintf("%s/%s/payment/cancel", a.AppBaseURL, req.Subdomain))
	form.Set("customer_email", req.Customer.Email)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(req.Currency))
	form.Set("line_items[0][price_data][unit_amount]", MajorUnits(req.Amount))
	form.Set("line_items[0][price_data][product_data][name]", "Order "+req.OrderID)
	form.Set("metadata[order_id]", req.OrderID)
	form.Set("metadata[business_id]", req.BusinessID)
	form.Set("metadata[customer_email]", req.Customer.Email)

	respBody, status, err := a.call(ctx, creds, http.MethodPost, "/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &GatewayError{Gateway: a.Name(), HTTPStatus: status, Message: upstreamMessage(respBody)}
	}

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &session); err != nil || session.ID == "" {
		return nil, &GatewayError{Gateway: a.Name(), HTTPStatus: status, Message: "session id missing from response"}
	}

	return &CreateResult{
		GatewayOrderID: session.ID,
		Client: map[string]interface{}{
			"session_id":      session.ID,
			"checkout_url":    session.URL,
			"publishable_key": creds.StripePublishableKey,
		},
	}, nil
}

// Verify polls the checkout session; success iff paymentStatus == "paid".
func (a *StripeAdapter) Verify(ctx context.Context, creds Credentials, in VerifyInput) (*VerifyResult, error) {
	if creds.StripeSecretKey == "" {
		return nil, &ConfigError{Gateway: a.Name(), Reason: "secret key is required"}
	}

	respBody, status, err := a.call(ctx, creds, http.MethodGet, "/checkout/sessions/"+in.GatewayOrderID, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &GatewayError{Gateway: a.Name(), HTTPStatus: status, Message: upstreamMessage(respBody)}
	}

	var session struct {
		Status        string  `json:"status"`
		PaymentStatus string  `json:"payment_status"`
		PaymentIntent string  `json:"payment_intent"`
		AmountTotal   float64 `json:"amount_total"`
		Currency      string  `json:"currency"`
	}
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, &GatewayError{Gateway: a.Name(), HTTPStatus: status, Message: "unparseable session response"}
	}

	return &VerifyResult{
		Success:          session.PaymentStatus == "paid",
		Pending:          session.PaymentStatus != "paid" && session.Status == "open",
		GatewayPaymentID: session.PaymentIntent,
		Details: map[string]interface{}{
			"status":         session.Status,
			"payment_status": session.PaymentStatus,
			"amount":         session.AmountTotal,
			"currency":       session.Currency,
		},
	}, nil
}

func (a *StripeAdapter) call(ctx context.Context, creds Credentials, method, path string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("stripe: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.StripeSecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, 0, &GatewayError{Gateway: a.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &GatewayError{Gateway: a.Name(), Message: "read response: " + err.Error()}
	}
	return respBody, resp.StatusCode, nil
}
