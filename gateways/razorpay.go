package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/waconnect/storefront-backend/models"
)

const razorpayAPIBaseURL = "https://api.razorpay.com/v1"

// RazorpayAdapter creates a remote Razorpay order at checkout time and
// verifies the browser-posted signature afterwards.
type RazorpayAdapter struct {
	Client  *http.Client
	BaseURL string // overridable for tests
}

func NewRazorpayAdapter(client *http.Client) *RazorpayAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RazorpayAdapter{Client: client, BaseURL: razorpayAPIBaseURL}
}

func (a *RazorpayAdapter) Name() string { return models.GatewayRazorpay }

func (a *RazorpayAdapter) Create(ctx context.Context, creds Credentials, req CreateRequest) (*CreateResult, error) {
	if creds.RazorpayKeyID == "" || creds.RazorpayKeySecret == "" {
		return nil, &ConfigError{Gateway: a.Name(), Reason: "key id and secret are required"}
	}

	minor := MinorUnits(req.Amount)
	body, err := json.Marshal(map[string]interface{}{
		"amount":   minor,
		"currency": req.Currency,
		"receipt":  req.OrderID,
		"notes": map[string]string{
			"order_id":    req.OrderID,
			"business_id": req.BusinessID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("razorpay: build request: %w", err)
	}
	httpReq.SetBasicAuth(creds.RazorpayKeyID, creds.RazorpayKeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Gateway: a.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{Gateway: a.Name(), HTTPStatus: resp.StatusCode, Message: upstreamMessage(respBody)}
	}

	var order struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &order); err != nil || order.ID == "" {
		return nil, &GatewayError{Gateway: a.Name(), HTTPStatus: resp.StatusCode, Message: "order id missing from response"}
	}

	return &CreateResult{
		GatewayOrderID: order.ID,
		Client: map[string]interface{}{
			"gateway_order_id": order.ID,
			"amount":           minor,
			"currency":         req.Currency,
			"key_id":           creds.RazorpayKeyID,
		},
	}, nil
}

func (a *RazorpayAdapter) Verify(ctx context.Context, creds Credentials, in VerifyInput) (*VerifyResult, error) {
	if creds.RazorpayKeySecret == "" {
		return nil, &ConfigError{Gateway: a.Name(), Reason: "key secret is required"}
	}
	ok := VerifyRazorpaySignature(creds.RazorpayKeySecret, in.GatewayOrderID, in.GatewayPaymentID, in.Signature)
	return &VerifyResult{
		Success:          ok,
		GatewayPaymentID: in.GatewayPaymentID,
		Details: map[string]interface{}{
			"gateway_payment_id": in.GatewayPaymentID,
			"signature_valid":    ok,
		},
	}, nil
}

// upstreamMessage pulls the error description out of a processor response,
// falling back to the raw body.
func upstreamMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Description string `json:"description"`
			Message     string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Description != "" {
			return envelope.Error.Description
		}
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
	}
	return string(body)
}
