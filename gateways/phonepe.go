package gateways

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/waconnect/storefront-backend/models"
)

const (
	phonePePayURL  = "https://api.phonepe.com/apis/hermes/pg/v1/pay"
	phonePePayPath = "/pg/v1/pay"
)

// PhonePeAdapter builds the base64 pay payload plus checksum for a
// client-side redirect. Settlement arrives on the business-scoped webhook.
type PhonePeAdapter struct {
	AppBaseURL string
	PayURL     string
}

func NewPhonePeAdapter(appBaseURL string) *PhonePeAdapter {
	return &PhonePeAdapter{AppBaseURL: appBaseURL, PayURL: phonePePayURL}
}

func (a *PhonePeAdapter) Name() string { return models.GatewayPhonePe }

func (a *PhonePeAdapter) Create(ctx context.Context, creds Credentials, req CreateRequest) (*CreateResult, error) {
	if creds.PhonePeMerchantID == "" || creds.PhonePeSaltKey == "" || creds.PhonePeSaltIndex == "" {
		return nil, &ConfigError{Gateway: a.Name(), Reason: "merchant id, salt key and salt index are required"}
	}

	// PhonePe caps merchantTransactionId at 35 characters.
	txnID := "TX" + strings.ReplaceAll(uuid.NewString(), "-", "")

	payload, err := json.Marshal(map[string]interface{}{
		"merchantId":            creds.PhonePeMerchantID,
		"merchantTransactionId": txnID,
		"merchantUserId":        "CUST" + req.OrderID,
		"amount":                MinorUnits(req.Amount),
		"redirectUrl":           fmt.Sprintf("%s/%s/payment/phonepe/return", a.AppBaseURL, req.Subdomain),
		"redirectMode":          "POST",
		"callbackUrl":           fmt.Sprintf("%s/api/webhook/phonepe/%s", a.AppBaseURL, req.Subdomain),
		"mobileNumber":          req.Customer.Phone,
		"paymentInstrument":     map[string]string{"type": "PAY_PAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("phonepe: marshal payload: %w", err)
	}

	b64 := base64.StdEncoding.EncodeToString(payload)
	checksum := PhonePeChecksum(b64, phonePePayPath, creds.PhonePeSaltKey, creds.PhonePeSaltIndex)

	return &CreateResult{
		GatewayOrderID: txnID,
		Client: map[string]interface{}{
			"pay_url":                 a.PayURL,
			"base64_payload":          b64,
			"checksum":                checksum,
			"merchant_transaction_id": txnID,
		},
	}, nil
}

// Verify recomputes the callback checksum over the posted base64 body and,
// when it matches, reads the payment state out of the decoded payload.
func (a *PhonePeAdapter) Verify(ctx context.Context, creds Credentials, in VerifyInput) (*VerifyResult, error) {
	if creds.PhonePeSaltKey == "" || creds.PhonePeSaltIndex == "" {
		return nil, &ConfigError{Gateway: a.Name(), Reason: "salt key and salt index are required"}
	}

	expected := PhonePeCallbackChecksum(string(in.Body), creds.PhonePeSaltKey, creds.PhonePeSaltIndex)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(in.Signature)) != 1 {
		return &VerifyResult{
			Success: false,
			Details: map[string]interface{}{"checksum_valid": false},
		}, nil
	}

	cb, err := decodePhonePePayload(in.Body)
	if err != nil {
		return &VerifyResult{
			Success: false,
			Details: map[string]interface{}{"checksum_valid": true, "payload_valid": false},
		}, nil
	}
	return &VerifyResult{
		Success:          cb.Data.State == "COMPLETED",
		GatewayPaymentID: cb.Data.TransactionID,
		Details: map[string]interface{}{
			"code":                    cb.Code,
			"state":                   cb.Data.State,
			"merchant_transaction_id": cb.Data.MerchantTransactionID,
			"checksum_valid":          true,
		},
	}, nil
}

// PhonePeCallback is the decoded callback payload.
type PhonePeCallback struct {
	Code string `json:"code"`
	Data struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		State                 string `json:"state"`
	} `json:"data"`
}

// ParsePhonePeCallback extracts the base64 payload from a webhook request
// body and decodes it. PhonePe wraps the payload in {"response": "<b64>"};
// a bare base64 body is accepted as well.
func ParsePhonePeCallback(body []byte) (raw string, cb *PhonePeCallback, err error) {
	var envelope struct {
		Response string `json:"response"`
	}
	if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Response != "" {
		raw = envelope.Response
	} else {
		raw = strings.TrimSpace(string(body))
	}
	cb, err = decodePhonePePayload([]byte(raw))
	return raw, cb, err
}

func decodePhonePePayload(b64 []byte) (*PhonePeCallback, error) {
	decoded, err := base64.StdEncoding.DecodeString(string(b64))
	if err != nil {
		return nil, fmt.Errorf("phonepe: decode payload: %w", err)
	}
	var cb PhonePeCallback
	if err := json.Unmarshal(decoded, &cb); err != nil {
		return nil, fmt.Errorf("phonepe: parse payload: %w", err)
	}
	return &cb, nil
}
