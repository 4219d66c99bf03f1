package gateways

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/waconnect/storefront-backend/models"
)

const payuPaymentURL = "https://secure.payu.in/_payment"

// PayUAdapter builds the client-side redirect-POST form. No outbound call
// happens at creation; PayU posts the result back to the webhook URL.
type PayUAdapter struct {
	AppBaseURL string
	PaymentURL string
}

func NewPayUAdapter(appBaseURL string) *PayUAdapter {
	return &PayUAdapter{AppBaseURL: appBaseURL, PaymentURL: payuPaymentURL}
}

func (a *PayUAdapter) Name() string { return models.GatewayPayU }

func (a *PayUAdapter) Create(ctx context.Context, creds Credentials, req CreateRequest) (*CreateResult, error) {
	if creds.PayUMerchantKey == "" || creds.PayUSalt == "" {
		return nil, &ConfigError{Gateway: a.Name(), Reason: "merchant key and salt are required"}
	}

	txnID := "payu" + strings.ReplaceAll(uuid.NewString(), "-", "")[:21]
	amount := MajorUnits(req.Amount)
	hash := PayUHash(creds.PayUMerchantKey, txnID, amount, req.OrderID, req.Customer.Name, req.Customer.Email, creds.PayUSalt)
	callbackURL := fmt.Sprintf("%s/api/webhook/payu/%s", a.AppBaseURL, req.Subdomain)

	return &CreateResult{
		GatewayOrderID: txnID,
		Client: map[string]interface{}{
			"payment_url": a.PaymentURL,
			"key":         creds.PayUMerchantKey,
			"txnid":       txnID,
			"amount":      amount,
			"productinfo": req.OrderID,
			"firstname":   req.Customer.Name,
			"email":       req.Customer.Email,
			"phone":       req.Customer.Phone,
			"surl":        callbackURL,
			"furl":        callbackURL,
			"hash":        hash,
		},
	}, nil
}

// Verify recomputes the request hash over the posted form fields and
// requires PayU's own status field to read success.
func (a *PayUAdapter) Verify(ctx context.Context, creds Credentials, in VerifyInput) (*VerifyResult, error) {
	if creds.PayUMerchantKey == "" || creds.PayUSalt == "" {
		return nil, &ConfigError{Gateway: a.Name(), Reason: "merchant key and salt are required"}
	}

	f := in.Fields
	expected := PayUHash(creds.PayUMerchantKey, f["txnid"], f["amount"], f["productinfo"], f["firstname"], f["email"], creds.PayUSalt)
	hashOK := subtle.ConstantTimeCompare([]byte(expected), []byte(f["hash"])) == 1

	return &VerifyResult{
		Success:          hashOK && f["status"] == "success",
		GatewayPaymentID: f["mihpayid"],
		Details: map[string]interface{}{
			"txnid":      f["txnid"],
			"status":     f["status"],
			"mihpayid":   f["mihpayid"],
			"amount":     f["amount"],
			"hash_valid": hashOK,
		},
	}, nil
}
