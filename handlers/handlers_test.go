package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waconnect/storefront-backend/gateways"
	"github.com/waconnect/storefront-backend/handlers"
	"github.com/waconnect/storefront-backend/models"
	"github.com/waconnect/storefront-backend/payments"
	"github.com/waconnect/storefront-backend/store"
)

type staticBusinesses map[string]*models.Business

func (s staticBusinesses) FindBySubdomain(ctx context.Context, subdomain string) (*models.Business, error) {
	if biz, ok := s[subdomain]; ok {
		return biz, nil
	}
	return nil, store.ErrNotFound
}

type recordingSettlement struct {
	calls []string
}

func (r *recordingSettlement) MarkPaid(ctx context.Context, orderID, paymentRef string) error {
	r.calls = append(r.calls, orderID+"/"+paymentRef)
	return nil
}

func fixtureBusiness() *models.Business {
	lat, lon := 19.07609, 72.877426
	maxRadius := 15.0
	return &models.Business{
		ID:                         "biz-1",
		Subdomain:                  "demofashion",
		Name:                       "Demo Fashion",
		IsActive:                   true,
		PaymentGateway:             models.GatewayRazorpay,
		RazorpayKeyID:              "rzp_test_key",
		RazorpayKeySecret:          "rzp_secret",
		PayUMerchantKey:            "mkey",
		PayUSalt:                   "msalt",
		PhonePeMerchantID:          "MERCHANTUAT",
		PhonePeSaltKey:             "salt-key-uat",
		PhonePeSaltIndex:           "1",
		BusinessLatitude:           &lat,
		BusinessLongitude:          &lon,
		FreeDeliveryRadiusKm:       5,
		DeliveryChargeBeyondRadius: 50,
		MaxDeliveryRadiusKm:        &maxRadius,
	}
}

type testEnv struct {
	app        *fiber.App
	txStore    *store.MemoryTransactionStore
	settlement *recordingSettlement
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	txStore := store.NewMemoryTransactionStore()
	settlement := &recordingSettlement{}
	orch := payments.NewOrchestrator(
		txStore,
		settlement,
		nil,
		gateways.NewRazorpayAdapter(nil),
		gateways.NewPayUAdapter("https://shop.example.com"),
		gateways.NewPhonePeAdapter("https://shop.example.com"),
	)

	businesses := staticBusinesses{"demofashion": fixtureBusiness()}
	paymentHandler := handlers.NewPaymentHandler(businesses, orch)
	deliveryHandler := handlers.NewDeliveryHandler(businesses, nil)

	app := fiber.New()
	api := app.Group("/api")
	api.Get("/health", paymentHandler.Health)

	public := api.Group("/public/businesses/:subdomain")
	public.Get("/", deliveryHandler.GetBusiness)
	public.Post("/calculate-delivery", deliveryHandler.CalculateDelivery)
	public.Post("/payments/:gateway/create", paymentHandler.CreatePayment)
	public.Post("/payments/razorpay/verify", paymentHandler.VerifyRazorpay)
	public.Get("/payments/stripe/status/:sessionId", paymentHandler.StripeStatus)
	public.Get("/payments/:transactionId/status", paymentHandler.TransactionStatus)

	api.Post("/webhook/phonepe/:subdomain", paymentHandler.PhonePeWebhook)
	api.Post("/webhook/payu/:subdomain", paymentHandler.PayUWebhook)

	return &testEnv{app: app, txStore: txStore, settlement: settlement}
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])
}

func TestGetBusinessHidesCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodGet, "/api/public/businesses/demofashion/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "demofashion", body["subdomain"])
	assert.Equal(t, "rzp_test_key", body["razorpay_key_id"])
	for _, secret := range []string{"rzp_secret", "msalt", "salt-key-uat"} {
		raw, _ := json.Marshal(body)
		assert.NotContains(t, string(raw), secret)
	}
}

func TestGetBusinessUnknownSubdomain(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodGet, "/api/public/businesses/nope/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeBody(t, resp)["errorKind"])
}

func TestCalculateDeliveryFreeWithinRadius(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/calculate-delivery",
		map[string]float64{"customer_latitude": 19.07609, "customer_longitude": 72.877426}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(0), body["delivery_charge"])
	assert.Equal(t, true, body["is_deliverable"])
	assert.Contains(t, body["message"], "Free delivery")
}

func TestCalculateDeliveryMissingCoordinates(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/calculate-delivery",
		map[string]float64{"customer_latitude": 19.07609}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_request", decodeBody(t, resp)["errorKind"])
}

func TestCreatePaymentRequiresOrderID(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/payments/payu/create",
		map[string]interface{}{"amount": 499.5}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decodeBody(t, resp)["errorKind"])
}

func TestCreatePaymentUnknownGateway(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/payments/paypal/create",
		map[string]interface{}{"order_id": "order-7", "amount": 499.5}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "configuration_error", decodeBody(t, resp)["errorKind"])
}

func TestCreatePaymentMissingCredentials(t *testing.T) {
	biz := fixtureBusiness()
	biz.PayUMerchantKey = ""
	biz.PayUSalt = ""

	orch := payments.NewOrchestrator(store.NewMemoryTransactionStore(), &recordingSettlement{}, nil, gateways.NewPayUAdapter("https://shop.example.com"))
	paymentHandler := handlers.NewPaymentHandler(staticBusinesses{"demofashion": biz}, orch)
	app := fiber.New()
	app.Post("/api/public/businesses/:subdomain/payments/:gateway/create", paymentHandler.CreatePayment)

	resp, err := app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/payments/payu/create",
		map[string]interface{}{"order_id": "order-7", "amount": 499.5}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "configuration_error", decodeBody(t, resp)["errorKind"])
}

func TestPayUCreateThenWebhookSettlesOnce(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/payments/payu/create",
		map[string]interface{}{
			"order_id":       "order-7",
			"amount":         499.5,
			"customer_name":  "Asha",
			"customer_email": "asha@example.com",
		}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	created := decodeBody(t, resp)
	txnid, _ := created["txnid"].(string)
	require.NotEmpty(t, txnid)
	assert.NotEmpty(t, created["transaction_id"])
	assert.Equal(t, "499.50", created["amount"])

	hash := gateways.PayUHash("mkey", txnid, "499.50", "order-7", "Asha", "asha@example.com", "msalt")
	form := url.Values{}
	form.Set("txnid", txnid)
	form.Set("amount", "499.50")
	form.Set("productinfo", "order-7")
	form.Set("firstname", "Asha")
	form.Set("email", "asha@example.com")
	form.Set("status", "success")
	form.Set("hash", hash)
	form.Set("mihpayid", "mih123")

	webhook := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/webhook/payu/demofashion", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := env.app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp = webhook()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusSuccess, decodeBody(t, resp)["status"])
	assert.Equal(t, []string{"order-7/mih123"}, env.settlement.calls)

	// The callback snapshot is stored with the transaction.
	tx, err := env.txStore.FindByGatewayOrderID(context.Background(), txnid)
	require.NoError(t, err)
	assert.Equal(t, "success", tx.Meta["status"])
	assert.Equal(t, "mih123", tx.Meta["mihpayid"])

	// Replayed webhook is a no-op; the order is not settled twice.
	resp = webhook()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusSuccess, decodeBody(t, resp)["status"])
	assert.Len(t, env.settlement.calls, 1)

	// Status endpoint reflects the terminal state by either key.
	resp, err = env.app.Test(jsonRequest(http.MethodGet,
		"/api/public/businesses/demofashion/payments/"+txnid+"/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, models.StatusSuccess, body["status"])
	assert.Equal(t, "order-7", body["order_id"])
}

func TestPayUWebhookTamperedHashFailsTransaction(t *testing.T) {
	env := newTestEnv(t)
	seedTx(t, env, "payutxn1", models.GatewayPayU)

	form := url.Values{}
	form.Set("txnid", "payutxn1")
	form.Set("amount", "499.50")
	form.Set("productinfo", "order-7")
	form.Set("firstname", "Asha")
	form.Set("email", "asha@example.com")
	form.Set("status", "success")
	form.Set("hash", "tampered")
	form.Set("mihpayid", "mih123")

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/payu/demofashion", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "verification_error", decodeBody(t, resp)["errorKind"])

	tx, err := env.txStore.FindByGatewayOrderID(context.Background(), "payutxn1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, tx.Status)
	assert.Empty(t, env.settlement.calls)
}

func seedTx(t *testing.T, env *testEnv, gatewayOrderID, gateway string) *models.PaymentTransaction {
	t.Helper()
	tx := &models.PaymentTransaction{
		ID:             "txn-" + gatewayOrderID,
		BusinessID:     "biz-1",
		OrderID:        "order-7",
		Amount:         499.5,
		Currency:       "INR",
		Gateway:        gateway,
		GatewayOrderID: gatewayOrderID,
		Status:         models.StatusPending,
	}
	require.NoError(t, env.txStore.Create(context.Background(), tx))
	return tx
}

func TestRazorpayVerifyEndpoint(t *testing.T) {
	env := newTestEnv(t)
	seedTx(t, env, "order_rzp_1", models.GatewayRazorpay)

	sig := gateways.RazorpaySignature("rzp_secret", "order_rzp_1", "pay_9")
	resp, err := env.app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/payments/razorpay/verify",
		map[string]string{
			"gateway_order_id":   "order_rzp_1",
			"gateway_payment_id": "pay_9",
			"signature":          sig,
		}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusSuccess, decodeBody(t, resp)["status"])
	assert.Equal(t, []string{"order-7/pay_9"}, env.settlement.calls)
}

func TestRazorpayVerifyForgedSignature(t *testing.T) {
	env := newTestEnv(t)
	seedTx(t, env, "order_rzp_1", models.GatewayRazorpay)

	resp, err := env.app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/payments/razorpay/verify",
		map[string]string{
			"gateway_order_id":   "order_rzp_1",
			"gateway_payment_id": "pay_9",
			"signature":          "forged",
		}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "verification_error", decodeBody(t, resp)["errorKind"])
}

func TestRazorpayVerifyUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodPost,
		"/api/public/businesses/demofashion/payments/razorpay/verify",
		map[string]string{"gateway_order_id": "missing", "gateway_payment_id": "p", "signature": "s"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeBody(t, resp)["errorKind"])
}

func TestPhonePeWebhookEndpoint(t *testing.T) {
	env := newTestEnv(t)
	seedTx(t, env, "TXphonepe1", models.GatewayPhonePe)

	inner, err := json.Marshal(map[string]interface{}{
		"code": "PAYMENT_SUCCESS",
		"data": map[string]interface{}{
			"merchantTransactionId": "TXphonepe1",
			"transactionId":         "T2408261356",
			"state":                 "COMPLETED",
		},
	})
	require.NoError(t, err)
	raw := base64.StdEncoding.EncodeToString(inner)
	body, err := json.Marshal(map[string]string{"response": raw})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/phonepe/demofashion", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Verify", gateways.PhonePeCallbackChecksum(raw, "salt-key-uat", "1"))

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusSuccess, decodeBody(t, resp)["status"])
	assert.Equal(t, []string{"order-7/T2408261356"}, env.settlement.calls)
}

func TestTransactionStatusUnknown(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(http.MethodGet,
		"/api/public/businesses/demofashion/payments/missing/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decodeBody(t, resp)["errorKind"])
}
