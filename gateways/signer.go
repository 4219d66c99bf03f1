package gateways

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// RazorpaySignature computes HMAC-SHA256(secret, orderID|paymentID) as a
// lowercase hex digest. Razorpay sends the same digest back with the
// checkout confirmation.
func RazorpaySignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRazorpaySignature recomputes the signature and compares in constant
// time against the gateway-supplied value.
func VerifyRazorpaySignature(secret, orderID, paymentID, signature string) bool {
	expected := RazorpaySignature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PayUHashInput builds the pipe-joined request hash input. The field count
// is part of PayU's contract: six populated fields, then exactly eleven
// empty fields, then the salt. Any deviation is rejected by the processor.
func PayUHashInput(key, txnID, amount, productInfo, firstName, email, salt string) string {
	fields := []string{key, txnID, amount, productInfo, firstName, email}
	fields = append(fields, make([]string, 11)...)
	fields = append(fields, salt)
	return strings.Join(fields, "|")
}

// PayUHash is the SHA-512 hex digest of the request hash input.
func PayUHash(key, txnID, amount, productInfo, firstName, email, salt string) string {
	sum := sha512.Sum512([]byte(PayUHashInput(key, txnID, amount, productInfo, firstName, email, salt)))
	return hex.EncodeToString(sum[:])
}

// PhonePeChecksum is SHA-256(base64Payload + apiPath + saltKey) in hex,
// suffixed with "###" and the configured salt index.
func PhonePeChecksum(base64Payload, apiPath, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(base64Payload + apiPath + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

// PhonePeCallbackChecksum is the callback variant: the posted base64 body is
// hashed with the salt key alone, since callbacks carry no API path.
func PhonePeCallbackChecksum(base64Body, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(base64Body + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}
