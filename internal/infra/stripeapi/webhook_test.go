package stripeapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75/webhook"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/infra/stripeapi/stripetest"
)

const testSecret = "whsec_test_secret"

var eventPayload = []byte(`{
	"id": "evt_1",
	"object": "event",
	"type": "customer.subscription.updated",
	"data": {"object": {"id": "sub_1", "object": "subscription", "status": "active"}}
}`)

func TestVerifyEvent_ValidSignature(t *testing.T) {
	sig := stripetest.SignPayload(eventPayload, testSecret)

	event, err := VerifyEvent(eventPayload, sig, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "customer.subscription.updated", string(event.Type))
}

func TestVerifyEvent_WrongSecret(t *testing.T) {
	sig := stripetest.SignPayload(eventPayload, "whsec_other")

	_, err := VerifyEvent(eventPayload, sig, testSecret)
	assert.True(t, apperr.Is(err, apperr.KindSignatureInvalid))
}

func TestVerifyEvent_TamperedBody(t *testing.T) {
	sig := stripetest.SignPayload(eventPayload, testSecret)
	tampered := append([]byte{}, eventPayload...)
	tampered[len(tampered)-2] = ' '

	_, err := VerifyEvent(tampered, sig, testSecret)
	assert.True(t, apperr.Is(err, apperr.KindSignatureInvalid))
}

func TestVerifyEvent_MissingHeader(t *testing.T) {
	_, err := VerifyEvent(eventPayload, "", testSecret)
	assert.True(t, apperr.Is(err, apperr.KindSignatureInvalid))
}

func TestVerifyEvent_ExpiredTimestamp(t *testing.T) {
	sig := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: eventPayload, Secret: testSecret, Timestamp: time.Now().Add(-time.Hour)}).Header

	_, err := VerifyEvent(eventPayload, sig, testSecret)
	assert.True(t, apperr.Is(err, apperr.KindSignatureInvalid))
}
