package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded"}}}`)
	now := time.Unix(1_700_000_000, 0)
	secret := "whsec_test"
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), Sign(payload, secret, now.Unix()))

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, VerifySignature(payload, header, secret, DefaultTolerance, now))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(payload, header, "other", DefaultTolerance, now), ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature([]byte(`{}`), header, secret, DefaultTolerance, now), ErrInvalidSignature)
	})

	t.Run("outside tolerance", func(t *testing.T) {
		later := now.Add(DefaultTolerance + time.Second)
		assert.ErrorIs(t, VerifySignature(payload, header, secret, DefaultTolerance, later), ErrInvalidSignature)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(payload, "garbage", secret, DefaultTolerance, now), ErrInvalidSignature)
	})

	t.Run("one of several signatures matches", func(t *testing.T) {
		h := fmt.Sprintf("t=%d,v1=deadbeef,v1=%s", now.Unix(), Sign(payload, secret, now.Unix()))
		assert.NoError(t, VerifySignature(payload, h, secret, DefaultTolerance, now))
	})
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_1","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_9","status":"requires_payment_method"}}}`))
	require.NoError(t, err)
	assert.Equal(t, EventIntentFailed, ev.Type)
	assert.Equal(t, "pi_9", ev.Data.Object.ID)
}
