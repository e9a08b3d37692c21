package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"

	DefaultTolerance = 5 * time.Minute
)

var ErrInvalidSignature = errors.New("invalid signature")

type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Intent `json:"object"`
	} `json:"data"`
}

// Stripe-Signature: t=<unix>,v1=<hex hmac>[,v1=...]
// 署名対象は "<t>.<payload>"
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" || header == "" {
		return ErrInvalidSignature
	}

	var ts int64
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = n
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	signedAt := time.Unix(ts, 0)
	if d := now.Sub(signedAt); d > tolerance || d < -tolerance {
		return ErrInvalidSignature
	}

	expected := Sign(payload, secret, ts)
	for _, s := range sigs {
		if hmac.Equal([]byte(s), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// hex(HMAC-SHA256(secret, "<t>.<payload>"))
func Sign(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
