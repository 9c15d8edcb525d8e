package payment

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpgdash/internal/model"
)

func TestParseEventBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.PaymentEvent
	}{
		{"numeric id", `{"type":"payment","action":"payment.updated","data":{"id":123}}`, model.PaymentEvent{Type: "payment", PaymentID: "123"}},
		{"string id", `{"type":"payment","data":{"id":"abc-9"}}`, model.PaymentEvent{Type: "payment", PaymentID: "abc-9"}},
		{"topic instead of type", `{"topic":"payment","data":{"id":5}}`, model.PaymentEvent{Type: "payment", PaymentID: "5"}},
		{"other type", `{"type":"plan","data":{"id":1}}`, model.PaymentEvent{Type: "plan", PaymentID: "1"}},
		{"escaped quote in id", `{"type":"payment","data":{"id":"12\"3"}}`, model.PaymentEvent{Type: "payment", PaymentID: `12"3`}},
		{"unicode escaped id", `{"type":"payment","data":{"id":"\u0035\u0036"}}`, model.PaymentEvent{Type: "payment", PaymentID: "56"}},
		{"large numeric id", `{"type":"payment","data":{"id":9007199254740993}}`, model.PaymentEvent{Type: "payment", PaymentID: "9007199254740993"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tt.body), url.Values{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEventLegacyQuery(t *testing.T) {
	got, err := ParseEvent(nil, url.Values{"topic": {"payment"}, "id": {"77"}})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentEvent{Type: "payment", PaymentID: "77"}, got)

	got, err = ParseEvent([]byte("  "), url.Values{"type": {"payment"}, "data.id": {"78"}})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentEvent{Type: "payment", PaymentID: "78"}, got)
}

func TestParseEventRejectsInvalidBodies(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`[1,2]`,
		`{"type":7}`,
		`{"type":"payment","data":{"id":1.5}}`,
		`{"type":"payment","data":"x"}`,
	} {
		_, err := ParseEvent([]byte(body), url.Values{})
		assert.ErrorIs(t, err, model.ErrValidation, body)
	}
}
