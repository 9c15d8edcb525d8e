package payment

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mcoot/rpgdash/internal/model"
)

//go:embed schemas/webhook.schema.json
var webhookSchemaJSON string

var webhookSchema = jsonschema.MustCompileString("webhook.schema.json", webhookSchemaJSON)

type notification struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		ID any `json:"id"`
	} `json:"data"`
}

// ParseEvent extracts a payment event from a notification request.
//
// The JSON body form ({"type":"payment","data":{"id":...}}) takes precedence;
// the legacy query form (?topic=payment&id=... or ?type=payment&data.id=...)
// is used when the body carries no event type.
func ParseEvent(body []byte, query url.Values) (model.PaymentEvent, error) {
	var event model.PaymentEvent

	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return event, fmt.Errorf("%w: malformed notification body: %v", model.ErrValidation, err)
		}
		if err := webhookSchema.Validate(doc); err != nil {
			return event, fmt.Errorf("%w: notification body: %v", model.ErrValidation, err)
		}

		var n notification
		dec = json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return event, fmt.Errorf("%w: malformed notification body: %v", model.ErrValidation, err)
		}
		event.Type = n.Type
		if event.Type == "" {
			event.Type = n.Topic
		}
		switch id := n.Data.ID.(type) {
		case string:
			event.PaymentID = id
		case json.Number:
			event.PaymentID = id.String()
		}
	}

	if event.Type == "" {
		event.Type = firstNonEmpty(query.Get("type"), query.Get("topic"))
	}
	if event.PaymentID == "" {
		event.PaymentID = firstNonEmpty(query.Get("data.id"), query.Get("id"))
	}
	return event, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
