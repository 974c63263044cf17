package partnerapi

import "encoding/json"

const (
	StatusOK    = 1
	StatusError = 0
)

// Envelope is the partner API's response wrapper. Data stays opaque here; each
// document type decodes it against its own schema.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e Envelope) OK() bool {
	return e.Status == StatusOK
}

// ErrorEnvelope wraps a transport-level failure in the partner's envelope
// shape so callers handle one contract. The message is the real underlying
// error, never substituted data.
func ErrorEnvelope(message string) Envelope {
	return Envelope{Status: StatusError, Message: message}
}

// Credentials identify one dealer's partner API account.
type Credentials struct {
	AccountId string
	ApiKey    string
	ApiSecret string
}

// FetchRequest is the request envelope for document searches. Filters are
// flattened into the JSON body next to the fixed fields.
type FetchRequest struct {
	FromTime string
	ToTime   string
	DealerId string
	Filters  map[string]string
}

func (r FetchRequest) body() ([]byte, error) {
	payload := make(map[string]any, len(r.Filters)+3)
	for k, v := range r.Filters {
		payload[k] = v
	}
	payload["fromTime"] = r.FromTime
	payload["toTime"] = r.ToTime
	payload["dealerId"] = r.DealerId
	return json.Marshal(payload)
}
