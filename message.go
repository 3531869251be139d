package wrs

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// IncomingMessage is a request parsed from a client text frame.
//
//	{"target": "user", "section": "Profile", "page": "get", "option": "", "id": 7, "data": {}}
//
// Target names the module, Section the controller and Page the page within
// the controller. ID correlates the request with its response; once a
// nonzero ID is seen it becomes the connection's current ID.
type IncomingMessage struct {
	Target  string          `json:"target"`
	Section string          `json:"section"`
	Page    string          `json:"page"`
	Option  string          `json:"option"`
	ID      int64           `json:"id"`
	Data    json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes a frame. The id is read leniently: numeric strings
// are accepted, fractions are truncated and any other id counts as absent.
func (m *IncomingMessage) UnmarshalJSON(data []byte) error {
	type plain IncomingMessage
	frame := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	m.ID = parseMessageID(frame.ID)
	return nil
}

func parseMessageID(raw json.RawMessage) int64 {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}
	id, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(id) || math.IsInf(id, 0) {
		return 0
	}
	if id >= math.MaxInt64 || id < math.MinInt64 {
		return 0
	}
	return int64(id)
}

// Bind unmarshals the message data into a value.
func (m *IncomingMessage) Bind(into any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, into)
}

// Response is the structured frame sent to clients.
type Response struct {
	ID         int64  `json:"id"`
	Code       int    `json:"code"`
	OK         bool   `json:"ok"`
	StatusCode string `json:"statusCode"`
	Message    any    `json:"message"`
}

// OkMessage is the message of a successful response.
type OkMessage struct {
	Class string `json:"class"`
	Data  any    `json:"data"`
}

// NewResponse builds a response for a numeric code, naming it from the code
// table.
func NewResponse(codes *Codes, id int64, code int, message any) *Response {
	return &Response{
		ID:         id,
		Code:       code,
		OK:         code == 0,
		StatusCode: codes.Name(code),
		Message:    message,
	}
}
