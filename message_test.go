package wrs_test

import (
	"encoding/json"
	"testing"

	"github.com/RobertWHurst/wrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomingMessageID(t *testing.T) {
	testCases := []struct {
		name  string
		frame string
		id    int64
	}{
		{name: "number", frame: `{"id": 7}`, id: 7},
		{name: "fraction", frame: `{"id": 7.5}`, id: 7},
		{name: "numeric string", frame: `{"id": "12"}`, id: 12},
		{name: "word", frame: `{"id": "abc"}`, id: 0},
		{name: "null", frame: `{"id": null}`, id: 0},
		{name: "object", frame: `{"id": {"a": 1}}`, id: 0},
		{name: "missing", frame: `{}`, id: 0},
		{name: "negative", frame: `{"id": -3}`, id: -3},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			msg := &wrs.IncomingMessage{}
			require.NoError(t, json.Unmarshal([]byte(testCase.frame), msg))
			assert.Equal(t, testCase.id, msg.ID)
		})
	}
}

func TestIncomingMessageFields(t *testing.T) {
	msg := &wrs.IncomingMessage{}
	require.NoError(t, json.Unmarshal([]byte(`{"target":"user","section":"Profile","page":"get","option":"x","id":"4","data":{"a":1}}`), msg))

	assert.Equal(t, "user", msg.Target)
	assert.Equal(t, "Profile", msg.Section)
	assert.Equal(t, "get", msg.Page)
	assert.Equal(t, "x", msg.Option)
	assert.Equal(t, int64(4), msg.ID)
	assert.JSONEq(t, `{"a":1}`, string(msg.Data))

	var data map[string]int
	require.NoError(t, msg.Bind(&data))
	assert.Equal(t, 1, data["a"])
}

func TestIncomingMessageRejectsMalformedFrames(t *testing.T) {
	msg := &wrs.IncomingMessage{}
	assert.Error(t, json.Unmarshal([]byte(`{"target": 3}`), msg))
	assert.Error(t, json.Unmarshal([]byte(`{not json`), msg))
}
