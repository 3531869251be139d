package wrs_test

import (
	"encoding/json"
	"testing"

	"github.com/RobertWHurst/wrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserModel() *wrs.Model {
	return wrs.NewModel("UserModel",
		wrs.Column{Name: "name"},
		wrs.Column{Name: "role", Default: func() any { return "member" }},
		wrs.Column{Name: "password", Hidden: true},
	)
}

func TestModelParse(t *testing.T) {
	record := newUserModel().Parse(map[string]any{
		"name":  "ada",
		"extra": true,
	})

	assert.Equal(t, "ada", record.Get("name"))
	assert.Equal(t, "member", record.Get("role"))
	assert.Nil(t, record.Get("extra"))
}

func TestModelDecode(t *testing.T) {
	model := newUserModel()

	record, err := model.Decode(json.RawMessage(`{"name":"ada","role":"admin","password":"secret"}`))
	require.NoError(t, err)
	assert.Equal(t, "admin", record.Get("role"))
	assert.Same(t, model, record.Model())

	record, err = model.Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, "member", record.Get("role"))

	_, err = model.Decode(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestRecordSet(t *testing.T) {
	record := newUserModel().Parse(nil)

	record.Set("name", "grace")
	record.Set("unknown", 1)

	assert.Equal(t, "grace", record.Get("name"))
	assert.Nil(t, record.Get("unknown"))
}

func TestRecordSendableStripsHiddenColumns(t *testing.T) {
	record := newUserModel().Parse(map[string]any{"name": "ada", "password": "secret"})

	assert.Equal(t, map[string]any{"name": "ada", "role": "member"}, record.Sendable())

	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ada","role":"member","password":"secret"}`, string(encoded))
}
