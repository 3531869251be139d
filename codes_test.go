package wrs_test

import (
	"testing"

	"github.com/RobertWHurst/wrs"
	"github.com/stretchr/testify/assert"
)

func TestCodesDefaultTable(t *testing.T) {
	codes := wrs.NewCodes()

	assert.Equal(t, 0, codes.IndexOf(wrs.CodeSuccess))
	assert.Equal(t, 1, codes.IndexOf(wrs.CodeUnknown))
	assert.Equal(t, wrs.CodeBadTarget, codes.Name(codes.IndexOf(wrs.CodeBadTarget)))
	assert.Len(t, codes.Names(), 15)
}

func TestCodesNameIndexSymmetry(t *testing.T) {
	codes := wrs.NewCodes()
	for i, name := range codes.Names() {
		assert.Equal(t, i, codes.IndexOf(name))
		assert.Equal(t, name, codes.Name(i))
	}
}

func TestCodesNormalize(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "bad target", expected: "BAD_TARGET"},
		{in: " no_auth ", expected: "NO_AUTH"},
		{in: "Rate Limited", expected: "RATE_LIMITED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, wrs.NormalizeCode(tt.in))
	}

	codes := wrs.NewCodes()
	assert.Equal(t, codes.IndexOf("BAD_TARGET"), codes.IndexOf("bad target"))
}

func TestCodesAppend(t *testing.T) {
	codes := wrs.NewCodes()
	size := len(codes.Names())

	codes.Append("rate limited", "RATE_LIMITED", "success", "")

	assert.Len(t, codes.Names(), size+1)
	assert.Equal(t, size, codes.IndexOf("RATE_LIMITED"))
}

func TestCodesUnknown(t *testing.T) {
	codes := wrs.NewCodes()

	assert.Equal(t, -1, codes.IndexOf("NOPE"))
	assert.Equal(t, wrs.CodeUnknown, codes.Name(-1))
	assert.Equal(t, wrs.CodeUnknown, codes.Name(1000))
}

func TestCodesResolve(t *testing.T) {
	codes := wrs.NewCodes()
	unknown := codes.IndexOf(wrs.CodeUnknown)

	assert.Equal(t, codes.IndexOf(wrs.CodeNoAuth), codes.Resolve("no auth"))
	assert.Equal(t, 7, codes.Resolve(7))
	assert.Equal(t, 7, codes.Resolve(7.0))
	assert.Equal(t, unknown, codes.Resolve("NOPE"))
	assert.Equal(t, unknown, codes.Resolve(nil))
	assert.Equal(t, unknown, codes.Resolve(struct{}{}))
}

func TestCodesResolveOutOfRangeNumbers(t *testing.T) {
	codes := wrs.NewCodes()
	unknown := codes.IndexOf(wrs.CodeUnknown)

	assert.Equal(t, unknown, codes.Resolve(999))
	assert.Equal(t, unknown, codes.Resolve(-1))
	assert.Equal(t, unknown, codes.Resolve(7.5))
	assert.Equal(t, 14, codes.Resolve(14))

	codes.Append("rate limited")
	assert.Equal(t, 15, codes.Resolve(15))
	assert.Equal(t, unknown, codes.Resolve(16))
}
