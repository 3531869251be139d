package wrs

import (
	"math"
	"strings"
	"sync"
)

// Standard response codes. The index of a code in the table is the numeric
// code sent to clients.
const (
	CodeSuccess     = "SUCCESS"
	CodeUnknown     = "UNKNOWN"
	CodeHTTPError   = "HTTP_ERROR"
	CodeSocketError = "SOCKET_ERROR"
	CodeServerError = "SERVER_ERROR"
	CodeBadMethod   = "BAD_METHOD"
	CodeBadFormat   = "BAD_FORMAT"
	CodeBadTarget   = "BAD_TARGET"
	CodeBadSection  = "BAD_SECTION"
	CodeBadPage     = "BAD_PAGE"
	CodeBadRequest  = "BAD_REQUEST"
	CodeBadResponse = "BAD_RESPONSE"
	CodeNotFound    = "NOT_FOUND"
	CodeNoAuth      = "NO_AUTH"
	CodeNoAccess    = "NO_ACCESS"
)

var defaultCodes = []string{
	CodeSuccess,
	CodeUnknown,
	CodeHTTPError,
	CodeSocketError,
	CodeServerError,
	CodeBadMethod,
	CodeBadFormat,
	CodeBadTarget,
	CodeBadSection,
	CodeBadPage,
	CodeBadRequest,
	CodeBadResponse,
	CodeNotFound,
	CodeNoAuth,
	CodeNoAccess,
}

// Codes is the response code table of a server. Modules append their own
// codes when they are registered.
type Codes struct {
	mu    sync.RWMutex
	names []string
}

// NewCodes creates a code table holding the standard codes.
func NewCodes() *Codes {
	return &Codes{names: append([]string(nil), defaultCodes...)}
}

// NormalizeCode upper-cases a code name and replaces spaces with
// underscores.
func NormalizeCode(name string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), " ", "_")
}

// Append adds codes to the table, skipping names that are already present.
func (c *Codes) Append(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		name = NormalizeCode(name)
		if name == "" || indexOf(c.names, name) != -1 {
			continue
		}
		c.names = append(c.names, name)
	}
}

// IndexOf returns the numeric code of a name, or -1 if the name is not in
// the table.
func (c *Codes) IndexOf(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return indexOf(c.names, NormalizeCode(name))
}

// Name returns the name of a numeric code. Unknown codes, including -1, are
// reported as UNKNOWN.
func (c *Codes) Name(code int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if code < 0 || code >= len(c.names) {
		return CodeUnknown
	}
	return c.names[code]
}

// Names returns a copy of the table.
func (c *Codes) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.names...)
}

// Resolve converts a code given either as a name or a number to its numeric
// code. Names not in the table and numbers outside of it resolve to UNKNOWN.
func (c *Codes) Resolve(code any) int {
	unknown := c.IndexOf(CodeUnknown)
	switch v := code.(type) {
	case string:
		if i := c.IndexOf(v); i != -1 {
			return i
		}
		return unknown
	case nil:
		return unknown
	}
	f, ok := toFloat(code)
	if !ok || f != math.Trunc(f) {
		return unknown
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if f < 0 || f >= float64(len(c.names)) {
		return unknown
	}
	return int(f)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
