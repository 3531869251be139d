package wrs

import "strings"

// EventParams represents the segments captured from an event type by a
// like-pattern. They are only populated on events delivered to like-eligible
// subscriptions through a pattern match.
type EventParams map[string]string

// Get returns the value of a parameter by key. The lookup is case-insensitive
// (e.g., 'ID' and 'id' match the same parameter). Returns an empty string if the
// key doesn't exist.
func (p EventParams) Get(key string) string {
	for k, v := range p {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
