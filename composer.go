package wrs

import (
	"reflect"
	"sync"
)

// Predicate is a composer pattern that decides a match by itself.
type Predicate func(value any) bool

// Derivation is a composer pattern that derives the pattern to compare
// against from the decomposed value.
type Derivation func(value any) any

// Composer holds structural pattern subscriptions. Values handed to
// Decompose are matched against every entry and the matching entries are
// invoked with a composer event.
type Composer struct {
	mu      sync.Mutex
	entries []*composerEntry
}

type composerEntry struct {
	counter
	name     string
	pattern  any
	callback Callback
	callable bool
}

// NewComposer creates an empty composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose registers a pattern. Patterns may be plain values (compared with
// loose equality), slices (any element may match), a Predicate or a
// Derivation. WithoutCall stores function patterns as plain values.
// WithTimes limits the number of invocations and WithName tags the entry.
func (c *Composer) Compose(pattern any, callback Callback, opts ...Option) {
	if callback == nil {
		panic("wrs: nil composer callback")
	}
	o := resolveOptions(opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, &composerEntry{
		counter:  counter{times: o.times},
		name:     o.name,
		pattern:  pattern,
		callback: callback,
		callable: !o.noCall,
	})
}

// Decompose matches a value against every entry. Each matching entry is
// invoked with an event of type "composer" whose data is a copy of
// contextData with the value stored under the "composer" key. Exhausted
// entries are removed. Returns the number of entries invoked.
func (c *Composer) Decompose(value any, contextData map[string]any, opts ...Option) int {
	o := resolveOptions(opts)

	c.mu.Lock()
	entries := append([]*composerEntry(nil), c.entries...)
	c.mu.Unlock()

	matched := make([]*composerEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.match(value, entry.pattern) {
			matched = append(matched, entry)
		}
	}
	if len(matched) == 0 {
		return 0
	}

	data := make(map[string]any, len(contextData)+1)
	for k, v := range contextData {
		data[k] = v
	}
	data[EventComposer] = value
	event := NewEvent(EventComposer, o.name, data)

	c.mu.Lock()
	callbacks := make([]Callback, 0, len(matched))
	for _, entry := range matched {
		if entry.elapsed() {
			continue
		}
		entry.count += 1
		callbacks = append(callbacks, entry.callback)
	}
	remaining := c.entries[:0:0]
	for _, entry := range c.entries {
		if !entry.elapsed() {
			remaining = append(remaining, entry)
		}
	}
	c.entries = remaining
	c.mu.Unlock()

	for _, callback := range callbacks {
		callback(event)
	}
	return len(callbacks)
}

// Len returns the number of live composer entries.
func (c *Composer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (e *composerEntry) match(value any, pattern any) bool {
	if e.callable {
		if predicate, ok := asPredicate(pattern); ok {
			if items, ok := asSlice(value); ok {
				for _, item := range items {
					if e.match(item, e.pattern) {
						return true
					}
				}
				return false
			}
			return predicate(value)
		}
		if derive, ok := asDerivation(pattern); ok {
			pattern = derive(value)
		}
	}

	if items, ok := asSlice(pattern); ok {
		for _, item := range items {
			if e.match(value, item) {
				return true
			}
		}
		return false
	}

	if items, ok := asSlice(value); ok {
		for _, item := range items {
			if e.match(item, e.pattern) {
				return true
			}
		}
		return false
	}

	if derive, ok := asDerivation(value); ok {
		return looseEqual(derive(pattern), pattern)
	}

	return looseEqual(pattern, value)
}

func asPredicate(v any) (func(any) bool, bool) {
	switch fn := v.(type) {
	case Predicate:
		return fn, fn != nil
	case func(any) bool:
		return fn, fn != nil
	}
	return nil, false
}

func asDerivation(v any) (func(any) any, bool) {
	switch fn := v.(type) {
	case Derivation:
		return fn, fn != nil
	case func(any) any:
		return fn, fn != nil
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	}
	return nil, false
}

// looseEqual compares two values, treating all numeric kinds as equal when
// they hold the same number.
func looseEqual(a any, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
