package wrs

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Callback receives events delivered by the EventBus.
type Callback func(event *Event)

// ResponderFunc computes the answer to a Request.
type ResponderFunc func(event *Event) any

const patternCacheSize = 256

// EventBus is a synchronous publish/subscribe hub with exact and pattern
// ("like") matching, one-shot and counted subscriptions, fire-once-ever
// emissions, single-answer request/respond channels and a Composer.
//
// Callbacks run on the goroutine that emitted the event, after the bus lock
// has been released, so they may freely call back into the bus. A
// subscription is claimed under the lock before its callback runs, which
// guarantees an exhausted subscription is gone before the next emission
// touches its type.
//
// The history behind Once, Fire and HasFired keeps the first event of each
// type and name along with a count, not every event.
type EventBus struct {
	mu         sync.Mutex
	handlers   map[string][]*handler
	types      []string
	responders map[string]*responder
	fired      map[string][]*firedRecord
	patterns   *lru.Cache[string, *Pattern]
	composer   *Composer
}

// firedRecord is the history of one type and name: the first event and the
// number of events since.
type firedRecord struct {
	first *Event
	count int
}

type counter struct {
	count int
	times int
}

func (c *counter) elapsed() bool {
	return c.count >= c.times
}

type handler struct {
	counter
	name     string
	callback Callback
	like     bool
}

type responder struct {
	counter
	name     string
	response any
	callable bool
}

type delivery struct {
	callback Callback
	event    *Event
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	patterns, err := lru.New[string, *Pattern](patternCacheSize)
	if err != nil {
		panic(err)
	}
	return &EventBus{
		handlers:   map[string][]*handler{},
		responders: map[string]*responder{},
		fired:      map[string][]*firedRecord{},
		patterns:   patterns,
		composer:   NewComposer(),
	}
}

// Emit records an event in the bus history and invokes every exact
// subscription for its type, in registration order. Unless WithoutLike is
// given, every like-eligible subscription registered under another type that
// matches the emitted type as a pattern is invoked afterwards. WithName
// restricts both passes to subscriptions with the same name.
func (b *EventBus) Emit(eventType string, data any, opts ...Option) {
	o := resolveOptions(opts)
	event := NewEvent(eventType, o.name, data)

	b.mu.Lock()
	b.record(event)
	deliveries := b.claim(event, !o.noLike)
	b.mu.Unlock()

	deliver(deliveries)
}

// Fire is like Emit but only emits if no event with the same type and name
// is in the history yet. When the event already fired, like-eligible
// subscriptions of matching types that never fired under that name still
// receive it.
func (b *EventBus) Fire(eventType string, data any, opts ...Option) {
	o := resolveOptions(opts)
	event := NewEvent(eventType, o.name, data)

	b.mu.Lock()
	if b.countFired(eventType, o.name) == 0 {
		b.record(event)
		deliveries := b.claim(event, !o.noLike)
		b.mu.Unlock()
		deliver(deliveries)
		return
	}

	var deliveries []delivery
	if !o.noLike {
		for _, handlerType := range b.handlerTypes() {
			if handlerType == eventType || b.countFired(handlerType, o.name) != 0 {
				continue
			}
			params, ok := b.likeMatch(handlerType, eventType)
			if !ok {
				continue
			}
			deliveries = b.claimType(deliveries, handlerType, event.withParams(params), true)
		}
	}
	b.mu.Unlock()

	deliver(deliveries)
}

// On subscribes a callback to an event type. WithName filters emissions by
// name, WithTimes limits the number of invocations and WithLike opts the
// subscription into pattern-matched emissions of other types.
func (b *EventBus) On(eventType string, callback Callback, opts ...Option) {
	if callback == nil {
		panic("wrs: nil event callback")
	}
	o := resolveOptions(opts)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribe(eventType, &handler{
		counter:  counter{times: o.times},
		name:     o.name,
		callback: callback,
		like:     o.like,
	})
}

// Like is shorthand for On with WithLike.
func (b *EventBus) Like(eventType string, callback Callback, opts ...Option) {
	b.On(eventType, callback, append(opts, WithLike())...)
}

// Once invokes the callback for the first event of the given type. If such
// an event is already in the history the callback runs immediately with it
// and no subscription is added.
func (b *EventBus) Once(eventType string, callback Callback, opts ...Option) {
	if callback == nil {
		panic("wrs: nil event callback")
	}
	o := resolveOptions(opts)

	b.mu.Lock()
	if event := b.firstFired(eventType, o.name); event != nil {
		b.mu.Unlock()
		callback(event)
		return
	}
	b.subscribe(eventType, &handler{
		counter:  counter{times: 1},
		name:     o.name,
		callback: callback,
	})
	b.mu.Unlock()
}

// Onces invokes the callback once every listed type has fired at least once.
// The types are consumed in order, each through Once, so repeated emissions
// of an already consumed type do not trigger the callback early.
func (b *EventBus) Onces(eventTypes []string, callback Callback, opts ...Option) {
	switch len(eventTypes) {
	case 0:
		return
	case 1:
		b.Once(eventTypes[0], callback, opts...)
		return
	}
	rest := append([]string(nil), eventTypes[1:]...)
	b.Once(eventTypes[0], func(*Event) {
		b.Onces(rest, callback, opts...)
	}, opts...)
}

// Ons subscribes the callback independently to every listed type.
func (b *EventBus) Ons(eventTypes []string, callback Callback, opts ...Option) {
	for _, eventType := range eventTypes {
		b.On(eventType, callback, opts...)
	}
}

// Off removes the subscriptions of a type whose name equals the given name.
// Without WithName only unnamed subscriptions are removed.
func (b *EventBus) Off(eventType string, opts ...Option) {
	o := resolveOptions(opts)

	b.mu.Lock()
	defer b.mu.Unlock()

	handlers, ok := b.handlers[eventType]
	if !ok {
		return
	}
	remaining := make([]*handler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != o.name {
			remaining = append(remaining, h)
		}
	}
	b.setHandlers(eventType, remaining)
}

// Respond registers the responder for a type. Only the first registration for
// a type is kept; later calls are ignored. A ResponderFunc (or
// func(*Event) any) response is invoked on each Request unless WithoutCall is
// given, any other value is returned as is.
func (b *EventBus) Respond(eventType string, response any, opts ...Option) {
	o := resolveOptions(opts)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.responders[eventType]; ok {
		return
	}
	b.responders[eventType] = &responder{
		counter:  counter{times: o.times},
		name:     o.name,
		response: response,
		callable: !o.noCall,
	}
}

// Request asks the responder of a type for its answer. The payload is wrapped
// in an event unless it already is one. Returns nil when no responder is
// registered or the responder is exhausted.
func (b *EventBus) Request(eventType string, payload any, opts ...Option) any {
	o := resolveOptions(opts)

	b.mu.Lock()
	r, ok := b.responders[eventType]
	if !ok || r.elapsed() {
		b.mu.Unlock()
		return nil
	}
	r.count++
	response, callable := r.response, r.callable
	b.mu.Unlock()

	event, ok := payload.(*Event)
	if !ok {
		event = NewEvent(eventType, o.name, payload)
	}

	if callable {
		switch fn := response.(type) {
		case ResponderFunc:
			return fn(event)
		case func(*Event) any:
			return fn(event)
		}
	}
	return response
}

// Compose registers a composer entry on the bus. See Composer.Compose.
func (b *EventBus) Compose(pattern any, callback Callback, opts ...Option) {
	b.composer.Compose(pattern, callback, opts...)
}

// Decompose evaluates the bus composer entries against a value. See
// Composer.Decompose.
func (b *EventBus) Decompose(value any, contextData map[string]any, opts ...Option) int {
	return b.composer.Decompose(value, contextData, opts...)
}

// HasFired returns how many events of the given type (and name, when
// WithName is given) are in the history.
func (b *EventBus) HasFired(eventType string, opts ...Option) int {
	o := resolveOptions(opts)

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.countFired(eventType, o.name)
}

// Listeners returns the number of live subscriptions for a type.
func (b *EventBus) Listeners(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[eventType])
}

// record adds an event to the history. Only the first event of each type
// and name is kept, later ones are counted.
func (b *EventBus) record(event *Event) {
	for _, r := range b.fired[event.eventType] {
		if r.first.name == event.name {
			r.count += 1
			return
		}
	}
	b.fired[event.eventType] = append(b.fired[event.eventType], &firedRecord{first: event, count: 1})
}

// countFired counts the events of a type. An empty name counts every name.
func (b *EventBus) countFired(eventType string, name string) int {
	count := 0
	for _, r := range b.fired[eventType] {
		if r.first.matches(eventType, name) {
			count += r.count
		}
	}
	return count
}

// firstFired returns the earliest event of a type, or nil. An empty name
// matches every name.
func (b *EventBus) firstFired(eventType string, name string) *Event {
	for _, r := range b.fired[eventType] {
		if r.first.matches(eventType, name) {
			return r.first
		}
	}
	return nil
}

func (b *EventBus) subscribe(eventType string, h *handler) {
	if _, ok := b.handlers[eventType]; !ok {
		b.types = append(b.types, eventType)
	}
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

func (b *EventBus) handlerTypes() []string {
	return append([]string(nil), b.types...)
}

func (b *EventBus) claim(event *Event, like bool) []delivery {
	deliveries := b.claimType(nil, event.eventType, event, false)
	if !like {
		return deliveries
	}
	for _, handlerType := range b.handlerTypes() {
		if handlerType == event.eventType {
			continue
		}
		params, ok := b.likeMatch(handlerType, event.eventType)
		if !ok {
			continue
		}
		deliveries = b.claimType(deliveries, handlerType, event.withParams(params), true)
	}
	return deliveries
}

func (b *EventBus) claimType(deliveries []delivery, handlerType string, event *Event, likeOnly bool) []delivery {
	handlers, ok := b.handlers[handlerType]
	if !ok {
		return deliveries
	}
	for _, h := range handlers {
		if likeOnly && !h.like {
			continue
		}
		if event.name != "" && h.name != event.name {
			continue
		}
		if h.elapsed() {
			continue
		}
		h.count += 1
		deliveries = append(deliveries, delivery{callback: h.callback, event: event})
	}

	remaining := make([]*handler, 0, len(handlers))
	for _, h := range handlers {
		if !h.elapsed() {
			remaining = append(remaining, h)
		}
	}
	b.setHandlers(handlerType, remaining)

	return deliveries
}

func (b *EventBus) setHandlers(eventType string, handlers []*handler) {
	if len(handlers) != 0 {
		b.handlers[eventType] = handlers
		return
	}
	delete(b.handlers, eventType)
	for i, t := range b.types {
		if t == eventType {
			b.types = append(b.types[:i], b.types[i+1:]...)
			break
		}
	}
}

func (b *EventBus) likeMatch(handlerType string, eventType string) (EventParams, bool) {
	pattern, ok := b.patterns.Get(handlerType)
	if !ok {
		compiled, err := NewPattern(handlerType)
		if err != nil {
			compiled = nil
		}
		b.patterns.Add(handlerType, compiled)
		pattern = compiled
	}
	if pattern == nil {
		return nil, false
	}
	return pattern.Match(eventType)
}

func deliver(deliveries []delivery) {
	for _, d := range deliveries {
		d.callback(d.event)
	}
}
