package wrs

// Lifecycle event types emitted on the event bus.
const (
	EventConnectionRise    = "connection.rise"
	EventConnectionDrop    = "connection.drop"
	EventConnectionClose   = "connection.close"
	EventConnectionError   = "connection.error"
	EventConnectionPing    = "connection.ping"
	EventConnectionPong    = "connection.pong"
	EventConnectionMessage = "connection.message"
	EventConnectionParsed  = "connection.parsed"
	EventConnectionDigest  = "connection.digest"
	EventConnectionSend    = "connection.send"

	EventModuleDigest     = "module.digest"
	EventControllerDigest = "controller.digest"

	EventServiceReady    = "service.ready"
	EventServiceOnline   = "service.online"
	EventServiceAllReady = "service.all.ready"

	EventServerReady     = "server.ready"
	EventServerBroadcast = "server.broadcast"
	EventServerError     = "server.error"
	EventServerBadMethod = "server.badmethod"

	EventWebsocketAccept = "websocket.accept"
	EventWebsocketReject = "websocket.reject"

	EventAuthDisconnect = "auth.disconnect"

	// EventComposer is the type carried by events built by Decompose.
	EventComposer = "composer"
)

// Event is a single notification travelling through the EventBus. Events are
// immutable once constructed.
type Event struct {
	eventType string
	name      string
	data      any
	params    EventParams
}

// NewEvent creates an event. An empty name means the event is not scoped to
// a named originator.
func NewEvent(eventType string, name string, data any) *Event {
	return &Event{
		eventType: eventType,
		name:      name,
		data:      data,
	}
}

// Type returns the dot-namespaced event type.
func (e *Event) Type() string {
	return e.eventType
}

// Name returns the originator tag of the event, or an empty string.
func (e *Event) Name() string {
	return e.name
}

// Data returns the event payload.
func (e *Event) Data() any {
	return e.data
}

// Params returns the segments captured by the like-pattern that delivered
// this event. It is nil for exact deliveries.
func (e *Event) Params() EventParams {
	return e.params
}

func (e *Event) withParams(params EventParams) *Event {
	if len(params) == 0 {
		return e
	}
	return &Event{
		eventType: e.eventType,
		name:      e.name,
		data:      e.data,
		params:    params,
	}
}

func (e *Event) matches(eventType string, name string) bool {
	return e.eventType == eventType && (name == "" || e.name == name)
}
