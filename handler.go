package wrs

// PageFunc handles a message routed to a controller page.
type PageFunc func(ctx *Context) Outcome

// OverrideFunc replaces the dispatch of a module, controller or page. Module
// and controller interceptors substitute one to take over the request.
type OverrideFunc func(ctx *Context) Outcome

// Sendable is implemented by values that convert themselves before being
// sent as Ok data, such as model records hiding some of their columns.
type Sendable interface {
	Sendable() any
}

// Disconnecter is implemented by the value stored under the "auth" key of a
// connection. Disconnect is called when the connection drops.
type Disconnecter interface {
	Disconnect()
}

func toSendable(data any) any {
	if sendable, ok := data.(Sendable); ok {
		return sendable.Sendable()
	}
	return data
}

func asOverride(v any) (OverrideFunc, bool) {
	switch fn := v.(type) {
	case OverrideFunc:
		return fn, fn != nil
	case func(*Context) Outcome:
		return fn, fn != nil
	case PageFunc:
		return OverrideFunc(fn), fn != nil
	}
	return nil, false
}
