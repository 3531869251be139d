package wrs

import (
	"strings"
	"sync"
)

// Context carries a single message through the module, controller and page
// of its dispatch. Contexts are pooled and must not be retained after the
// page returns.
type Context struct {
	Connection   *Connection
	Events       *EventBus
	Message      *IncomingMessage
	Interceptors *InterceptorCollection

	module     *Module
	controller *Controller
	page       string

	associatedValues map[string]any
}

var contextPool = sync.Pool{
	New: func() any {
		return &Context{
			associatedValues: map[string]any{},
		}
	},
}

func newContext(connection *Connection, module *Module, message *IncomingMessage) *Context {
	ctx := contextFromPool()

	ctx.Connection = connection
	ctx.Events = connection.server.events
	ctx.Message = message
	ctx.Interceptors = connection.interceptors.Filter(ControllerInterceptor, PageInterceptor)
	ctx.module = module

	return ctx
}

func contextFromPool() *Context {
	ctx := contextPool.Get().(*Context)

	ctx.Connection = nil
	ctx.Events = nil
	ctx.Message = nil
	ctx.Interceptors = nil

	ctx.module = nil
	ctx.controller = nil
	ctx.page = ""

	for k := range ctx.associatedValues {
		delete(ctx.associatedValues, k)
	}

	return ctx
}

func (c *Context) free() {
	contextPool.Put(c)
}

// DigestInfo is the data of module.digest and controller.digest events. It
// is copied from the dispatch context, so it stays valid after the context
// is reused.
type DigestInfo struct {
	Connection *Connection
	Module     string
	Controller string
	Page       string
	Message    IncomingMessage
}

func (c *Context) digestInfo() *DigestInfo {
	info := &DigestInfo{
		Connection: c.Connection,
		Module:     c.Module(),
		Controller: c.Controller(),
		Page:       c.Page(),
	}
	if c.Message != nil {
		info.Message = *c.Message
	}
	return info
}

// Module returns the name of the module handling the message.
func (c *Context) Module() string {
	if c.module == nil {
		return ""
	}
	return c.module.name
}

// Controller returns the name of the controller handling the message, or an
// empty string before the controller is resolved.
func (c *Context) Controller() string {
	if c.controller == nil {
		return ""
	}
	return c.controller.name
}

// Page returns the lowercased name of the page handling the message.
// Messages that fell back to the default page report "default".
func (c *Context) Page() string {
	return c.page
}

// Set stores a value for the remainder of this dispatch.
func (c *Context) Set(key string, value any) {
	c.associatedValues[key] = value
}

// Get returns a value stored with Set.
func (c *Context) Get(key string) any {
	return c.associatedValues[key]
}

// SetOnConnection stores a value in the connection data bag.
func (c *Context) SetOnConnection(key string, value any) {
	c.Connection.Set(key, value)
}

// GetFromConnection returns a value from the connection data bag.
func (c *Context) GetFromConnection(key string) any {
	return c.Connection.Get(key)
}

// Service returns a service the module declared, by case-insensitive name.
func (c *Context) Service(name string) (Service, bool) {
	if c.module == nil {
		return nil, false
	}
	service, ok := c.module.services[strings.ToLower(name)]
	return service, ok
}

// Model returns a model the module declared. The lookup is case-insensitive
// and ignores a trailing "Model".
func (c *Context) Model(name string) (*Model, bool) {
	if c.module == nil {
		return nil, false
	}
	model, ok := c.module.models[modelKey(name)]
	return model, ok
}

// Bind unmarshals the message data into a value.
func (c *Context) Bind(into any) error {
	return c.Message.Bind(into)
}

// Ok is shorthand for the Ok outcome.
func (c *Context) Ok(class string, data any) Outcome {
	return Ok(class, data)
}

// Bad is shorthand for the Bad outcome.
func (c *Context) Bad(code string, message any) Outcome {
	return Bad(code, message)
}
