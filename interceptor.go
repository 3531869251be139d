package wrs

import (
	"reflect"
	"strings"
	"sync"
)

// InterceptorKind identifies the extension point an interceptor is attached
// to.
type InterceptorKind int

const (
	ConnectionInterceptor InterceptorKind = iota
	ModuleInterceptor
	ControllerInterceptor
	PageInterceptor
	ServiceInterceptor
)

func (k InterceptorKind) String() string {
	switch k {
	case ConnectionInterceptor:
		return "connection"
	case ModuleInterceptor:
		return "module"
	case ControllerInterceptor:
		return "controller"
	case PageInterceptor:
		return "page"
	case ServiceInterceptor:
		return "service"
	}
	return "unknown"
}

// InterceptFunc decides what an interceptor contributes for a key.
type InterceptFunc func(key string, args ...any) Interception

// Interceptor is an override point attached to a single key of a single
// kind. Interceptors are singletons per (kind, key); obtain them through an
// InterceptorRegistry.
type Interceptor struct {
	kind InterceptorKind
	key  string

	mu       sync.RWMutex
	handlers []InterceptFunc
}

// Kind returns the extension point of the interceptor.
func (i *Interceptor) Kind() InterceptorKind {
	return i.kind
}

// Key returns the lookup key of the interceptor.
func (i *Interceptor) Key() string {
	return i.key
}

// Handle adds an intercept function to the interceptor. Every function
// contributes its own result to the combined interception.
func (i *Interceptor) Handle(fn InterceptFunc) *Interceptor {
	if fn == nil {
		panic("wrs: nil intercept func")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.handlers = append(i.handlers, fn)
	return i
}

func (i *Interceptor) intercept(key string, args []any) []Interception {
	i.mu.RLock()
	handlers := i.handlers
	i.mu.RUnlock()

	results := make([]Interception, 0, len(handlers))
	for _, fn := range handlers {
		results = append(results, fn(key, args...))
	}
	return results
}

type interceptorKey struct {
	kind InterceptorKind
	key  string
}

// InterceptorRegistry owns every interceptor of a server. Interceptors live
// in an arena and are looked up by (kind, key).
type InterceptorRegistry struct {
	mu    sync.RWMutex
	arena []*Interceptor
	index map[interceptorKey]int
}

// NewInterceptorRegistry creates an empty registry.
func NewInterceptorRegistry() *InterceptorRegistry {
	return &InterceptorRegistry{
		index: map[interceptorKey]int{},
	}
}

// Attach returns the interceptor for a kind and key, creating it on first
// use. Attaching the same key twice returns the same instance.
func (r *InterceptorRegistry) Attach(kind InterceptorKind, key string) *Interceptor {
	k := interceptorKey{kind: kind, key: key}

	r.mu.RLock()
	if i, ok := r.index[k]; ok {
		interceptor := r.arena[i]
		r.mu.RUnlock()
		return interceptor
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[k]; ok {
		return r.arena[i]
	}
	interceptor := &Interceptor{kind: kind, key: key}
	r.index[k] = len(r.arena)
	r.arena = append(r.arena, interceptor)
	return interceptor
}

// AttachConnection attaches to a connection lifecycle event such as "rise"
// or "drop". The key is namespaced as "connection.<event>".
func (r *InterceptorRegistry) AttachConnection(event string) *Interceptor {
	return r.Attach(ConnectionInterceptor, connectionKey(event))
}

// AttachModule attaches to the dispatch of a module.
func (r *InterceptorRegistry) AttachModule(name string) *Interceptor {
	return r.Attach(ModuleInterceptor, name)
}

// AttachController attaches to the dispatch of a controller.
func (r *InterceptorRegistry) AttachController(name string) *Interceptor {
	return r.Attach(ControllerInterceptor, name)
}

// AttachPage attaches to a single page of a controller.
func (r *InterceptorRegistry) AttachPage(controller string, page string) *Interceptor {
	return r.Attach(PageInterceptor, pageKey(controller, page))
}

// AttachService attaches to a service. The service receives the interceptor
// through its ServiceContext.
func (r *InterceptorRegistry) AttachService(name string) *Interceptor {
	return r.Attach(ServiceInterceptor, name)
}

// Collection returns a collection holding every interceptor attached so far.
func (r *InterceptorRegistry) Collection() *InterceptorCollection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NewInterceptorCollection(r.arena...)
}

func connectionKey(event string) string {
	if strings.HasPrefix(event, "connection.") {
		return event
	}
	return "connection." + event
}

func pageKey(controller string, page string) string {
	return strings.ToLower(controller) + "." + strings.ToLower(page)
}

// InterceptorCollection is an ordered set of interceptors.
type InterceptorCollection struct {
	interceptors []*Interceptor
}

// NewInterceptorCollection creates a collection from the given interceptors,
// dropping duplicates.
func NewInterceptorCollection(interceptors ...*Interceptor) *InterceptorCollection {
	c := &InterceptorCollection{}
	c.Push(interceptors...)
	return c
}

// Push appends interceptors not already in the collection.
func (c *InterceptorCollection) Push(interceptors ...*Interceptor) *InterceptorCollection {
	for _, interceptor := range interceptors {
		if interceptor == nil || c.contains(interceptor) {
			continue
		}
		c.interceptors = append(c.interceptors, interceptor)
	}
	return c
}

// Len returns the number of interceptors in the collection.
func (c *InterceptorCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.interceptors)
}

// Filter returns a new collection with the interceptors of the given kinds.
func (c *InterceptorCollection) Filter(kinds ...InterceptorKind) *InterceptorCollection {
	filtered := &InterceptorCollection{}
	if c == nil {
		return filtered
	}
	for _, interceptor := range c.interceptors {
		for _, kind := range kinds {
			if interceptor.kind == kind {
				filtered.interceptors = append(filtered.interceptors, interceptor)
				break
			}
		}
	}
	return filtered
}

// Check returns a new collection with the interceptors attached to key.
func (c *InterceptorCollection) Check(key string) *InterceptorCollection {
	checked := &InterceptorCollection{}
	if c == nil {
		return checked
	}
	for _, interceptor := range c.interceptors {
		if interceptor.key == key {
			checked.interceptors = append(checked.interceptors, interceptor)
		}
	}
	return checked
}

// Intercept combines the results of every interceptor attached to key and
// resolves the combined result against the branches.
//
// Results are combined as follows: no results or any Defer yields Defer, any
// Skip yields Skip, otherwise the first substitute wins. The non-Any branches
// are then scanned in order. The first branch whose kind matches decides: a
// nil Fn means no override and Intercept returns false; a Fn returning
// Continue passes to the next matching branch; any other Fn result is
// returned. When no branch decides, the Any branch is used if present.
func (c *InterceptorCollection) Intercept(key string, args []any, branches ...Branch) (any, bool) {
	combined := c.combine(key, args)

	var fallback *Branch
	for i := range branches {
		branch := &branches[i]
		if branch.Kind == AnyKind {
			if fallback == nil {
				fallback = branch
			}
			continue
		}
		if !branch.Kind.matches(combined) {
			continue
		}
		if branch.Fn == nil {
			return nil, false
		}
		result := branch.Fn(combined.value)
		if result.next {
			continue
		}
		return result.value, true
	}

	if fallback == nil || fallback.Fn == nil {
		return nil, false
	}
	result := fallback.Fn(combined.value)
	if result.next {
		return nil, false
	}
	return result.value, true
}

func (c *InterceptorCollection) combine(key string, args []any) Interception {
	var results []Interception
	for _, interceptor := range c.Check(key).interceptors {
		results = append(results, interceptor.intercept(key, args)...)
	}
	if len(results) == 0 {
		return Defer()
	}

	skipped := false
	for _, result := range results {
		switch result.kind {
		case interceptionDefer:
			return Defer()
		case interceptionSkip:
			skipped = true
		}
	}
	if skipped {
		return Skip()
	}
	return results[0]
}

func (c *InterceptorCollection) contains(interceptor *Interceptor) bool {
	for _, existing := range c.interceptors {
		if existing == interceptor {
			return true
		}
	}
	return false
}

type interceptionKind int

const (
	interceptionDefer interceptionKind = iota
	interceptionSkip
	interceptionSubstitute
)

// Interception is the result of an intercept function. The zero value is
// Defer.
type Interception struct {
	kind  interceptionKind
	value any
}

// Defer lets the default behaviour proceed.
func Defer() Interception {
	return Interception{}
}

// Skip signals that no further interceptors apply. It resolves against the
// Null, Undefined and Falsy branches.
func Skip() Interception {
	return Interception{kind: interceptionSkip}
}

// Substitute replaces the default behaviour with a value. A nil value is the
// same as Defer.
func Substitute(value any) Interception {
	if value == nil {
		return Defer()
	}
	return Interception{kind: interceptionSubstitute, value: value}
}

// IsDefer reports whether the interception defers to the default behaviour.
func (i Interception) IsDefer() bool {
	return i.kind == interceptionDefer
}

// IsSkip reports whether the interception is a Skip.
func (i Interception) IsSkip() bool {
	return i.kind == interceptionSkip
}

// Value returns the substitute value, or nil.
func (i Interception) Value() any {
	return i.value
}

// BranchKind is the runtime kind a Branch resolves.
type BranchKind int

const (
	StringKind BranchKind = iota
	NumberKind
	BooleanKind
	ObjectKind
	NullKind
	UndefinedKind
	FunctionKind
	FalsyKind
	TruthyKind
	AnyKind
)

func (k BranchKind) matches(i Interception) bool {
	switch k {
	case AnyKind:
		return true
	case NullKind:
		return i.kind != interceptionSubstitute
	case UndefinedKind:
		return i.kind == interceptionSkip
	case FalsyKind:
		return i.kind != interceptionSubstitute || !truthy(i.value)
	case TruthyKind:
		return i.kind == interceptionSubstitute && truthy(i.value)
	}
	if i.kind != interceptionSubstitute {
		return false
	}

	rv := reflect.ValueOf(i.value)
	switch k {
	case StringKind:
		return rv.Kind() == reflect.String
	case NumberKind:
		_, ok := toFloat(i.value)
		return ok
	case BooleanKind:
		return rv.Kind() == reflect.Bool
	case FunctionKind:
		return rv.Kind() == reflect.Func
	case ObjectKind:
		switch rv.Kind() {
		case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Interface:
			return true
		}
	}
	return false
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	if f, ok := toFloat(v); ok {
		return f != 0 && f == f
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() != 0
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// BranchResult is what a branch function returns: either a resolved value or
// Continue.
type BranchResult struct {
	value any
	next  bool
}

// Resolved ends the resolution with a value.
func Resolved(value any) BranchResult {
	return BranchResult{value: value}
}

// Continue passes the resolution on to the next matching branch.
func Continue() BranchResult {
	return BranchResult{next: true}
}

// BranchFunc handles a combined interception value.
type BranchFunc func(value any) BranchResult

// Branch pairs a kind with the function that handles it. A nil Fn means the
// kind explicitly produces no override.
type Branch struct {
	Kind BranchKind
	Fn   BranchFunc
}

func OnString(fn BranchFunc) Branch    { return Branch{Kind: StringKind, Fn: fn} }
func OnNumber(fn BranchFunc) Branch    { return Branch{Kind: NumberKind, Fn: fn} }
func OnBoolean(fn BranchFunc) Branch   { return Branch{Kind: BooleanKind, Fn: fn} }
func OnObject(fn BranchFunc) Branch    { return Branch{Kind: ObjectKind, Fn: fn} }
func OnNull(fn BranchFunc) Branch      { return Branch{Kind: NullKind, Fn: fn} }
func OnUndefined(fn BranchFunc) Branch { return Branch{Kind: UndefinedKind, Fn: fn} }
func OnFunction(fn BranchFunc) Branch  { return Branch{Kind: FunctionKind, Fn: fn} }
func OnFalsy(fn BranchFunc) Branch     { return Branch{Kind: FalsyKind, Fn: fn} }
func OnTruthy(fn BranchFunc) Branch    { return Branch{Kind: TruthyKind, Fn: fn} }
func OnAny(fn BranchFunc) Branch       { return Branch{Kind: AnyKind, Fn: fn} }
