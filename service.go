package wrs

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrServiceCycle is returned when service dependencies form a cycle.
var ErrServiceCycle = errors.New("service dependency cycle")

// ErrUnknownService is returned when a module or service depends on a
// service that is not registered.
var ErrUnknownService = errors.New("unknown service")

// Service is a long lived collaborator shared by the modules that declare it.
type Service interface {
	Name() string
}

// Initializer is implemented by services that need setup. Init runs once the
// service's dependencies are initialized; the service must call Ready on the
// context once it is usable. Services without Init are ready immediately.
type Initializer interface {
	Init(ctx *ServiceContext) error
}

// Dependent is implemented by services that depend on other services.
type Dependent interface {
	Dependencies() []string
}

// ServiceContext is handed to Initializer.Init.
type ServiceContext struct {
	Events       *EventBus
	Interceptors *InterceptorCollection
	Dependencies []Service

	service   Service
	readyOnce sync.Once
}

// Dependency returns an initialized dependency by case-insensitive name.
func (c *ServiceContext) Dependency(name string) (Service, bool) {
	for _, dependency := range c.Dependencies {
		if strings.EqualFold(dependency.Name(), name) {
			return dependency, true
		}
	}
	return nil, false
}

// Ready marks the service as ready by firing service.ready named after it.
// service.online is emitted unnamed beforehand so that observers not
// scoped to the service see it too. Calling Ready more than once has no
// further effect.
func (c *ServiceContext) Ready() {
	c.readyOnce.Do(func() {
		c.Events.Emit(EventServiceOnline, c.service)
		c.Events.Fire(EventServiceReady, c.service, WithName(c.service.Name()))
	})
}

type serviceRegistry struct {
	mu       sync.Mutex
	services []Service
	byName   map[string]Service
}

func newServiceRegistry() *serviceRegistry {
	return &serviceRegistry{byName: map[string]Service{}}
}

func (r *serviceRegistry) add(services ...Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, service := range services {
		key := strings.ToLower(service.Name())
		if _, ok := r.byName[key]; ok {
			continue
		}
		r.byName[key] = service
		r.services = append(r.services, service)
	}
}

func (r *serviceRegistry) get(name string) (Service, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	service, ok := r.byName[strings.ToLower(name)]
	return service, ok
}

// ordered returns the services sorted so that every service comes after its
// dependencies.
func (r *serviceRegistry) ordered() ([]Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	const (
		unvisited = iota
		visiting
		visited
	)
	state := map[string]int{}
	ordered := make([]Service, 0, len(r.services))

	var visit func(service Service) error
	visit = func(service Service) error {
		key := strings.ToLower(service.Name())
		switch state[key] {
		case visiting:
			return errors.Wrapf(ErrServiceCycle, "at %s", service.Name())
		case visited:
			return nil
		}
		state[key] = visiting
		if dependent, ok := service.(Dependent); ok {
			for _, name := range dependent.Dependencies() {
				dependency, ok := r.byName[strings.ToLower(name)]
				if !ok {
					return errors.Wrapf(ErrUnknownService, "%s depends on %s", service.Name(), name)
				}
				if err := visit(dependency); err != nil {
					return err
				}
			}
		}
		state[key] = visited
		ordered = append(ordered, service)
		return nil
	}

	for _, service := range r.services {
		if err := visit(service); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// init initializes every service in dependency order. onAllReady is called
// once every service has signalled readiness.
func (r *serviceRegistry) init(events *EventBus, interceptors *InterceptorRegistry, onAllReady func()) error {
	ordered, err := r.ordered()
	if err != nil {
		return err
	}

	if len(ordered) == 0 {
		onAllReady()
		return nil
	}

	var mu sync.Mutex
	pending := len(ordered)
	for _, service := range ordered {
		events.Once(EventServiceReady, func(*Event) {
			mu.Lock()
			pending -= 1
			done := pending == 0
			mu.Unlock()
			if done {
				onAllReady()
			}
		}, WithName(service.Name()))
	}

	for _, service := range ordered {
		ctx := &ServiceContext{
			Events:       events,
			Interceptors: interceptors.Collection().Filter(ServiceInterceptor).Check(service.Name()),
			service:      service,
		}
		if dependent, ok := service.(Dependent); ok {
			for _, name := range dependent.Dependencies() {
				dependency, _ := r.get(name)
				ctx.Dependencies = append(ctx.Dependencies, dependency)
			}
		}

		initializer, ok := service.(Initializer)
		if !ok {
			ctx.Ready()
			continue
		}
		if err := initializer.Init(ctx); err != nil {
			return errors.Wrapf(err, "failed to initialize service %s", service.Name())
		}
	}

	return nil
}
