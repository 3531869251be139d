package wrs

import "strings"

const moduleSuffix = "module"

// Module is a dispatch target. It owns the controllers of its sections and
// declares the services, models and response codes they use.
type Module struct {
	name         string
	controllers  []*Controller
	serviceNames []string
	modelList    []*Model
	codes        []string
	dependencies []*Module

	services map[string]Service
	models   map[string]*Model
}

// NewModule creates a module. Clients address it by its name, with or
// without a trailing "Module", case-insensitively.
func NewModule(name string) *Module {
	return &Module{
		name:     name,
		services: map[string]Service{},
		models:   map[string]*Model{},
	}
}

// Controller adds controllers to the module.
func (m *Module) Controller(controllers ...*Controller) *Module {
	m.controllers = append(m.controllers, controllers...)
	return m
}

// Service declares services, by name, that the module's pages use. They are
// resolved against the services registered on the server when it starts.
func (m *Module) Service(names ...string) *Module {
	m.serviceNames = append(m.serviceNames, names...)
	return m
}

// Model adds models to the module.
func (m *Module) Model(models ...*Model) *Module {
	for _, model := range models {
		m.modelList = append(m.modelList, model)
		m.models[modelKey(model.name)] = model
	}
	return m
}

// Codes declares response codes the module adds to the server's code table.
func (m *Module) Codes(codes ...string) *Module {
	m.codes = append(m.codes, codes...)
	return m
}

// Depends declares modules registered together with this one.
func (m *Module) Depends(modules ...*Module) *Module {
	m.dependencies = append(m.dependencies, modules...)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Controllers returns the controllers of the module.
func (m *Module) Controllers() []*Controller {
	return m.controllers
}

func (m *Module) matches(target string) bool {
	return moduleKey(m.name) == moduleKey(target)
}

func (m *Module) digest(ctx *Context) Outcome {
	var controller *Controller
	for _, c := range m.controllers {
		if c.section == ctx.Message.Section {
			controller = c
			break
		}
	}
	if controller == nil {
		return Code(CodeBadSection)
	}

	ctx.controller = controller

	ctx.Events.Emit(EventModuleDigest, ctx.digestInfo())

	return interceptDispatch(ctx.Interceptors.Filter(ControllerInterceptor), controller.name, ctx, func() Outcome {
		return controller.digest(ctx)
	})
}

func moduleKey(name string) string {
	key := strings.ToLower(name)
	if !strings.HasSuffix(key, moduleSuffix) {
		key += moduleSuffix
	}
	return key
}
