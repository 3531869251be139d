package wrs

import (
	"sort"
	"strings"
)

const defaultPage = "default"

// Controller groups the pages of a section. Messages reach a controller when
// their section equals the controller's section exactly.
type Controller struct {
	name    string
	section string
	pages   map[string]PageFunc
}

// NewController creates a controller for a section.
func NewController(name string, section string) *Controller {
	return &Controller{
		name:    name,
		section: section,
		pages:   map[string]PageFunc{},
	}
}

// Page registers a page. Page names are case-insensitive.
func (c *Controller) Page(name string, fn PageFunc) *Controller {
	if fn == nil {
		panic("wrs: nil page func for " + c.name + "." + name)
	}
	c.pages[strings.ToLower(name)] = fn
	return c
}

// Default registers the page used when the requested page does not exist.
func (c *Controller) Default(fn PageFunc) *Controller {
	return c.Page(defaultPage, fn)
}

// Name returns the controller name.
func (c *Controller) Name() string {
	return c.name
}

// Section returns the section the controller serves.
func (c *Controller) Section() string {
	return c.section
}

// Pages returns the sorted names of the registered pages.
func (c *Controller) Pages() []string {
	names := make([]string, 0, len(c.pages))
	for name := range c.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Controller) digest(ctx *Context) Outcome {
	page := strings.ToLower(ctx.Message.Page)
	fn, ok := c.pages[page]
	if !ok {
		fn, ok = c.pages[defaultPage]
		page = defaultPage
	}
	if !ok {
		return NotDigestible()
	}
	ctx.page = page

	ctx.Events.Emit(EventControllerDigest, ctx.digestInfo())

	return interceptDispatch(ctx.Interceptors.Filter(PageInterceptor), pageKey(c.name, page), ctx, func() Outcome {
		return fn(ctx).normalize()
	})
}
