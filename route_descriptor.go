package wrs

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// RouteDescriptor describes one page reachable by clients: the target
// module, the controller section and the page name. Access them via
// Server.RouteDescriptors().
type RouteDescriptor struct {
	Target  string
	Section string
	Page    string
}

// String returns the descriptor as "target/section/page".
func (r *RouteDescriptor) String() string {
	return r.Target + "/" + r.Section + "/" + r.Page
}

// MarshalJSON returns the JSON representation of the route descriptor.
func (r *RouteDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Route string
	}{
		Route: r.String(),
	})
}

// UnmarshalJSON parses the JSON representation of the route descriptor.
func (r *RouteDescriptor) UnmarshalJSON(data []byte) error {
	fromJSONStruct := struct {
		Route string
	}{}
	if err := json.Unmarshal(data, &fromJSONStruct); err != nil {
		return err
	}

	parts := strings.Split(fromJSONStruct.Route, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return errors.Errorf("invalid route descriptor %q", fromJSONStruct.Route)
	}

	r.Target = parts[0]
	r.Section = parts[1]
	r.Page = parts[2]

	return nil
}

func routeDescriptorsOf(module *Module) []*RouteDescriptor {
	target := strings.TrimSuffix(strings.ToLower(module.name), moduleSuffix)
	var descriptors []*RouteDescriptor
	for _, controller := range module.controllers {
		for _, page := range controller.Pages() {
			descriptors = append(descriptors, &RouteDescriptor{
				Target:  target,
				Section: controller.section,
				Page:    page,
			})
		}
	}
	return descriptors
}
