package routes

import (
	"net/http"

	"github.com/JaimeStill/neuroscan/pkg/middleware"
	"github.com/JaimeStill/neuroscan/pkg/openapi"
)

// Group organizes routes under a common prefix. Middleware wraps every route
// in the group and its children, outermost first. Tags and Schemas feed the
// OpenAPI document produced by Document.
type Group struct {
	Prefix     string
	Tags       []string
	Schemas    map[string]*openapi.Schema
	Middleware []func(http.Handler) http.Handler
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(
	mux *http.ServeMux,
	parentPrefix string,
	parentMiddleware []func(http.Handler) http.Handler,
	group Group,
) {
	fullPrefix := parentPrefix + group.Prefix

	stack := make(middleware.Chain, 0, len(parentMiddleware)+len(group.Middleware))
	stack = append(stack, parentMiddleware...)
	stack = append(stack, group.Middleware...)

	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.Handle(pattern, stack.Then(route.Handler))
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, stack, child)
	}
}

// Document adds every route carrying OpenAPI metadata to spec. Paths are
// prefixed with basePath; group tags apply to operations that set none.
func Document(spec *openapi.Spec, basePath string, groups ...Group) {
	for _, group := range groups {
		documentGroup(spec, basePath, nil, group)
	}
}

func documentGroup(spec *openapi.Spec, parentPrefix string, parentTags []string, group Group) {
	fullPrefix := parentPrefix + group.Prefix

	tags := group.Tags
	if len(tags) == 0 {
		tags = parentTags
	}

	if len(group.Schemas) > 0 {
		spec.Components.AddSchemas(group.Schemas)
	}

	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}

		op := *route.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = tags
		}

		path := fullPrefix + route.Pattern
		if path == "" {
			path = "/"
		}
		item, ok := spec.Paths[path]
		if !ok {
			item = openapi.PathItem{}
			spec.Paths[path] = item
		}
		item.Set(route.Method, &op)
	}

	for _, child := range group.Children {
		documentGroup(spec, fullPrefix, tags, child)
	}
}
