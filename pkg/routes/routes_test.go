package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/neuroscan/pkg/openapi"
	"github.com/JaimeStill/neuroscan/pkg/routes"
)

func TestRegisterHandlers(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/items",
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "",
				Handler: func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				},
			},
			{
				Method:  "GET",
				Pattern: "/{id}",
				Handler: func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				},
			},
		},
	})

	tests := []struct {
		name   string
		method string
		path   string
		wantOK bool
	}{
		{"list items", "GET", "/items", true},
		{"get item", "GET", "/items/123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			mux.ServeHTTP(rec, req)

			if tt.wantOK && rec.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200", rec.Code)
			}
		})
	}
}

func TestNestedGroups(t *testing.T) {
	mux := http.NewServeMux()

	routes.Register(mux, routes.Group{
		Prefix: "/api",
		Children: []routes.Group{
			{
				Prefix: "/v1",
				Routes: []routes.Route{
					{
						Method:  "GET",
						Pattern: "/items",
						Handler: func(w http.ResponseWriter, r *http.Request) {
							w.WriteHeader(http.StatusOK)
						},
					},
				},
			},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/items", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("nested route: got %d, want 200", rec.Code)
	}
}

func TestGroupMiddleware(t *testing.T) {
	mux := http.NewServeMux()

	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	routes.Register(mux, routes.Group{
		Prefix:     "/outer",
		Middleware: []func(http.Handler) http.Handler{tag("outer")},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: func(w http.ResponseWriter, r *http.Request) {
				order = append(order, "handler")
			}},
		},
		Children: []routes.Group{
			{
				Prefix:     "/inner",
				Middleware: []func(http.Handler) http.Handler{tag("inner")},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: func(w http.ResponseWriter, r *http.Request) {
						order = append(order, "handler")
					}},
				},
			},
		},
	})

	t.Run("parent route", func(t *testing.T) {
		order = nil
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/outer", nil))

		if len(order) != 2 || order[0] != "outer" || order[1] != "handler" {
			t.Errorf("order: got %v, want [outer handler]", order)
		}
	})

	t.Run("child route inherits", func(t *testing.T) {
		order = nil
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/outer/inner", nil))

		if len(order) != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
			t.Errorf("order: got %v, want [outer inner handler]", order)
		}
	})
}

func TestDocument(t *testing.T) {
	noop := func(w http.ResponseWriter, r *http.Request) {}

	spec := openapi.NewSpec("test", "1.0.0")
	routes.Document(spec, "/api", routes.Group{
		Prefix:  "/scans",
		Tags:    []string{"Scans"},
		Schemas: map[string]*openapi.Schema{"Scan": {Type: "object"}},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: noop, OpenAPI: &openapi.Operation{Summary: "List"}},
			{Method: "POST", Pattern: "", Handler: noop, OpenAPI: &openapi.Operation{Summary: "Create", Tags: []string{"Custom"}}},
			{Method: "DELETE", Pattern: "/{id}", Handler: noop},
		},
		Children: []routes.Group{
			{
				Prefix: "/reports",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/{name}", Handler: noop, OpenAPI: &openapi.Operation{Summary: "Report"}},
				},
			},
		},
	})

	item, ok := spec.Paths["/api/scans"]
	if !ok {
		t.Fatal("missing /api/scans path")
	}
	get := item.Get(http.MethodGet)
	if get == nil || get.Summary != "List" {
		t.Fatalf("get operation: got %+v", get)
	}
	if get.Tags[0] != "Scans" {
		t.Errorf("get tags: got %v, want group tag", get.Tags)
	}
	if post := item["post"]; post == nil || post.Tags[0] != "Custom" {
		t.Errorf("post operation should keep its own tags: got %+v", post)
	}

	if _, ok := spec.Paths["/api/scans/{id}"]; ok {
		t.Error("undocumented route should not appear")
	}

	child, ok := spec.Paths["/api/scans/reports/{name}"]
	if !ok || child.Get(http.MethodGet) == nil {
		t.Fatal("missing child route")
	}
	if tags := child.Get(http.MethodGet).Tags; tags[0] != "Scans" {
		t.Errorf("child tags: got %v, want inherited group tag", tags)
	}

	if _, ok := spec.Components.Schemas["Scan"]; !ok {
		t.Error("group schema not registered")
	}
}
