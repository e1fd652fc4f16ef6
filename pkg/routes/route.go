package routes

import (
	"net/http"

	"github.com/JaimeStill/neuroscan/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. OpenAPI, when set,
// documents the operation in the generated OpenAPI document.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}
