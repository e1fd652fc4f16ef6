package openapi

import "maps"

// BearerAuth is the security scheme name for session token authentication.
const BearerAuth = "bearerAuth"

// Components holds reusable schemas, responses, and security schemes.
type Components struct {
	Schemas         map[string]*Schema         `json:"schemas,omitempty"`
	Responses       map[string]*Response       `json:"responses,omitempty"`
	SecuritySchemes map[string]*SecurityScheme `json:"securitySchemes,omitempty"`
}

// SecurityScheme describes an authentication mechanism.
type SecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty"`
}

// RequireBearer returns the security requirement for bearer-authenticated operations.
func RequireBearer() []SecurityRequirement {
	return []SecurityRequirement{{BearerAuth: {}}}
}

// NewComponents creates Components holding the shared error bodies, the
// standard error responses and the bearer token scheme.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error": {Type: "string"},
				},
			},
			"Rejection": {
				Type:     "object",
				Required: []string{"error", "reason"},
				Properties: map[string]*Schema{
					"error": {Type: "string"},
					"reason": {
						Type: "string",
						Enum: []any{"missing_credential", "invalid_token", "expired_token", "unknown_subject"},
					},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":      ResponseJSON("Invalid request", "Error"),
			"Unauthorized":    ResponseJSON("Missing, invalid, or expired session token", "Rejection"),
			"NotFound":        ResponseJSON("Resource not found", "Error"),
			"PayloadTooLarge": ResponseJSON("Upload exceeds the maximum size", "Error"),
			"InternalError":   ResponseJSON("Dispatch or storage failure", "Error"),
		},
		SecuritySchemes: map[string]*SecurityScheme{
			BearerAuth: {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}
