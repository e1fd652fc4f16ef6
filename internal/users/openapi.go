package users

import "github.com/JaimeStill/neuroscan/pkg/openapi"

type spec struct {
	Register *openapi.Operation
	Login    *openapi.Operation
}

// Spec documents the authentication endpoints.
var Spec = spec{
	Register: &openapi.Operation{
		Summary:     "Register an account",
		Description: "Creates an account. Emails are trimmed and lower-cased before storage.",
		RequestBody: openapi.RequestBodyJSON("Credentials", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Account created", "RegisterResponse"),
			400: openapi.ResponseRef("BadRequest"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Login: &openapi.Operation{
		Summary:     "Issue a session token",
		Description: "Verifies credentials and returns a bearer token valid for 24 hours.",
		RequestBody: openapi.RequestBodyJSON("Credentials", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Session token", "LoginResponse"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Credentials": {
			Type:     "object",
			Required: []string{"email", "password"},
			Properties: map[string]*openapi.Schema{
				"email":    {Type: "string", Format: "email"},
				"password": {Type: "string", Description: "At most 72 bytes"},
			},
		},
		"RegisterResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"message": {Type: "string", Example: "user registered"},
				"id":      {Type: "string", Format: "uuid"},
			},
		},
		"LoginResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"token":      {Type: "string"},
				"token_type": {Type: "string", Example: "Bearer"},
				"expires_at": {Type: "string", Format: "date-time"},
			},
		},
	}
}
