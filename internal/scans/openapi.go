package scans

import "github.com/JaimeStill/neuroscan/pkg/openapi"

type spec struct {
	List    *openapi.Operation
	History *openapi.Operation
	Predict *openapi.Operation
	Report  *openapi.Operation
}

// Spec documents the scan endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List scans",
		Description: "Returns a page of the caller's scans, newest first unless sort is given.",
		Security:    openapi.RequireBearer(),
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number (1-indexed)"),
			openapi.QueryParam("page_size", "integer", "Results per page"),
			openapi.QueryParam("search", "string", "Classification contains"),
			openapi.QueryParam("sort", "string", "created_at, confidence_score or classification; prefix with - for descending"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Scan page", "ScanPage"),
			401: openapi.ResponseRef("Unauthorized"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	History: &openapi.Operation{
		Summary:     "Scan history",
		Description: "Returns every scan owned by the caller, newest first.",
		Security:    openapi.RequireBearer(),
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Scans, newest first",
				Content: map[string]*openapi.MediaType{
					"application/json": {
						Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Scan")},
					},
				},
			},
			401: openapi.ResponseRef("Unauthorized"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Predict: &openapi.Operation{
		Summary:     "Classify an MRI image",
		Description: "Runs the classification worker against the uploaded image and records the result.",
		Security:    openapi.RequireBearer(),
		RequestBody: openapi.RequestBodyMultipart(artifactField, "Brain MRI image"),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Recorded scan", "Scan"),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			500: openapi.ResponseRef("InternalError"),
		},
	},
	Report: &openapi.Operation{
		Summary:     "Download a report",
		Description: "Streams a PDF report referenced by one of the caller's scans.",
		Security:    openapi.RequireBearer(),
		Parameters: []*openapi.Parameter{
			openapi.PathParam("name", "Report file name"),
		},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Report PDF",
				Content: map[string]*openapi.MediaType{
					reportContentType: {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
				},
			},
			401: openapi.ResponseRef("Unauthorized"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	zero, one := 0.0, 1.0

	return map[string]*openapi.Schema{
		"Scan": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"user_id":          {Type: "string", Format: "uuid"},
				"classification":   {Type: "string", Example: "glioma_tumor"},
				"confidence_score": {Type: "number", Minimum: &zero, Maximum: &one},
				"report_file":      {Type: "string"},
				"severity":         {Type: "string"},
				"probabilities": {
					Type:        "object",
					Description: "Class label to probability in [0,1]",
				},
				"created_at": {Type: "string", Format: "date-time"},
			},
		},
		"ScanPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Scan")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	}
}
