package api

import (
	"github.com/JaimeStill/docriver/pkg/openapi"
)

var schemas = map[string]*openapi.Schema{
	"Entry": {
		Type:     "object",
		Required: []string{"id", "realm", "kind", "message", "documents", "created_at"},
		Properties: map[string]*openapi.Schema{
			"id":         {Type: "string", Format: "uuid"},
			"realm":      {Type: "string"},
			"tx":         {Type: "string", Nullable: true},
			"kind":       {Type: "string", Enum: []any{"success", "rejected", "network_failure", "timed_out"}},
			"status":     {Type: "integer", Nullable: true},
			"message":    {Type: "string"},
			"documents":  openapi.ArrayOf(&openapi.Schema{Type: "string"}),
			"created_at": {Type: "string", Format: "date-time"},
		},
	},
	"EntryPage": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        openapi.ArrayOf(openapi.SchemaRef("Entry")),
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	},
	"Purged": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"removed": {Type: "integer"},
		},
	},
	"Receipt": {
		Type:        "object",
		Description: "Receipt returned by the document server, stored verbatim",
		Properties: map[string]*openapi.Schema{
			"tx":        {Type: "string"},
			"documents": openapi.ArrayOf(&openapi.Schema{Type: "object"}),
		},
	},
	"Event": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"eventTime": {Type: "integer", Description: "Unix seconds"},
			"document":  {Type: "string"},
			"status":    {Type: "string"},
			"location":  {Type: "string"},
			"type":      {Type: "string"},
			"mime":      {Type: "string"},
		},
	},
	"Status": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"realm":   {Type: "string"},
			"version": {Type: "string"},
			"ready":   {Type: "boolean"},
			"sinks":   openapi.ArrayOf(&openapi.Schema{Type: "string"}),
		},
	},
}

func buildSpec(rt *Runtime) *openapi.Spec {
	spec := openapi.NewSpec(&rt.OpenAPI, rt.Version)
	if len(rt.OpenAPI.Servers) == 0 {
		spec.AddServer(rt.BasePath)
	}
	spec.Components.AddSchemas(schemas)

	spec.Add("GET", "/history", &openapi.Operation{
		Summary: "List submission history",
		Tags:    []string{"History"},
		Parameters: append(openapi.PageParams(),
			openapi.QueryParam("realm", "string", "Filter by realm"),
			openapi.QueryParam("kind", "string", "Filter by outcome kind"),
			openapi.QueryParam("tx", "string", "Filter by transaction id"),
			openapi.TimeParam("from", "Entries created at or after"),
			openapi.TimeParam("to", "Entries created before"),
		),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("One page of entries", "EntryPage"),
			400: openapi.ResponseRef("BadRequest"),
			503: openapi.ResponseRef("Unavailable"),
		},
	})

	spec.Add("DELETE", "/history", &openapi.Operation{
		Summary:    "Purge history older than a cutoff",
		Tags:       []string{"History"},
		Parameters: []*openapi.Parameter{openapi.TimeParam("before", "Cutoff time")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Number of removed entries", "Purged"),
			400: openapi.ResponseRef("BadRequest"),
			503: openapi.ResponseRef("Unavailable"),
		},
	})

	spec.Add("GET", "/history/{id}", &openapi.Operation{
		Summary:    "Find a history entry",
		Tags:       []string{"History"},
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "uuid", "Entry id")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("The entry", "Entry"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	})

	spec.Add("GET", "/receipts/{realm}/{tx}", &openapi.Operation{
		Summary: "Read an archived receipt",
		Tags:    []string{"Receipts"},
		Parameters: []*openapi.Parameter{
			openapi.PathParam("realm", "", "Realm of the submission"),
			openapi.PathParam("tx", "", "Transaction id"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("The receipt", "Receipt"),
			404: openapi.ResponseRef("NotFound"),
			503: openapi.ResponseRef("Unavailable"),
		},
	})

	spec.Add("GET", "/documents/{name}", &openapi.Operation{
		Summary:     "Download a document",
		Description: "Streams the document from the document server using the caller's Authorization header.",
		Tags:        []string{"Documents"},
		Parameters:  []*openapi.Parameter{openapi.PathParam("name", "", "Document name")},
		Responses: map[int]*openapi.Response{
			200: {Description: "Document content"},
			401: openapi.ResponseRef("Unauthorized"),
			404: openapi.ResponseRef("NotFound"),
			502: openapi.ResponseRef("BadGateway"),
		},
	})

	spec.Add("GET", "/events", &openapi.Operation{
		Summary: "List realm transaction events",
		Tags:    []string{"Documents"},
		Parameters: []*openapi.Parameter{
			openapi.TimeParam("from", "Lower bound"),
			openapi.TimeParam("to", "Upper bound"),
		},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Events",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: openapi.ArrayOf(openapi.SchemaRef("Event"))},
				},
			},
			400: openapi.ResponseRef("BadRequest"),
			502: openapi.ResponseRef("BadGateway"),
		},
	})

	spec.Add("GET", "/status", &openapi.Operation{
		Summary: "Realm, version and enabled outcome sinks",
		Tags:    []string{"Status"},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Service status", "Status"),
		},
	})

	return spec
}
