package runs

import "github.com/gaslens/gaslens/pkg/openapi"

// Schemas returns the component schemas for run entities.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"ExecuteCommand": {
			Type:     "object",
			Required: []string{"chains", "timeframe"},
			Properties: map[string]*openapi.Schema{
				"chains": {
					Type:        "array",
					Description: "Blockchain networks to analyze",
					Items:       &openapi.Schema{Type: "string", Example: "base"},
				},
				"timeframe": {
					Type:        "string",
					Description: "Analysis window",
					Enum:        []any{"7d", "14d", "historical"},
				},
			},
		},
		"Failure": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage":   {Type: "string", Description: "Stage that exhausted its retries"},
				"kind":    {Type: "string", Description: "Failure classification"},
				"message": {Type: "string", Description: "Failure detail"},
			},
		},
		"Run": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"chains":      {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"timeframe":   {Type: "string", Enum: []any{"7d", "14d", "historical"}},
				"status":      {Type: "string", Enum: []any{"running", "complete", "terminated"}},
				"state":       {Type: "object", Description: "Full workflow state, present once the run is terminal"},
				"failure":     openapi.SchemaRef("Failure"),
				"created_at":  {Type: "string", Format: "date-time"},
				"finished_at": {Type: "string", Format: "date-time"},
			},
		},
		"RunPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Run")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	}
}

// Paths returns the path items for run endpoints, keyed relative to the
// API base path.
func Paths() map[string]*openapi.PathItem {
	return map[string]*openapi.PathItem{
		"/runs": {
			Get: &openapi.Operation{
				Summary: "List runs",
				Tags:    []string{"runs"},
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
					openapi.QueryParam("page_size", "integer", "Results per page", false),
					openapi.QueryParam("search", "string", "Match against status, timeframe, or chains", false),
					openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
				},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Page of runs", "RunPage"),
					400: openapi.ResponseRef("BadRequest"),
				},
			},
			Post: &openapi.Operation{
				Summary:     "Execute an analysis run",
				Description: "Runs the full workflow to completion and returns the stored run.",
				Tags:        []string{"runs"},
				RequestBody: openapi.RequestBodyJSON("ExecuteCommand", true),
				Responses: map[int]*openapi.Response{
					201: openapi.ResponseJSON("Completed or terminated run", "Run"),
					400: openapi.ResponseRef("BadRequest"),
				},
			},
		},
		"/runs/stream": {
			Post: &openapi.Operation{
				Summary:     "Execute an analysis run with progress streaming",
				Description: "Emits run, task, and outcome events over Server-Sent Events while the workflow executes.",
				Tags:        []string{"runs"},
				RequestBody: openapi.RequestBodyJSON("ExecuteCommand", true),
				Responses: map[int]*openapi.Response{
					200: {Description: "SSE event stream", Content: map[string]*openapi.MediaType{
						"text/event-stream": {Schema: &openapi.Schema{Type: "string"}},
					}},
					400: openapi.ResponseRef("BadRequest"),
				},
			},
		},
		"/runs/search": {
			Post: &openapi.Operation{
				Summary:     "Search runs",
				Tags:        []string{"runs"},
				RequestBody: openapi.RequestBodyJSON("PageRequest", true),
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Page of runs", "RunPage"),
					400: openapi.ResponseRef("BadRequest"),
				},
			},
		},
		"/runs/{id}": {
			Get: &openapi.Operation{
				Summary:    "Find a run",
				Tags:       []string{"runs"},
				Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run identifier")},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Run", "Run"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
			Delete: &openapi.Operation{
				Summary:    "Delete a run and its archived report",
				Tags:       []string{"runs"},
				Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run identifier")},
				Responses: map[int]*openapi.Response{
					204: {Description: "Run deleted"},
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		"/runs/{id}/report": {
			Get: &openapi.Operation{
				Summary:     "Fetch a run's archived report",
				Description: "Serves the synthesized report JSON from blob storage.",
				Tags:        []string{"runs"},
				Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Run identifier")},
				Responses: map[int]*openapi.Response{
					200: {Description: "Report document", Content: map[string]*openapi.MediaType{
						"application/json": {Schema: &openapi.Schema{Type: "object"}},
					}},
					404: openapi.ResponseRef("NotFound"),
					409: openapi.ResponseRef("Conflict"),
				},
			},
		},
	}
}
