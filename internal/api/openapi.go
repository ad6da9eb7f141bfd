package api

import (
	"github.com/JaimeStill/cascade/internal/config"
	"github.com/JaimeStill/cascade/pkg/openapi"
)

// buildSpec assembles the OpenAPI document served at /openapi.json. The
// document is built and serialized once during route registration.
func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(schemas())
	spec.Components.AddResponses(responses())

	documentPaths(spec)
	workflowPaths(spec)
	executionPaths(spec)
	storagePaths(spec)

	return spec
}

func schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"filename":     {Type: "string"},
				"format":       {Type: "string", Description: "Registry format key derived from the file extension", Example: "pdf"},
				"content_type": {Type: "string", Example: "application/pdf"},
				"size_bytes":   {Type: "integer"},
				"page_count":   {Type: "integer", Description: "Page count for PDF uploads; null otherwise"},
				"storage_key":  {Type: "string"},
				"status":       {Type: "string"},
				"uploaded_at":  {Type: "string", Format: "date-time"},
				"updated_at":   {Type: "string", Format: "date-time"},
			},
		},
		"DocumentPage": pageOf("Document"),
		"InputFile": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":   {Type: "string"},
				"format": {Type: "string"},
			},
			Required: []string{"name", "format"},
		},
		"Node": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                {Type: "string"},
				"kind":              {Type: "string", Enum: []any{"input", "split", "merge", "extract", "convert", "compress", "ocr", "condition", "output"}},
				"label":             {Type: "string"},
				"config":            {Type: "object", Description: "Kind-specific configuration payload"},
				"input_formats":     {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"output_format":     {Type: "string"},
				"supported_formats": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
			Required: []string{"id", "kind"},
		},
		"Edge": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":        {Type: "string"},
				"source_id": {Type: "string"},
				"target_id": {Type: "string"},
			},
			Required: []string{"id", "source_id", "target_id"},
		},
		"Graph": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"nodes":       {Type: "array", Items: openapi.SchemaRef("Node")},
				"edges":       {Type: "array", Items: openapi.SchemaRef("Edge")},
				"input_files": {Type: "array", Items: openapi.SchemaRef("InputFile")},
			},
			Required: []string{"nodes", "edges"},
		},
		"Workflow": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"name":        {Type: "string"},
				"description": {Type: "string"},
				"graph":       openapi.SchemaRef("Graph"),
				"created_at":  {Type: "string", Format: "date-time"},
				"updated_at":  {Type: "string", Format: "date-time"},
			},
		},
		"WorkflowPage": pageOf("Workflow"),
		"WorkflowCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":        {Type: "string"},
				"description": {Type: "string"},
				"graph":       openapi.SchemaRef("Graph"),
			},
			Required: []string{"name", "graph"},
		},
		"ValidationIssue": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"target_id": {Type: "string", Description: "Node or edge at fault; empty for graph-level findings"},
				"kind":      {Type: "string"},
				"severity":  {Type: "string", Enum: []any{"error", "warning"}},
				"message":   {Type: "string"},
			},
		},
		"ValidationSuggestion": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"edge_id":    {Type: "string"},
				"source_id":  {Type: "string"},
				"target_id":  {Type: "string"},
				"kind":       {Type: "string"},
				"convert_to": {Type: "string", Description: "Format a Convert node on this edge should target"},
				"message":    {Type: "string"},
			},
		},
		"ValidationReport": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"valid":       {Type: "boolean"},
				"errors":      {Type: "array", Items: openapi.SchemaRef("ValidationIssue")},
				"warnings":    {Type: "array", Items: openapi.SchemaRef("ValidationIssue")},
				"suggestions": {Type: "array", Items: openapi.SchemaRef("ValidationSuggestion")},
			},
		},
		"NodeState": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"status":   {Type: "string", Enum: []any{"idle", "running", "completed", "error"}},
				"progress": {Type: "integer"},
				"error":    {Type: "string"},
			},
		},
		"Execution": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"workflow_id":  {Type: "string", Format: "uuid"},
				"status":       {Type: "string", Enum: []any{"pending", "running", "completed", "failed"}},
				"progress":     {Type: "integer", Minimum: ptr(0.0), Maximum: ptr(100.0)},
				"started_at":   {Type: "string", Format: "date-time"},
				"completed_at": {Type: "string", Format: "date-time"},
				"error":        {Type: "string"},
				"nodes":        {Type: "object", Description: "Per-node state keyed by node id"},
				"output_files": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
		"ExecutionPage": pageOf("Execution"),
		"ExecutionSubmit": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"workflow_id":  {Type: "string", Format: "uuid"},
				"document_ids": {Type: "array", Items: &openapi.Schema{Type: "string", Format: "uuid"}},
			},
			Required: []string{"workflow_id", "document_ids"},
		},
		"ObjectMeta": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"key":            {Type: "string"},
				"content_type":   {Type: "string"},
				"content_length": {Type: "integer"},
				"size":           {Type: "string", Description: "Human-readable content length", Example: "1.5 MB"},
				"last_modified":  {Type: "string", Format: "date-time"},
				"etag":           {Type: "string"},
			},
		},
		"ObjectList": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"objects":     {Type: "array", Items: openapi.SchemaRef("ObjectMeta")},
				"next_marker": {Type: "string"},
			},
		},
	}
}

func responses() map[string]*openapi.Response {
	return map[string]*openapi.Response{
		"InvalidGraph":    openapi.ResponseJSON("Graph failed validation", "ValidationReport"),
		"UnsupportedType": {Description: "File extension does not match a registered format"},
	}
}

func pageOf(item string) *openapi.Schema {
	return &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef(item)},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	}
}

func pageParams() []*openapi.Parameter {
	return []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
		openapi.QueryParam("page_size", "integer", "Results per page", false),
		openapi.QueryParam("search", "string", "Search query", false),
		openapi.QueryParam("sort", "string", "Comma-separated sort fields; prefix with - for descending", false),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func documentPaths(spec *openapi.Spec) {
	spec.Paths["/documents"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List documents",
			Tags:    []string{"documents"},
			Parameters: append(pageParams(),
				openapi.QueryParam("status", "string", "Filter by exact status", false),
				openapi.QueryParam("filename", "string", "Filter by filename substring", false),
				openapi.QueryParam("format", "string", "Filter by exact format", false),
				openapi.QueryParam("content_type", "string", "Filter by exact content type", false),
				openapi.QueryParam("storage_key", "string", "Filter by storage key substring", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated documents", "DocumentPage"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Upload a document",
			Description: "Multipart form upload; the file part must carry an extension matching a registered format.",
			Tags:        []string{"documents"},
			RequestBody: &openapi.RequestBody{
				Required: true,
				Content: map[string]*openapi.MediaType{
					"multipart/form-data": {
						Schema: &openapi.Schema{
							Type: "object",
							Properties: map[string]*openapi.Schema{
								"file": {Type: "string", Format: "binary"},
							},
							Required: []string{"file"},
						},
					},
				},
			},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Uploaded document", "Document"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
				415: openapi.ResponseRef("UnsupportedType"),
			},
		},
	}

	spec.Paths["/documents/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search documents",
			Tags:        []string{"documents"},
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated documents", "DocumentPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/documents/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a document",
			Tags:       []string{"documents"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document", "Document"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:     "Delete a document",
			Description: "Removes the record and its stored blob.",
			Tags:        []string{"documents"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Document id")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func workflowPaths(spec *openapi.Spec) {
	spec.Paths["/workflows"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List workflows",
			Tags:    []string{"workflows"},
			Parameters: append(pageParams(),
				openapi.QueryParam("name", "string", "Filter by name substring", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated workflows", "WorkflowPage"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a workflow",
			Description: "The graph is validated before persistence; validation errors reject the create.",
			Tags:        []string{"workflows"},
			RequestBody: openapi.RequestBodyJSON("WorkflowCommand", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created workflow", "Workflow"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
				422: openapi.ResponseRef("InvalidGraph"),
			},
		},
	}

	spec.Paths["/workflows/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search workflows",
			Tags:        []string{"workflows"},
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated workflows", "WorkflowPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/workflows/validate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Validate a graph",
			Description: "Always returns 200 with the full report; editors use it for live feedback.",
			Tags:        []string{"workflows"},
			RequestBody: openapi.RequestBodyJSON("Graph", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Validation report", "ValidationReport"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/workflows/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a workflow",
			Tags:       []string{"workflows"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Workflow id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Workflow", "Workflow"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Put: &openapi.Operation{
			Summary:     "Update a workflow",
			Tags:        []string{"workflows"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Workflow id")},
			RequestBody: openapi.RequestBodyJSON("WorkflowCommand", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated workflow", "Workflow"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
				422: openapi.ResponseRef("InvalidGraph"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a workflow",
			Tags:       []string{"workflows"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Workflow id")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func executionPaths(spec *openapi.Spec) {
	spec.Paths["/executions"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "List executions",
			Description: "Lists persisted terminal executions; poll a live run by id.",
			Tags:        []string{"executions"},
			Parameters: append(pageParams(),
				openapi.QueryParam("status", "string", "Filter by exact status", false),
				openapi.QueryParam("workflow_id", "string", "Filter by workflow id", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated executions", "ExecutionPage"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Submit an execution",
			Description: "Revalidates the stored graph against the submitted documents, then runs it asynchronously.",
			Tags:        []string{"executions"},
			RequestBody: openapi.RequestBodyJSON("ExecutionSubmit", true),
			Responses: map[int]*openapi.Response{
				202: openapi.ResponseJSON("Pending execution snapshot", "Execution"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				422: openapi.ResponseRef("InvalidGraph"),
			},
		},
	}

	spec.Paths["/executions/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Find an execution",
			Description: "Live runs report in-flight progress; finished runs come from the store.",
			Tags:        []string{"executions"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Execution id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Execution", "Execution"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/executions/{id}/cancel"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Cancel an execution",
			Description: "Requests cancellation of a live run; the engine observes it between waves.",
			Tags:        []string{"executions"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Execution id")},
			Responses: map[int]*openapi.Response{
				202: openapi.ResponseJSON("Execution snapshot at cancellation", "Execution"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
}

func storagePaths(spec *openapi.Spec) {
	keyParam := &openapi.Parameter{
		Name:        "key",
		In:          "path",
		Required:    true,
		Description: "Blob key; may contain slashes",
		Schema:      &openapi.Schema{Type: "string"},
	}

	spec.Paths["/storage"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List stored blobs",
			Tags:    []string{"storage"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("prefix", "string", "Key prefix filter", false),
				openapi.QueryParam("marker", "string", "Continuation marker from a previous page", false),
				openapi.QueryParam("max_results", "integer", "Page size cap", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Blob listing", "ObjectList"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/storage/download/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Download a blob",
			Tags:       []string{"storage"},
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: {Description: "Blob content as an attachment"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/storage/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find blob metadata",
			Tags:       []string{"storage"},
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Blob metadata", "ObjectMeta"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}
