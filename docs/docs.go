// Package docs registers the OpenAPI document served at /swagger. Generated
// with swag; regenerate with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/analytics": {
            "get": {
                "description": "Aggregated usage: totals, per-model/provider/user breakdowns, error groupings and an hourly time series. All parameters optional; the unfiltered view is cached briefly.",
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Usage analytics",
                "parameters": [
                    {"type": "string", "description": "Filter by username", "name": "user", "in": "query"},
                    {"type": "string", "description": "Inclusive start date (YYYY-MM-DD)", "name": "start_date", "in": "query"},
                    {"type": "string", "description": "Inclusive end date (YYYY-MM-DD)", "name": "end_date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/analytics/filters": {
            "get": {
                "description": "Distinct user identities in the interaction log, for populating a filter control.",
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Analytics filter options",
                "responses": {
                    "200": {"description": "OK"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/chat": {
            "post": {
                "description": "Sends the query to the configured gateway and logs the interaction (tokens, cost, latency, outcome). Provider failures are logged and reported in the response body, not as an HTTP error.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Chat completion",
                "parameters": [
                    {"type": "string", "description": "Caller identity; omitted means anonymous", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/interactions": {
            "get": {
                "description": "Logged interactions, newest first.",
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "List interactions",
                "parameters": [
                    {"type": "integer", "description": "Page number (1-based)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/models": {
            "get": {
                "description": "Model identifiers accepted by POST /chat.",
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "List models",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "LLM Usage API",
	Description:      "Chat completion logging and usage analytics over an OpenAI-compatible gateway.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
