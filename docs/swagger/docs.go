// Package swagger registers the OpenAPI document served at /swagger/*.
// It mirrors the @-annotations on the feature handlers.
package swagger

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
        "/api/health": {
            "get": {
                "description": "Reports whether the API is available. HEAD returns the status only.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health Check",
                "responses": {
                    "200": {"description": "Available", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Primary store not configured", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/passes": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "List passes with optional filters, sort and paging. A degraded answer comes from the fallback store unfiltered.",
                "produces": ["application/json"],
                "tags": ["passes"],
                "summary": "List Press Passes",
                "parameters": [
                    {"type": "string", "name": "email", "in": "query"},
                    {"type": "string", "name": "organization", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "string", "name": "order", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Passes", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid query", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Storage unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "post": {
                "description": "Record a pass created by the generator page.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["passes"],
                "summary": "Track Press Pass",
                "parameters": [
                    {"description": "name, email, title, organization, download_type, pass_number", "name": "pass", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "200": {"description": "Created pass", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Validation failed", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Storage unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/passes/stats": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Total passes, passes this month and distinct email domains.",
                "produces": ["application/json"],
                "tags": ["passes"],
                "summary": "Press Pass Statistics",
                "responses": {
                    "200": {"description": "Statistics", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/passes/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["passes"],
                "summary": "Get Press Pass",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Pass", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["passes"],
                "summary": "Delete Press Pass",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "patch": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["passes"],
                "summary": "Update Press Pass",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "patch", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Validation failed", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/checkout": {
            "post": {
                "description": "Record the pass as awaiting payment and return the hosted checkout URL.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payment"],
                "summary": "Create Checkout Session",
                "parameters": [
                    {"description": "name, passId, email, title, organization, quantity", "name": "checkout", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "200": {"description": "Checkout URL", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Missing fields", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Checkout failed", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/webhooks/stripe": {
            "post": {
                "description": "Verify and apply checkout.session.completed and payment_intent.succeeded events.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payment"],
                "summary": "Stripe Webhook",
                "responses": {
                    "200": {"description": "Received", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "400": {"description": "Invalid signature", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Storage unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/integrity": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Run the mirror and schema checks together. The schema check is skipped without a SQL primary.",
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Full Integrity Report",
                "responses": {
                    "200": {"description": "Report", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Primary unreachable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/integrity/mirrors": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Compare the primary and fallback stores. With purge=true, fallback copies matching primary records are removed; include_mismatched=true removes differing copies too.",
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Mirror Report",
                "parameters": [
                    {"type": "boolean", "name": "purge", "in": "query"},
                    {"type": "boolean", "name": "include_mismatched", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Primary unreachable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/integrity/mirrors/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Report where one pass is stored and whether the copies agree.",
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Pass Mirror Report",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Primary unreachable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/integrity/schema": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "List press_passes columns missing from the SQL primary.",
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Schema Check",
                "responses": {
                    "200": {"description": "Schema status", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "No SQL primary", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Press Pass API",
	Description:      "API for recording press passes and paying for laminated copies.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
