// Package docs holds the OpenAPI description of the settlement API served under /swagger.
// It mirrors the swag annotations on the HTTP handlers and registers itself with swag on import.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/allocation-sessions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Load the open receivables or payables of a counterparty and location and start a CREATE session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["allocation-sessions"],
                "summary": "Open allocation session",
                "parameters": [
                    {"type": "string", "description": "Tenant ID (when JWT is disabled)", "name": "X-Tenant-ID", "in": "header"},
                    {"description": "Application type, placement and amount", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.OpenSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"allOf": [{"$ref": "#/definitions/dto.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/allocation.Session"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/allocation-sessions/edit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Hydrate the saved records of an application into an EDIT session, or a VIEW session when read_only is set",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["allocation-sessions"],
                "summary": "Reopen saved allocation",
                "parameters": [
                    {"type": "string", "description": "Tenant ID (when JWT is disabled)", "name": "X-Tenant-ID", "in": "header"},
                    {"description": "Saved application to reopen", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.OpenEditSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"allOf": [{"$ref": "#/definitions/dto.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/allocation.Session"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/allocation-sessions/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the current lines and totals of a session",
                "produces": ["application/json"],
                "tags": ["allocation-sessions"],
                "summary": "Get allocation session",
                "parameters": [
                    {"type": "string", "description": "Tenant ID (when JWT is disabled)", "name": "X-Tenant-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/dto.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/allocation.Session"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Drop a session without saving",
                "tags": ["allocation-sessions"],
                "summary": "Discard allocation session",
                "parameters": [
                    {"type": "string", "description": "Tenant ID (when JWT is disabled)", "name": "X-Tenant-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/allocation-sessions/{id}/events": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Feed one user interaction to the session and return the new state. A rejected event leaves the session unchanged.\nADD_LINE names a document of the session's counterparty and location through line_id.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["allocation-sessions"],
                "summary": "Apply allocation event",
                "parameters": [
                    {"type": "string", "description": "Tenant ID (when JWT is disabled)", "name": "X-Tenant-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Event", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.EventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/dto.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/allocation.Session"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/allocation-sessions/{id}/save": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Persist the session's allocations, adjust document balances and return the plan that was written",
                "produces": ["application/json"],
                "tags": ["allocation-sessions"],
                "summary": "Save allocation session",
                "parameters": [
                    {"type": "string", "description": "Tenant ID (when JWT is disabled)", "name": "X-Tenant-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/dto.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/allocation.SaveResult"}}}]}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Report that the process is serving requests",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/dto.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.LivenessResponse"}}}]}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "description": "Check every dependency concurrently; any failure yields a 503",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/dto.Response"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.ReadinessResponse"}}}]}},
                    "503": {"description": "Service Unavailable", "schema": {"allOf": [{"$ref": "#/definitions/dto.ErrorResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.ReadinessResponse"}}}]}}
                }
            }
        }
    },
    "definitions": {
        "allocation.Adjustment": {
            "type": "object",
            "properties": {
                "amount_due_delta": {"type": "string", "example": "-60"},
                "amount_paid_delta": {"type": "string", "example": "60"},
                "document_id": {"type": "string", "format": "uuid"},
                "document_kind": {"type": "string", "enum": ["INVOICE", "DEBIT_MEMO", "VENDOR_BILL"]}
            }
        },
        "allocation.OpenLine": {
            "type": "object",
            "properties": {
                "applied_amount": {"type": "string", "example": "60"},
                "due_amount": {"type": "string", "example": "60"},
                "edit_bound": {"type": "string"},
                "entry_order": {"type": "integer"},
                "id": {"type": "string", "format": "uuid"},
                "is_locked": {"type": "boolean"},
                "is_selected": {"type": "boolean"},
                "is_user_entered": {"type": "boolean"},
                "kind": {"type": "string", "enum": ["INVOICE", "DEBIT_MEMO", "VENDOR_BILL"]},
                "original_allocated_amount": {"type": "string", "example": "0"},
                "original_amount": {"type": "string", "example": "100"},
                "reference_number": {"type": "string", "example": "INV-1001"},
                "synthesized": {"type": "boolean"},
                "transaction_date": {"type": "string", "format": "date-time"}
            }
        },
        "allocation.RecordChange": {
            "type": "object",
            "properties": {
                "amount": {"type": "string", "example": "60"},
                "document_id": {"type": "string", "format": "uuid"},
                "document_kind": {"type": "string", "enum": ["INVOICE", "DEBIT_MEMO", "VENDOR_BILL"]},
                "previous_amount": {"type": "string", "example": "0"},
                "record_id": {"type": "string", "format": "uuid"}
            }
        },
        "allocation.SavePlan": {
            "type": "object",
            "properties": {
                "adjustments": {"type": "array", "items": {"$ref": "#/definitions/allocation.Adjustment"}},
                "application_id": {"type": "string", "format": "uuid"},
                "application_type": {"type": "string", "enum": ["CUSTOMER_PAYMENT", "VENDOR_PAYMENT", "VENDOR_CREDIT"]},
                "applied_total": {"type": "string", "example": "100"},
                "creates": {"type": "array", "items": {"$ref": "#/definitions/allocation.RecordChange"}},
                "deletes": {"type": "array", "items": {"$ref": "#/definitions/allocation.RecordChange"}},
                "unapplied_total": {"type": "string", "example": "0"},
                "updates": {"type": "array", "items": {"$ref": "#/definitions/allocation.RecordChange"}}
            }
        },
        "allocation.SaveResult": {
            "type": "object",
            "properties": {
                "plan": {"$ref": "#/definitions/allocation.SavePlan"},
                "session": {"$ref": "#/definitions/allocation.Session"}
            }
        },
        "allocation.Session": {
            "type": "object",
            "properties": {
                "application_id": {"type": "string", "format": "uuid"},
                "application_type": {"type": "string", "enum": ["CUSTOMER_PAYMENT", "VENDOR_PAYMENT", "VENDOR_CREDIT"]},
                "applied_total": {"type": "string", "example": "100"},
                "counterparty_id": {"type": "string", "format": "uuid"},
                "created_at": {"type": "string", "format": "date-time"},
                "id": {"type": "string", "format": "uuid"},
                "limit_amount": {"type": "string", "example": "100"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/allocation.OpenLine"}},
                "location_id": {"type": "string", "format": "uuid"},
                "mode": {"type": "string", "enum": ["CREATE", "EDIT", "VIEW"]},
                "next_entry_order": {"type": "integer"},
                "tenant_id": {"type": "string", "format": "uuid"},
                "unapplied_total": {"type": "string", "example": "0"},
                "updated_at": {"type": "string", "format": "date-time"},
                "version": {"type": "integer"},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/allocation.Warning"}}
            }
        },
        "allocation.Warning": {
            "type": "object",
            "properties": {
                "document_id": {"type": "string", "format": "uuid"},
                "kind": {"type": "string", "enum": ["INVOICE", "DEBIT_MEMO", "VENDOR_BILL"]},
                "message": {"type": "string"}
            }
        },
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "LIMIT_REQUIRED"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/dto.ValidationDetail"}},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "allOf": [
                {"$ref": "#/definitions/dto.Response"},
                {"type": "object", "properties": {"error": {"$ref": "#/definitions/dto.ErrorInfo"}}}
            ]
        },
        "dto.EventRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "amount": {"type": "string", "example": "25.00"},
                "checked": {"type": "boolean"},
                "line_id": {"type": "string", "format": "uuid"},
                "type": {"type": "string", "enum": ["SET_LIMIT", "TOGGLE_LINE", "BEGIN_LINE_EDIT", "SET_LINE_AMOUNT", "END_LINE_EDIT", "SELECT_ALL", "CLEAR_ALL", "ADD_LINE", "REMOVE_LINE"]}
            }
        },
        "dto.OpenEditSessionRequest": {
            "type": "object",
            "required": ["application_id", "application_type"],
            "properties": {
                "application_id": {"type": "string", "format": "uuid"},
                "application_type": {"type": "string", "enum": ["CUSTOMER_PAYMENT", "VENDOR_PAYMENT", "VENDOR_CREDIT"]},
                "counterparty_id": {"type": "string", "format": "uuid"},
                "limit_amount": {"type": "string", "example": "100"},
                "location_id": {"type": "string", "format": "uuid"},
                "read_only": {"type": "boolean"}
            }
        },
        "dto.OpenSessionRequest": {
            "type": "object",
            "required": ["application_type"],
            "properties": {
                "application_type": {"type": "string", "enum": ["CUSTOMER_PAYMENT", "VENDOR_PAYMENT", "VENDOR_CREDIT"]},
                "counterparty_id": {"type": "string", "format": "uuid"},
                "limit_amount": {"type": "string", "example": "100"},
                "location_id": {"type": "string", "format": "uuid"}
            }
        },
        "dto.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "success": {"type": "boolean"}
            }
        },
        "dto.ValidationDetail": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.LivenessResponse": {
            "type": "object",
            "properties": {
                "go_version": {"type": "string"},
                "name": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "handler.ReadinessResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Settlement API",
	Description:      "Allocates customer payments, vendor payments and vendor credits across open receivables and payables.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
