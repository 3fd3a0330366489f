package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grama Voice API",
        "description": "Municipal issue tracking: citizen filings, admin triage, notifications and performance analytics",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Login and token refresh"},
        {"name": "Notifications", "description": "Per-user notification inbox"},
        {"name": "Issues", "description": "Citizen issue filings and admin triage"},
        {"name": "Dashboard", "description": "Aggregated system and admin views"},
        {"name": "Leaderboard", "description": "Village admin performance ranking"},
        {"name": "Reports", "description": "Exportable performance reports"},
        {"name": "Users", "description": "Account administration"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Account blocked"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List the caller's notifications, newest first",
                "parameters": [
                    {"name": "unread_only", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Notifications"],
                "summary": "Send a notification to a recipient (super admin only)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateNotificationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Count the caller's unread notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UnreadCountResponse"}}
                }
            }
        },
        "/notifications/read-all": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark all of the caller's notifications read",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MarkAllReadResponse"}}
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark one of the caller's notifications read",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MarkReadResponse"}}
                }
            }
        },
        "/issues": {
            "get": {
                "tags": ["Issues"],
                "summary": "List issues scoped to the caller's role",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "village", "in": "query", "type": "string"},
                    {"name": "mine", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Issues"],
                "summary": "File a new issue (citizen only)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateIssueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/issues/{id}": {
            "get": {
                "tags": ["Issues"],
                "summary": "Fetch a single issue",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/issues/{id}/status": {
            "patch": {
                "tags": ["Issues"],
                "summary": "Change issue status (assigned admin or super admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateIssueStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the assigned admin"}
                }
            }
        },
        "/issues/{id}/assign": {
            "patch": {
                "tags": ["Issues"],
                "summary": "Assign an issue to a village admin (super admin only)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignIssueRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "System overview (super admin only)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/admin": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Caller's own performance dashboard (village admin only)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaderboard": {
            "get": {
                "tags": ["Leaderboard"],
                "summary": "Ranked village admin performance",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/performance": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the performance report (super admin only)",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/reports/archive/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Re-download an archived report by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts (super admin only)",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}/block": {
            "patch": {
                "tags": ["Users"],
                "summary": "Block or unblock an account (super admin only)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetBlockedRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Notification": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "recipient_id": {"type": "integer"},
                "recipient_role": {"type": "string"},
                "type": {"type": "string"},
                "title": {"type": "string"},
                "message": {"type": "string"},
                "is_read": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "CreateNotificationRequest": {
            "type": "object",
            "properties": {
                "recipient_id": {"type": "integer"},
                "recipient_role": {"type": "string"},
                "type": {"type": "string"},
                "title": {"type": "string"},
                "message": {"type": "string"}
            },
            "required": ["recipient_id", "recipient_role", "type", "title", "message"]
        },
        "UnreadCountResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "unread_count": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "MarkAllReadResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "marked_count": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "MarkReadResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "Issue": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "village": {"type": "string"},
                "status": {"type": "string"},
                "reported_by": {"type": "integer"},
                "assigned_to": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CreateIssueRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "village": {"type": "string"}
            },
            "required": ["title", "description", "village"]
        },
        "UpdateIssueStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            },
            "required": ["status"]
        },
        "AssignIssueRequest": {
            "type": "object",
            "properties": {
                "admin_id": {"type": "integer"}
            },
            "required": ["admin_id"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "SetBlockedRequest": {
            "type": "object",
            "properties": {
                "blocked": {"type": "boolean"}
            },
            "required": ["blocked"]
        },
        "PerformanceSnapshot": {
            "type": "object",
            "properties": {
                "admin_id": {"type": "integer"},
                "admin_name": {"type": "string"},
                "village": {"type": "string"},
                "total_issues": {"type": "integer"},
                "resolved": {"type": "integer"},
                "pending": {"type": "integer"},
                "in_progress": {"type": "integer"},
                "resolution_rate": {"type": "integer"},
                "avg_resolution_days": {"type": "number"},
                "tier": {"type": "string"},
                "score": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
