// Package swagger registers the OpenAPI document served at /docs.
// Regenerate with: swag init -g main.go -o docs/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Database unhealthy", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Build information",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/version.Response"}}}
            }
        },
        "/api/v1/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [{"description": "New account", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.SignupRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/auth.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.TokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/sermons/transcribe": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Streams the file to temporary storage, checks the caller's monthly allowance against the probed duration and queues a transcription job. Poll the returned job id for the result.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["transcription"],
                "summary": "Upload sermon audio for transcription",
                "parameters": [{"type": "file", "description": "Audio file", "name": "file", "in": "formData", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/transcription.AcceptedResponse"}},
                    "400": {"description": "Empty, unreadable or unsupported file", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "403": {"description": "Usage limit reached", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/sermons/transcribe/{job_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transcription"],
                "summary": "Poll a transcription job",
                "parameters": [{"type": "string", "description": "Job ID", "name": "job_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Finished; queued or processing jobs return only status", "schema": {"$ref": "#/definitions/transcription.DoneResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Job failed", "schema": {"$ref": "#/definitions/transcription.FailedResponse"}}
                }
            }
        },
        "/api/v1/sermons": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sermons"],
                "summary": "List saved sermons",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/sermons.ListResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sermons"],
                "summary": "Save a sermon",
                "parameters": [{"description": "Sermon", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/sermons.CreateRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/sermons.SermonResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Job not finished", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/sermons/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sermons"],
                "summary": "Get a saved sermon",
                "parameters": [{"type": "integer", "description": "Sermon ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/sermons.SermonResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/usage": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Transcriptions and seconds used this month against the active plan. Remaining values of -1 mean unlimited.",
                "produces": ["application/json"],
                "tags": ["usage"],
                "summary": "Current month usage",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/usage.Snapshot"}}}
            }
        },
        "/api/v1/plans": {
            "get": {
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "List subscription plans",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/subscriptions.PlansResponse"}}}
            }
        },
        "/api/v1/subscription": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Current subscription",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/subscriptions.SubscriptionResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/v1/subscription/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["subscriptions"],
                "summary": "Cancel subscription at period end",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/subscriptions.SubscriptionResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "error": {"type": "string"},
                "details": {}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "database": {"type": "object", "additionalProperties": true},
                "jobs": {"type": "object", "additionalProperties": {"type": "integer"}},
                "workers": {"type": "integer"}
            }
        },
        "version.Response": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "version": {"type": "string"},
                "git_commit": {"type": "string"},
                "build_time": {"type": "string"},
                "go_version": {"type": "string"}
            }
        },
        "auth.SignupRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "auth.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "auth.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_at": {"type": "string"},
                "user": {"$ref": "#/definitions/auth.UserResponse"}
            }
        },
        "transcription.AcceptedResponse": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "transcription.DoneResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "transcript": {"type": "string"},
                "summary": {"type": "array", "items": {"type": "string"}},
                "bible_references": {"type": "array", "items": {"type": "string"}}
            }
        },
        "transcription.FailedResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "sermons.CreateRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "job_id": {"type": "string"},
                "transcript": {"type": "string"},
                "summary": {"type": "array", "items": {"type": "string"}},
                "bible_references": {"type": "array", "items": {"type": "string"}}
            }
        },
        "sermons.SermonResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "transcript": {"type": "string"},
                "summary": {"type": "array", "items": {"type": "string"}},
                "bible_references": {"type": "array", "items": {"type": "string"}},
                "duration_seconds": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "sermons.ListResponse": {
            "type": "object",
            "properties": {
                "sermons": {"type": "array", "items": {"$ref": "#/definitions/sermons.SermonResponse"}},
                "count": {"type": "integer"}
            }
        },
        "usage.Snapshot": {
            "type": "object",
            "properties": {
                "transcription_count": {"type": "integer"},
                "transcription_duration_seconds": {"type": "integer"},
                "count_limit": {"type": "integer"},
                "time_limit": {"type": "integer"},
                "count_remaining": {"type": "integer"},
                "time_remaining": {"type": "integer"},
                "can_transcribe": {"type": "boolean"},
                "subscription_status": {"type": "string"},
                "plan_name": {"type": "string"}
            }
        },
        "subscriptions.PlanResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "price_monthly": {"type": "number"},
                "transcription_count_limit": {"type": "integer"},
                "transcription_time_limit": {"type": "integer"},
                "features": {"type": "object", "additionalProperties": true}
            }
        },
        "subscriptions.PlansResponse": {
            "type": "object",
            "properties": {
                "plans": {"type": "array", "items": {"$ref": "#/definitions/subscriptions.PlanResponse"}},
                "count": {"type": "integer"}
            }
        },
        "subscriptions.SubscriptionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "status": {"type": "string"},
                "plan": {"$ref": "#/definitions/subscriptions.PlanResponse"},
                "current_period_start": {"type": "string"},
                "current_period_end": {"type": "string"},
                "cancel_at_period_end": {"type": "boolean"},
                "canceled_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token from /api/v1/auth/login or the token command",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Sermon Notes API",
	Description:      "Transcribes sermon audio into bullet-point notes with scripture references",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
