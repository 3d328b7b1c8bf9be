package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ROTC Portal API",
        "description": "Administrative portal for cadet records, scores and grades",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Cadets", "description": "Cadet registration and approval workflow"},
        {"name": "Semesters", "description": "Semester terms and activation"},
        {"name": "Attendance", "description": "Weekly training-day attendance"},
        {"name": "Aptitude", "description": "Merit and demerit records"},
        {"name": "Exams", "description": "Midterm and final exam scores"},
        {"name": "Grades", "description": "Computed final grades and grade sheets"},
        {"name": "Issues", "description": "Cadet issue reports"},
        {"name": "Documents", "description": "Cadet document uploads"},
        {"name": "Exports", "description": "Asynchronous grade-sheet exports"},
        {"name": "System", "description": "Health and metrics"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
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
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session claims",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cadets/register": {
            "post": {
                "tags": ["Cadets"],
                "summary": "Submit a cadet registration (public)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterCadetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Pending cadet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate student number or email"}
                }
            }
        },
        "/cadets": {
            "get": {
                "tags": ["Cadets"],
                "summary": "List cadets",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "APPROVED", "REJECTED", "ARCHIVED"]},
                    {"name": "platoon", "in": "query", "type": "string"},
                    {"name": "company", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cadets/{cadetId}/approve": {
            "patch": {
                "tags": ["Cadets"],
                "summary": "Approve a pending cadet and seed score records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "cadetId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Approved cadet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cadet is not pending"}
                }
            }
        },
        "/semesters/{semesterId}/attendance": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Save a cadet's weekly attendance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Recomputed record", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cadet not approved"}
                }
            }
        },
        "/semesters/{semesterId}/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "Grade sheet for a semester",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"},
                    {"name": "platoon", "in": "query", "type": "string"},
                    {"name": "company", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a grade-sheet export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        }
    },
    "definitions": {
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
        "RegisterCadetRequest": {
            "type": "object",
            "properties": {
                "student_number": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "middle_name": {"type": "string"},
                "campus": {"type": "string"},
                "course": {"type": "string"},
                "year_level": {"type": "integer"},
                "section": {"type": "string"},
                "platoon": {"type": "string"},
                "company": {"type": "string"},
                "battalion": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["student_number", "first_name", "last_name", "campus", "course", "year_level", "section", "platoon", "company", "battalion", "email", "password"]
        },
        "SaveAttendanceRequest": {
            "type": "object",
            "properties": {
                "cadet_id": {"type": "string"},
                "present": {
                    "type": "array",
                    "items": {"type": "boolean"}
                }
            },
            "required": ["cadet_id", "present"]
        },
        "CreateExportRequest": {
            "type": "object",
            "properties": {
                "semester_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "platoon": {"type": "string"},
                "company": {"type": "string"}
            },
            "required": ["semester_id", "format"]
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
