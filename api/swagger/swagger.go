package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Session Scheduler API",
        "description": "Generates lecture and studio sessions from weekday patterns, merges them per subject and raises shortfall and faculty clash notifications.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Sessions", "description": "Pattern generation and session maintenance"},
        {"name": "Holidays", "description": "Non-teaching dates"},
        {"name": "Notifications", "description": "Shortfall and clash inbox"}
    ],
    "paths": {
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions of a subject context",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string", "required": true},
                    {"name": "degreeId", "in": "query", "type": "string", "required": true},
                    {"name": "batchYear", "in": "query", "type": "integer", "required": true},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "programYear", "in": "query", "type": "integer"},
                    {"name": "term", "in": "query", "type": "integer"},
                    {"name": "topicId", "in": "query", "type": "string"},
                    {"name": "branchId", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "endDate", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sessions/generate": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Generate sessions from a weekday pattern",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePatternRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/tail-weeks": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Add sessions on chosen weeks",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TailWeeksRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sessions/day": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Add one session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddDayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Outside window or holiday", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete the session of one date and slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeleteDayRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sessions/range": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete every session of a context inside a window",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeleteRangeRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sessions/{id}": {
            "patch": {
                "tags": ["Sessions"],
                "summary": "Update session notes and completion",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/holidays": {
            "get": {
                "tags": ["Holidays"],
                "summary": "List holidays in a window",
                "parameters": [
                    {"name": "startDate", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "endDate", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Holidays"],
                "summary": "Register a holiday",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHolidayRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "200": {"description": "Already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/holidays/{date}": {
            "delete": {
                "tags": ["Holidays"],
                "summary": "Remove a holiday",
                "parameters": [
                    {"name": "date", "in": "path", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["unread", "resolved"]},
                    {"name": "type", "in": "query", "type": "string", "enum": ["SHORTFALL", "CLASH"]},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "recipientId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/{id}/resolve": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Resolve a notification",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SessionContext": {
            "type": "object",
            "required": ["subjectId", "degreeId", "batchYear"],
            "properties": {
                "subjectId": {"type": "string"},
                "topicId": {"type": "string"},
                "degreeId": {"type": "string"},
                "batchYear": {"type": "integer"},
                "semester": {"type": "integer", "description": "absolute semester; omit when programYear and term are sent"},
                "branchId": {"type": "string"},
                "programYear": {"type": "integer"},
                "term": {"type": "integer", "enum": [1, 2]}
            }
        },
        "GeneratePatternRequest": {
            "allOf": [
                {"$ref": "#/definitions/SessionContext"},
                {
                    "type": "object",
                    "required": ["mode", "slot", "kind"],
                    "properties": {
                        "mode": {"type": "string", "enum": ["simple", "alternating", "backfill"]},
                        "startDate": {"type": "string", "format": "date"},
                        "endDate": {"type": "string", "format": "date"},
                        "weeks": {"type": "integer", "description": "weeks to fill from the start; required for backfill, counted back from the end"},
                        "weekdays": {"type": "array", "items": {"type": "string"}},
                        "weekA": {"type": "array", "items": {"type": "string"}},
                        "weekB": {"type": "array", "items": {"type": "string"}},
                        "slot": {"type": "string", "enum": ["morning", "afternoon", "both"]},
                        "kind": {"type": "string", "enum": ["lecture", "studio", "both"]}
                    }
                }
            ]
        },
        "TailWeek": {
            "type": "object",
            "properties": {
                "week": {"type": "integer"},
                "weekdays": {"type": "array", "items": {"type": "string"}}
            }
        },
        "TailWeeksRequest": {
            "allOf": [
                {"$ref": "#/definitions/SessionContext"},
                {
                    "type": "object",
                    "required": ["weeks", "slot", "kind"],
                    "properties": {
                        "startDate": {"type": "string", "format": "date"},
                        "endDate": {"type": "string", "format": "date"},
                        "weeks": {"type": "array", "items": {"$ref": "#/definitions/TailWeek"}},
                        "slot": {"type": "string"},
                        "kind": {"type": "string"}
                    }
                }
            ]
        },
        "AddDayRequest": {
            "allOf": [
                {"$ref": "#/definitions/SessionContext"},
                {
                    "type": "object",
                    "required": ["date", "slot", "kind"],
                    "properties": {
                        "date": {"type": "string", "format": "date"},
                        "startDate": {"type": "string", "format": "date"},
                        "endDate": {"type": "string", "format": "date"},
                        "slot": {"type": "string"},
                        "kind": {"type": "string"},
                        "lectures": {"type": "integer"},
                        "studios": {"type": "integer"},
                        "lectureNotes": {"type": "string"},
                        "studioNotes": {"type": "string"}
                    }
                }
            ]
        },
        "UpdateSessionRequest": {
            "type": "object",
            "properties": {
                "lectureNotes": {"type": "string"},
                "studioNotes": {"type": "string"},
                "assignmentId": {"type": "string"},
                "dueDate": {"type": "string", "format": "date"},
                "completed": {"type": "string", "enum": ["", "yes", "no", "maybe"]}
            }
        },
        "DeleteDayRequest": {
            "allOf": [
                {"$ref": "#/definitions/SessionContext"},
                {"type": "object", "properties": {"date": {"type": "string", "format": "date"}, "slot": {"type": "string"}}}
            ]
        },
        "DeleteRangeRequest": {
            "allOf": [
                {"$ref": "#/definitions/SessionContext"},
                {"type": "object", "properties": {"startDate": {"type": "string", "format": "date"}, "endDate": {"type": "string", "format": "date"}}}
            ]
        },
        "CreateHolidayRequest": {
            "type": "object",
            "required": ["date", "title"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "title": {"type": "string"}
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
