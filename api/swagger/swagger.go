package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Substitute Finder API",
        "description": "School timetable, substitution finder and task tracking service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Teachers", "description": "Teacher roster management"},
        {"name": "Classes", "description": "Grade levels"},
        {"name": "Sections", "description": "Sections within classes"},
        {"name": "Schedule", "description": "Weekly timetable and swap protocol"},
        {"name": "Substitutions", "description": "Availability finder"},
        {"name": "Tasks", "description": "Task completion tracking"},
        {"name": "Export", "description": "Snapshot export and import"}
    ],
    "paths": {
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Register teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTeacherRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get teacher detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Rename teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTeacherRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Delete teacher with schedule entries and completions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No content"}
                }
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List classes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Create class",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections",
                "parameters": [
                    {"name": "with_class", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Create section under a class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List schedule entries",
                "parameters": [
                    {"name": "detailed", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedule"],
                "summary": "Assign a teacher to a slot (upsert)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/slot": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get the entry occupying one slot",
                "parameters": [
                    {"name": "section_id", "in": "query", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "required": true, "type": "integer"},
                    {"name": "day_of_week", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Slot empty"}
                }
            },
            "delete": {
                "tags": ["Schedule"],
                "summary": "Clear one slot",
                "parameters": [
                    {"name": "section_id", "in": "query", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "required": true, "type": "integer"},
                    {"name": "day_of_week", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/swap": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Exchange teachers between two occupied slots",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SwapRequest"}}
                ],
                "responses": {
                    "200": {"description": "Swap committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Swap rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/available": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "List teachers free at a period and day",
                "parameters": [
                    {"name": "period", "in": "query", "required": true, "type": "integer"},
                    {"name": "day_of_week", "in": "query", "required": true, "type": "integer"},
                    {"name": "exclude_teacher_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks",
                "parameters": [
                    {"name": "stats", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create task, seeding a cell for every teacher",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Export the full application state",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/import": {
            "post": {
                "tags": ["Export"],
                "summary": "Restore collections from a snapshot",
                "responses": {
                    "204": {"description": "No content"}
                }
            }
        }
    },
    "definitions": {
        "CreateTeacherRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            },
            "required": ["name"]
        },
        "CreateSectionRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "name": {"type": "string"},
                "section_letter": {"type": "string"}
            },
            "required": ["class_id", "name", "section_letter"]
        },
        "AssignScheduleRequest": {
            "type": "object",
            "properties": {
                "section_id": {"type": "string"},
                "period": {"type": "integer"},
                "day_of_week": {"type": "integer"},
                "teacher_id": {"type": "string"}
            },
            "required": ["section_id", "period", "teacher_id"]
        },
        "SlotRef": {
            "type": "object",
            "properties": {
                "section_id": {"type": "string"},
                "period": {"type": "integer"},
                "day_of_week": {"type": "integer"}
            },
            "required": ["section_id", "period"]
        },
        "SwapRequest": {
            "type": "object",
            "properties": {
                "first": {"$ref": "#/definitions/SlotRef"},
                "second": {"$ref": "#/definitions/SlotRef"}
            },
            "required": ["first", "second"]
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
