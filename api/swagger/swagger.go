package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Planner API",
        "description": "Picks one stream per course component so that weekly clashes are minimised.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Timetable search and background jobs"},
        {"name": "Observability", "description": "Health, readiness and runtime counters"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Prometheus exposition format"}
                }
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Planner runtime counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/search": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Plan a timetable",
                "description": "Picks one stream per component. An infeasible outcome is reported with feasible=false, not as an error.",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimetableSearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TimetableSearchEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "A component has no streams", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Scoring policy failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/cache": {
            "delete": {
                "tags": ["Timetable"],
                "summary": "Forget memoized timetables",
                "responses": {
                    "200": {"description": "Purged", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Shared cache unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/search/jobs": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Queue a timetable search",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimetableSearchRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/SearchJobEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/search/jobs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Poll a queued timetable search",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SearchJobEnvelope"}},
                    "404": {"description": "Unknown or expired job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Session": {
            "type": "object",
            "required": ["day", "start", "end"],
            "properties": {
                "id": {"type": "string"},
                "day": {"type": "string", "enum": ["M", "T", "W", "H", "F", "S", "U"]},
                "start": {"type": "number", "example": 9},
                "end": {"type": "number", "example": 10.5},
                "canClash": {"type": "boolean"}
            }
        },
        "Stream": {
            "type": "object",
            "required": ["id", "sessions"],
            "properties": {
                "id": {"type": "string"},
                "component": {"type": "string"},
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/Session"}}
            }
        },
        "Component": {
            "type": "object",
            "required": ["id", "streams"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "streams": {"type": "array", "items": {"$ref": "#/definitions/Stream"}}
            }
        },
        "SearchConfigOverride": {
            "type": "object",
            "properties": {
                "maxTimeMs": {"type": "integer"},
                "maxIterations": {"type": "integer"},
                "checkIters": {"type": "integer"},
                "initialParents": {"type": "integer"},
                "maxParents": {"type": "integer"},
                "biasTop": {"type": "integer"}
            }
        },
        "TimetableSearchRequest": {
            "type": "object",
            "properties": {
                "components": {"type": "array", "items": {"$ref": "#/definitions/Component"}},
                "fixedSessions": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "maxSpawn": {"type": "integer", "minimum": 1, "maximum": 32},
                "ignoreCache": {"type": "boolean"},
                "config": {"$ref": "#/definitions/SearchConfigOverride"}
            }
        },
        "TimetableSearchResponse": {
            "type": "object",
            "properties": {
                "feasible": {"type": "boolean"},
                "score": {"type": "number", "x-nullable": true},
                "timetable": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "streams": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string"}
            }
        },
        "SearchJob": {
            "type": "object",
            "properties": {
                "jobId": {"type": "string", "format": "uuid"},
                "status": {"type": "string", "enum": ["PENDING", "RUNNING", "SUCCEEDED", "FAILED"]},
                "result": {"$ref": "#/definitions/TimetableSearchResponse"},
                "error": {"$ref": "#/definitions/APIError"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
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
                "meta": {"type": "object"}
            }
        },
        "TimetableSearchEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/TimetableSearchResponse"},
                "meta": {"type": "object"}
            }
        },
        "SearchJobEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/SearchJob"}
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
