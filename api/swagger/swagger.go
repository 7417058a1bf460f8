package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "College ERP API",
        "description": "Marksheet grade computation and legacy admissions migration",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Imports", "description": "Bulk marksheet imports and job polling"},
        {"name": "Marksheets", "description": "Graded marksheets and printable statements"},
        {"name": "Legacy", "description": "Legacy admissions migration"}
    ],
    "paths": {
        "/marksheets/imports": {
            "post": {
                "tags": ["Imports"],
                "summary": "Queue a bulk marksheet import",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marksheets/imports/{id}": {
            "get": {
                "tags": ["Imports"],
                "summary": "Import or migration job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marksheets/imports/{id}/failures.csv": {
            "get": {
                "tags": ["Imports"],
                "summary": "Download the failed student groups of a finished job",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"},
                    "409": {"description": "Job still running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marksheets/{id}": {
            "get": {
                "tags": ["Marksheets"],
                "summary": "Marksheet with subjects and grades",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown marksheet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marksheets/{id}/pdf": {
            "get": {
                "tags": ["Marksheets"],
                "summary": "Printable statement of marks",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF file"}
                }
            }
        },
        "/marksheets/{id}/pdf/link": {
            "get": {
                "tags": ["Marksheets"],
                "summary": "Signed, time limited link to the marksheet PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marksheets/imports/{id}/failures/link": {
            "get": {
                "tags": ["Imports"],
                "summary": "Signed link to the failure report of a finished job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Job not finished", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Downloads"],
                "summary": "Fetch a generated failure report or marksheet PDF",
                "security": [],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Artifact file"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Artifact removed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/marksheets": {
            "get": {
                "tags": ["Marksheets"],
                "summary": "Every marksheet of a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/legacy/migrations": {
            "post": {
                "tags": ["Legacy"],
                "summary": "Queue a legacy admissions migration",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/LegacyMigrationRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Marks": {
            "type": "string",
            "description": "Number, blank or AB for absent"
        },
        "MarksheetRow": {
            "type": "object",
            "required": ["roll_no", "stream", "course", "framework", "year1", "semester"],
            "properties": {
                "roll_no": {"type": "string"},
                "registration_no": {"type": "string"},
                "uid": {"type": "string"},
                "name": {"type": "string"},
                "stream": {"type": "string"},
                "course": {"type": "string", "enum": ["HONOURS", "GENERAL", "REGULAR"]},
                "framework": {"type": "string", "enum": ["CBCS", "CCF"]},
                "year1": {"type": "integer"},
                "year2": {"type": "integer"},
                "semester": {"type": "integer", "minimum": 1, "maximum": 6},
                "paper_code": {"type": "string"},
                "subject": {"type": "string"},
                "category": {"type": "string"},
                "internal_marks": {"$ref": "#/definitions/Marks"},
                "theory_marks": {"$ref": "#/definitions/Marks"},
                "practical_marks": {"$ref": "#/definitions/Marks"},
                "project_marks": {"$ref": "#/definitions/Marks"},
                "viva_marks": {"$ref": "#/definitions/Marks"},
                "full_marks_internal": {"$ref": "#/definitions/Marks"},
                "full_marks_theory": {"$ref": "#/definitions/Marks"},
                "full_marks_practical": {"$ref": "#/definitions/Marks"},
                "full_marks_project": {"$ref": "#/definitions/Marks"},
                "full_marks_viva": {"$ref": "#/definitions/Marks"},
                "credit_internal": {"$ref": "#/definitions/Marks"},
                "credit_theory": {"$ref": "#/definitions/Marks"},
                "credit_practical": {"$ref": "#/definitions/Marks"},
                "credit_project": {"$ref": "#/definitions/Marks"},
                "credit_viva": {"$ref": "#/definitions/Marks"},
                "credit": {"$ref": "#/definitions/Marks"}
            }
        },
        "ImportRequest": {
            "type": "object",
            "required": ["rows"],
            "properties": {
                "rows": {"type": "array", "items": {"$ref": "#/definitions/MarksheetRow"}}
            }
        },
        "LegacyMigrationRequest": {
            "type": "object",
            "properties": {
                "shift_id": {"type": "integer"},
                "batch_size": {"type": "integer", "minimum": 1, "maximum": 5000},
                "limit": {"type": "integer", "minimum": 1}
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
