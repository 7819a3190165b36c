package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Prescription API",
        "description": "Clinical transcript to structured prescription document pipeline",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Prescriptions", "description": "Prescription lifecycle"},
        {"name": "Export", "description": "Register downloads"},
        {"name": "Health", "description": "Service readiness"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Service health including template validation",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prescriptions": {
            "get": {
                "tags": ["Prescriptions"],
                "summary": "List prescriptions newest-first",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Prescriptions"],
                "summary": "Create a prescription from a transcript",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CreatePrescriptionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "501": {"description": "Audio transcription not implemented", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prescriptions/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Download the prescription register",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "description": "csv or pdf"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prescriptions/{id}": {
            "get": {
                "tags": ["Prescriptions"],
                "summary": "Get a prescription",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prescriptions/{id}/render": {
            "post": {
                "tags": ["Prescriptions"],
                "summary": "Re-render a draft with edited structured data",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RenderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Prescription already approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prescriptions/{id}/approve": {
            "post": {
                "tags": ["Prescriptions"],
                "summary": "Approve a prescription and produce the final document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/prescriptions/{id}/audit": {
            "get": {
                "tags": ["Prescriptions"],
                "summary": "Get the append-only audit trail of a prescription",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Medication": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "instructions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "PrescriptionData": {
            "type": "object",
            "properties": {
                "patient_name": {"type": "string"},
                "age_years": {"type": "string"},
                "sex": {"type": "string"},
                "diagnosis": {"type": "string"},
                "symptom_duration": {"type": "string"},
                "presenting_symptoms": {"type": "array", "items": {"type": "string"}},
                "allergies": {"type": "string"},
                "current_medications": {"type": "string"},
                "past_medical_history": {"type": "string"},
                "medications": {"type": "array", "items": {"$ref": "#/definitions/Medication"}},
                "followup_text": {"type": "string"},
                "date": {"type": "string"}
            }
        },
        "CreatePrescriptionRequest": {
            "type": "object",
            "properties": {
                "transcript": {"type": "string"}
            }
        },
        "RenderRequest": {
            "type": "object",
            "properties": {
                "structured_data": {"$ref": "#/definitions/PrescriptionData"}
            },
            "required": ["structured_data"]
        },
        "PrescriptionSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "patient_name": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"},
                "approved_at": {"type": "string"}
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
