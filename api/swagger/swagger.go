package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CSL Management API",
        "description": "Certificate issuance, revocation and public verification for the CSL training institute.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Certificates", "description": "Issuance, revocation and documents (admin)"},
        {"name": "Verification", "description": "Public certificate verification"}
    ],
    "paths": {
        "/certificates/generate": {
            "post": {
                "tags": ["Certificates"],
                "summary": "Issue certificate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/IssueCertificateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates": {
            "get": {
                "tags": ["Certificates"],
                "summary": "List certificates",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["active", "revoked"]},
                    {"in": "query", "name": "year", "type": "integer"},
                    {"in": "query", "name": "studentId", "type": "string"},
                    {"in": "query", "name": "courseId", "type": "string"},
                    {"in": "query", "name": "q", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "pageSize", "type": "integer"},
                    {"in": "query", "name": "sortOrder", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/stats": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Certificate statistics for a year",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "year", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CertificateStatsEnvelope"}},
                    "400": {"description": "Invalid year", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/{cslNumber}": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Get certificate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "cslNumber", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/{cslNumber}/revoke": {
            "patch": {
                "tags": ["Certificates"],
                "summary": "Revoke certificate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "cslNumber", "type": "string", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RevokeCertificateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already revoked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/{cslNumber}/regenerate": {
            "post": {
                "tags": ["Certificates"],
                "summary": "Regenerate certificate document",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "cslNumber", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Certificate revoked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Document generation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/{cslNumber}/download": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download certificate PDF",
                "produces": ["application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "cslNumber", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/certificates/documents/{token}": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download certificate PDF with a signed link",
                "produces": ["application/pdf"],
                "parameters": [
                    {"in": "path", "name": "token", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/verification/verify/{cslNumber}": {
            "get": {
                "tags": ["Verification"],
                "summary": "Verify certificate",
                "description": "Unknown, malformed and revoked numbers are reported in the body with HTTP 200.",
                "parameters": [
                    {"in": "path", "name": "cslNumber", "type": "string", "required": true},
                    {"in": "query", "name": "hash", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Verification result", "schema": {"$ref": "#/definitions/VerificationResult"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "IssueCertificateRequest": {
            "type": "object",
            "required": ["studentId", "courseId", "completionDate"],
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "completionDate": {"type": "string", "format": "date"},
                "notes": {"type": "string"}
            }
        },
        "RevokeCertificateRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "VerificationResult": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "cslNumber": {"type": "string"},
                "reason": {"type": "string", "enum": ["not_found", "invalid_format", "revoked", "hash_mismatch"]},
                "revokedAt": {"type": "string", "format": "date-time"},
                "revocationReason": {"type": "string"},
                "certificate": {
                    "type": "object",
                    "properties": {
                        "cslNumber": {"type": "string"},
                        "studentName": {"type": "string"},
                        "courseTitle": {"type": "string"},
                        "issueDate": {"type": "string", "format": "date"},
                        "completionDate": {"type": "string", "format": "date"},
                        "status": {"type": "string"}
                    }
                }
            }
        },
        "CertificateStats": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "total": {"type": "integer"},
                "lastSequence": {"type": "integer"},
                "byCourse": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "courseCode": {"type": "string"},
                            "courseName": {"type": "string"},
                            "count": {"type": "integer"}
                        }
                    }
                },
                "byStatus": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "status": {"type": "string", "enum": ["active", "revoked"]},
                            "count": {"type": "integer"}
                        }
                    }
                }
            }
        },
        "CertificateStatsEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/CertificateStats"}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
