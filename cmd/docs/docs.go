// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/signing_backend/main.go -o cmd/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/documents": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["documents"],
                "summary": "Dispatch a document for signatures",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/documents/{documentID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["documents"],
                "summary": "Get a document",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/documents/{documentID}/recheck-completion": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["documents"],
                "summary": "Re-run the completion check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/documents/{documentID}/audit": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["audit"],
                "summary": "List a document's audit trail",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/documents/{documentID}/audit/verify": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["audit"],
                "summary": "Verify a document's audit trail",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/sign/documents/{documentID}/signatures/{signatureID}": {
            "get": {
                "security": [{"SigningToken": []}],
                "tags": ["signing"],
                "summary": "Open a signing link",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"SigningToken": []}],
                "tags": ["signing"],
                "summary": "Sign a document",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "SigningToken": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Document Signing API",
	Description:      "Dispatches rendered documents for signatures, captures signatures and keeps a tamper-evident audit trail.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
