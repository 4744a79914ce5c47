// Package docs registers the Swagger document served under /swagger/.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/projects": {
            "post": {"tags": ["projects"], "summary": "Create project", "responses": {"201": {"description": "Created"}}}
        },
        "/projects/{project_id}": {
            "get": {"tags": ["projects"], "summary": "Get project", "responses": {"200": {"description": "OK"}}}
        },
        "/positions/{project_id}": {
            "get": {"tags": ["positions"], "summary": "List positions", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["positions"], "summary": "Create position", "responses": {"201": {"description": "Created"}}}
        },
        "/positions/public/{position_id}": {
            "get": {"tags": ["positions"], "summary": "Get public position", "responses": {"200": {"description": "OK"}}}
        },
        "/positions/{project_id}/{position_id}": {
            "get": {"tags": ["positions"], "summary": "Get position", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["positions"], "summary": "Update position", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["positions"], "summary": "Delete position", "responses": {"200": {"description": "OK"}}}
        },
        "/positions/{project_id}/{position_id}/close": {
            "put": {"tags": ["positions"], "summary": "Close position", "responses": {"200": {"description": "OK"}}}
        },
        "/positions/{project_id}/{position_id}/open": {
            "put": {"tags": ["positions"], "summary": "Reopen position", "responses": {"200": {"description": "OK"}}}
        },
        "/jd/{project_id}/{position_id}": {
            "get": {"tags": ["jd"], "summary": "Get job description", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["jd"], "summary": "Update job description", "responses": {"200": {"description": "OK"}}}
        },
        "/cv/{project_id}/{position_id}/uploads": {
            "post": {"tags": ["cv"], "summary": "Upload CVs", "responses": {"202": {"description": "Accepted"}}}
        },
        "/cv/{position_id}/upload": {
            "post": {"tags": ["cv"], "summary": "Upload one CV", "responses": {"202": {"description": "Accepted"}}}
        },
        "/cv/{project_id}/{position_id}/rematch": {
            "post": {"tags": ["cv"], "summary": "Re-match CVs", "responses": {"202": {"description": "Accepted"}}}
        },
        "/cv/{project_id}/{position_id}/analyze": {
            "post": {"tags": ["cv"], "summary": "Analyze CVs", "responses": {"202": {"description": "Accepted"}}}
        },
        "/cv/progress/{watch_id}": {
            "get": {"tags": ["cv"], "summary": "Upload progress", "responses": {"200": {"description": "OK"}}}
        },
        "/cv/{project_id}/{position_id}": {
            "get": {"tags": ["cv"], "summary": "List CVs", "responses": {"200": {"description": "OK"}}}
        },
        "/cv/{project_id}/{position_id}/{cv_id}": {
            "get": {"tags": ["cv"], "summary": "Get CV", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["cv"], "summary": "Delete CV", "responses": {"200": {"description": "OK"}}}
        },
        "/cv/{project_id}/{position_id}/{cv_id}/detail": {
            "get": {"tags": ["cv"], "summary": "Get CV detail", "responses": {"200": {"description": "OK"}}}
        },
        "/cv/{project_id}/{position_id}/{cv_id}/download": {
            "get": {"tags": ["cv"], "summary": "Download CV", "responses": {"200": {"description": "OK"}}}
        },
        "/cv/{project_id}/{position_id}/{cv_id}/status": {
            "put": {"tags": ["cv"], "summary": "Update CV status", "responses": {"200": {"description": "OK"}}}
        },
        "/cv/{project_id}/{position_id}/download/summary": {
            "get": {"tags": ["cv"], "summary": "Download CV summaries", "responses": {"200": {"description": "OK"}}}
        },
        "/cv/{project_id}/{position_id}/download/matching": {
            "get": {"tags": ["cv"], "summary": "Download CV matching scores", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Talent Pipeline API",
	Description:      "Recruitment backend: projects, positions, job descriptions and CV ingestion with AI matching",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
