package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>syncpad — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document for the administrative API. The realtime /ws
// endpoint is documented in prose only; OpenAPI has no websocket vocabulary.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "syncpad", "version": "v0.1.0" },
  "paths": {
    "/api/documents": {
      "get": { "summary": "List documents the identity is a member of", "parameters": [{"name":"X-User-Email","in":"header","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "listing with per-document role" }, "401": { "description": "identity header missing" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Fetch a document, creating it when absent", "responses": { "200": { "description": "document with currentUserRole" }, "403": { "description": "access denied" } } },
      "patch": { "summary": "Rename a document (editors and admins)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"}}}}}}, "responses": { "200": { "description": "renamed" }, "403": { "description": "access denied" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a document and disconnect its room (admin only)", "responses": { "200": { "description": "deleted" }, "403": { "description": "access denied" }, "404": { "description": "not found" } } }
    },
    "/api/documents/{id}/invite": {
      "post": { "summary": "Upsert a member role (admin only)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"targetEmail":{"type":"string"},"role":{"type":"string","enum":["admin","editor","viewer"]}}}}}}, "responses": { "200": { "description": "member list after upsert" }, "400": { "description": "invalid role or target" }, "403": { "description": "access denied" }, "404": { "description": "not found" } } }
    },
    "/api/documents/{id}/sharing": {
      "post": { "summary": "Update visibility and link access (admin only)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"isPrivate":{"type":"boolean"},"linkAccess":{"type":"string","enum":["none","viewer","editor"]}}}}}}, "responses": { "200": { "description": "updated" }, "403": { "description": "access denied" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
