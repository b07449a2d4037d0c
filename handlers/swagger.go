package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal OpenAPI endpoints for the service.
// - GET /api/docs          -> a small HTML page that loads the OpenAPI JSON
// - GET /api/openapi.json  -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/api/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/api/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>gitmax-api — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/api/openapi.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the service endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "gitmax-api", "version": "v0.1.0" },
  "paths": {
    "/api/auth/login": {
      "get": { "summary": "Redirect to GitHub authorization", "responses": { "302": { "description": "redirect to provider" } } }
    },
    "/api/auth/callback": {
      "get": {
        "summary": "Complete the OAuth flow",
        "parameters": [
          {"name":"code","in":"query","required":true,"schema":{"type":"string"}},
          {"name":"state","in":"query","required":true,"schema":{"type":"string"}}
        ],
        "responses": { "200": { "description": "token + user (Accept: application/json)" }, "302": { "description": "redirect to frontend with session cookie" }, "400": { "description": "exchange or identity failure" } }
      }
    },
    "/api/auth/logout": {
      "get": { "summary": "Clear the session cookie", "responses": { "200": { "description": "logged out" } } }
    },
    "/api/profile": {
      "get": { "summary": "Current user record", "responses": { "200": { "description": "user" }, "401": { "description": "unauthenticated" }, "403": { "description": "inactive user" } } },
      "put": { "summary": "Partial profile update", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"github_username":{"type":"string"},"is_active":{"type":"boolean"}}}}}}, "responses": { "200": { "description": "updated user" } } }
    },
    "/api/analysis/repositories": {
      "get": { "summary": "Analyze recent repositories", "responses": { "200": { "description": "analyses" }, "502": { "description": "github unavailable" } } }
    },
    "/api/analysis/repository/{name}": {
      "get": { "summary": "Analyze one repository", "parameters": [{"name":"name","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "analysis" }, "502": { "description": "github unavailable" } } }
    },
    "/api/analysis/profile-scoring": {
      "get": { "summary": "Score the profile for a job role", "parameters": [{"name":"job_role","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "score (ai or fallback)" } } }
    },
    "/api/analysis/recommendations": {
      "get": { "summary": "Profile improvement recommendations", "parameters": [{"name":"job_role","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "recommendations (ai or fallback)" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
