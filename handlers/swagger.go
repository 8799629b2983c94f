package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers Swagger/OpenAPI endpoints for the card API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>cards API</title>
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

// OpenAPI document for the card API. Card bodies are free-form objects.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "cards", "version": "v1.0.0" },
  "components": {
    "schemas": {
      "Card": { "type": "object", "additionalProperties": true, "properties": { "_id": {"type":"string"}, "like": {"type":"boolean"}, "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "Message": { "type": "object", "properties": { "message": {"type":"string"} } }
    }
  },
  "paths": {
    "/cards": {
      "post": { "summary": "Create a card", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Card"}}}}, "responses": { "201": { "description": "card created" }, "400": { "description": "invalid body" } } }
    },
    "/getAllCards": {
      "get": { "summary": "List every card", "responses": { "200": { "description": "array of cards" } } }
    },
    "/getCard/{id}": {
      "get": { "summary": "Get a card", "responses": { "200": { "description": "card" }, "400": { "description": "malformed id" }, "404": { "description": "Card not found" } } }
    },
    "/updateAllcards/{id}": {
      "put": { "summary": "Replace a card's fields", "responses": { "200": { "description": "card updated" }, "404": { "description": "Card not found" } } }
    },
    "/updateCard/{id}": {
      "patch": { "summary": "Merge fields into a card", "responses": { "200": { "description": "card updated" }, "400": { "description": "empty or invalid body" }, "404": { "description": "Card not found" } } }
    },
    "/updateLike/{id}": {
      "patch": { "summary": "Toggle the like flag", "responses": { "200": { "description": "card" }, "404": { "description": "Card not found" } } }
    },
    "/deleteCard/{id}": {
      "delete": { "summary": "Delete a card", "responses": { "200": { "description": "Card deleted successfully" }, "404": { "description": "Card not found" } } }
    },
    "/send": { "post": { "summary": "Log a user/email pair", "responses": { "200": { "description": "Data received" } } } },
    "/review": { "get": { "summary": "List mounted endpoints", "responses": { "200": { "description": "plain text" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "card store not ready" } } } }
  }
}`
