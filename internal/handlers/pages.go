package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed dashboard.html
var dashboardHTML []byte

//go:embed openapi.yaml
var openapiSpec []byte

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>machine_states API Docs</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.yaml",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis],
      tryItOutEnabled: true,
    });
  </script>
</body>
</html>`

// page writes a static body. Debug mode turns off client caching so edits to
// a rebuilt binary show up on reload.
func (h *Handler) page(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if h.Debug {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.Write(body) //nolint:errcheck
}

// Dashboard handles GET /, the dashboard page. It loads the selection
// options and figures from the JSON API.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.page(w, "text/html; charset=utf-8", dashboardHTML)
}

// OpenAPISpec handles GET /openapi.yaml.
func (h *Handler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	h.page(w, "application/yaml", openapiSpec)
}

// Docs handles GET /docs — Swagger UI over /openapi.yaml.
func (h *Handler) Docs(w http.ResponseWriter, r *http.Request) {
	h.page(w, "text/html; charset=utf-8", []byte(swaggerUIHTML))
}
