package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// RouteSource lists the registered routes, typically (*echo.Echo).Routes.
type RouteSource func() []*echo.Route

// Generator builds an OpenAPI 3.0 document from the live route table, so
// the document never drifts from what the server actually serves.
type Generator struct {
	routes  RouteSource
	prefix  string
	version string
}

func NewGenerator(routes RouteSource, prefix, version string) *Generator {
	return &Generator{routes: routes, prefix: prefix, version: version}
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]map[string]interface{})
	tagSet := map[string]bool{}

	routes := g.routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	for _, r := range routes {
		if !strings.HasPrefix(r.Path, g.prefix+"/") || strings.HasSuffix(r.Path, "*") {
			continue
		}
		method := strings.ToLower(r.Method)
		if method == "any" || method == "echo_route_any" {
			continue
		}
		rel := strings.TrimPrefix(r.Path, g.prefix)
		path, params := openAPIPath(rel)
		tag := strings.SplitN(strings.TrimPrefix(rel, "/"), "/", 2)[0]
		tagSet[tag] = true

		op := map[string]interface{}{
			"summary":     handlerName(r.Name),
			"operationId": operationID(method, rel),
			"tags":        []string{tag},
			"security":    []map[string][]string{{"bearerAuth": {}}},
			"responses": map[string]interface{}{
				"2XX":     buildResponse("Success", "#/components/schemas/Envelope"),
				"default": buildResponse("Error", "#/components/schemas/Error"),
			},
		}
		if len(params) > 0 {
			op["parameters"] = params
		}
		if method == "post" || method == "put" {
			op["requestBody"] = map[string]interface{}{
				"required": false,
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": map[string]string{"type": "object"},
					},
				},
			}
		}

		if paths[path] == nil {
			paths[path] = map[string]interface{}{}
		}
		paths[path][method] = op
	}

	tags := make([]map[string]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, map[string]string{"name": t})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i]["name"] < tags[j]["name"] })

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Hospital Admission and Dispensation API",
			"version":     g.version,
			"description": "Outpatient registration, screening, inpatient admission, bed allocation and pharmacy",
		},
		"servers": []map[string]string{{"url": g.prefix}},
		"tags":    tags,
		"paths":   paths,
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]string{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
			"schemas": map[string]interface{}{
				"Envelope": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"message": map[string]string{"type": "string"},
						"data":    map[string]interface{}{},
					},
				},
				"Error": map[string]interface{}{
					"type":     "object",
					"required": []string{"kind", "error"},
					"properties": map[string]interface{}{
						"kind": map[string]interface{}{
							"type": "string",
							"enum": []string{"validation", "not_found", "conflict", "insufficient_stock", "unavailable", "timeout", "internal"},
						},
						"error":      map[string]string{"type": "string"},
						"request_id": map[string]string{"type": "string"},
					},
				},
			},
		},
	}
}

// openAPIPath turns /inpatientvisit/:id/discharge into
// /inpatientvisit/{id}/discharge and lists the path parameters.
func openAPIPath(path string) (string, []map[string]interface{}) {
	var params []map[string]interface{}
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			name := s[1:]
			segs[i] = "{" + name + "}"
			params = append(params, map[string]interface{}{
				"name": name, "in": "path", "required": true,
				"schema": map[string]string{"type": "integer", "format": "int64"},
			})
		}
	}
	return strings.Join(segs, "/"), params
}

// operationID builds e.g. "postInpatientvisitIdDischarge".
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(method)
	for _, s := range strings.Split(path, "/") {
		s = strings.TrimPrefix(s, ":")
		if s == "" {
			continue
		}
		b.WriteString(strings.ToUpper(s[:1]))
		b.WriteString(s[1:])
	}
	return b.String()
}

// handlerName reduces ".../pharmacy.(*Handler).Dispense-fm" to "Dispense".
func handlerName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

func buildResponse(description, schemaRef string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]string{"$ref": schemaRef},
			},
		},
	}
}

const swaggerUIHTML = `<!DOCTYPE html>
<html>
<head>
  <title>HMS API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({ url: "openapi.json", dom_id: "#swagger-ui" });
  </script>
</body>
</html>`

// RegisterRoutes registers the OpenAPI endpoints.
func (g *Generator) RegisterRoutes(apiGroup *echo.Group) {
	apiGroup.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	apiGroup.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
